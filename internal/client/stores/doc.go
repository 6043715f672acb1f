// Package stores holds the client's reactive state: the auth store, the
// user profile store and the theme preference store.
//
// Each store guards its state with a mutex, hands out deep-copied
// snapshots and notifies subscribers, in order, after every change.
// State changes only through the stores' named operations.
package stores
