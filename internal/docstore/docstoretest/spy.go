// Package docstoretest provides a recording docstore.Store for tests.
package docstoretest

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
)

const (
	OpGet = "get"
	OpSet = "set"
)

// Call is one recorded store operation.
type Call struct {
	Op     string
	Path   string
	Fields docstore.Fields
	Merge  bool
}

// Spy wraps a Store, records every call and can inject failures.
type Spy struct {
	inner docstore.Store

	mu         sync.Mutex
	calls      []Call
	failNext   map[string][]error
	failAlways map[string]error
	beforeGet  func(ctx context.Context, path string)
	beforeSet  func(ctx context.Context, path string)
}

// New wraps inner; a nil inner gets a fresh MemoryStore.
func New(inner docstore.Store) *Spy {
	if inner == nil {
		inner = docstore.NewMemoryStore()
	}
	return &Spy{
		inner:      inner,
		failNext:   make(map[string][]error),
		failAlways: make(map[string]error),
	}
}

func key(op, path string) string { return op + " " + path }

// FailNext makes the next len(errs) calls of op on path fail with errs in order.
func (s *Spy) FailNext(op, path string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(op, path)
	s.failNext[k] = append(s.failNext[k], errs...)
}

// FailAlways makes every call of op on path fail with err; nil clears it.
func (s *Spy) FailAlways(op, path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failAlways, key(op, path))
		return
	}
	s.failAlways[key(op, path)] = err
}

// BeforeGet installs a hook run at the start of every Get, outside the lock.
func (s *Spy) BeforeGet(fn func(ctx context.Context, path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeGet = fn
}

// BeforeSet installs a hook run at the start of every Set, outside the lock.
func (s *Spy) BeforeSet(fn func(ctx context.Context, path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeSet = fn
}

func (s *Spy) record(c Call) (hookGet, hookSet func(context.Context, string), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	k := key(c.Op, c.Path)
	if q := s.failNext[k]; len(q) > 0 {
		err = q[0]
		s.failNext[k] = q[1:]
	} else if e, ok := s.failAlways[k]; ok {
		err = e
	}
	return s.beforeGet, s.beforeSet, err
}

func (s *Spy) Get(ctx context.Context, path string) (docstore.Fields, bool, error) {
	hook, _, err := s.record(Call{Op: OpGet, Path: path})
	if hook != nil {
		hook(ctx, path)
	}
	if err != nil {
		return nil, false, err
	}
	return s.inner.Get(ctx, path)
}

func (s *Spy) Set(ctx context.Context, path string, fields docstore.Fields, opts docstore.SetOptions) error {
	_, hook, err := s.record(Call{Op: OpSet, Path: path, Fields: docstore.Clone(fields), Merge: opts.Merge})
	if hook != nil {
		hook(ctx, path)
	}
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, path, fields, opts)
}

// Calls returns every recorded call in order.
func (s *Spy) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Sets returns the recorded Set calls, optionally only those on path.
func (s *Spy) Sets(path ...string) []Call {
	return s.filter(OpSet, path)
}

// Gets returns the recorded Get calls, optionally only those on path.
func (s *Spy) Gets(path ...string) []Call {
	return s.filter(OpGet, path)
}

func (s *Spy) filter(op string, path []string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op != op {
			continue
		}
		if len(path) > 0 && c.Path != path[0] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Reset forgets recorded calls; injected failures and hooks stay.
func (s *Spy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
