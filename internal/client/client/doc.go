// Package client contains the client-side infrastructure of profilekeeper.
//
// # Overview
//
// The package provides:
//  1. GRPCClient, a docstore.Store backed by the remote document server. It
//     manages the connection, sends the caller's identity id as metadata
//     via a unary interceptor and maps gRPC status codes to errors.
//  2. Local persistence bootstrap (InitDatabase, RunMigrations,
//     NewKVRepository) wiring an SQLite database and applying the embedded
//     goose migrations.
//
// # Error Handling
//
// Transport failures surface as ErrUnavailable, rejected calls wrap
// common.ErrorUnauthorized and bad paths wrap common.ErrInvalidPath.
// Everything else is wrapped as "rpc error". The query layer retries them
// all the same way.
package client
