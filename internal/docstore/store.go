// Package docstore describes the document store profiles are synced with:
// a path-addressed get/set collaborator with merge semantics. The client
// talks to it through client.GRPCClient and the server implements it on
// memory, Postgres or S3. MemoryStore is the in-process implementation.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
)

// Fields is a loosely-typed document body. Values are JSON-compatible:
// string, float64, bool, nil, []any and map[string]any.
type Fields map[string]any

// SetOptions controls Set. With Merge, top-level keys of the new fields
// replace the stored ones and other keys are kept; without it the
// document is replaced.
type SetOptions struct {
	Merge bool
}

// Store is the remote document store contract.
//
// Get reports ok=false (and a nil error) when the document does not exist.
type Store interface {
	Get(ctx context.Context, path string) (fields Fields, ok bool, err error)
	Set(ctx context.Context, path string, fields Fields, opts SetOptions) error
}

// PublicPath is the public profile document of a user.
func PublicPath(userID string) string {
	return "users/" + userID
}

// PrivatePath is the private profile document of a user.
func PrivatePath(userID string) string {
	return "users/" + userID + "/private/profile"
}

// OwnerOf returns the user id of a path under users/<id>, or "" when the
// path belongs to nobody.
func OwnerOf(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 2 || parts[0] != "users" {
		return ""
	}
	return parts[1]
}

// ValidatePath rejects empty paths, empty segments and paths with an even
// number of segments that do not name a document.
func ValidatePath(path string) error {
	if path == "" {
		return common.ErrInvalidPath
	}
	parts := strings.Split(path, "/")
	if len(parts)%2 != 0 {
		return fmt.Errorf("%w: %q is a collection", common.ErrInvalidPath, path)
	}
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("%w: %q has an empty segment", common.ErrInvalidPath, path)
		}
	}
	return nil
}

// Merge returns dst with every top-level key of src applied on top.
// Neither argument is modified.
func Merge(dst, src Fields) Fields {
	out := make(Fields, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Normalize converts an arbitrary value (typically a struct with json tags)
// into JSON-compatible Fields.
func Normalize(v any) (Fields, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}
	var f Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}
	return f, nil
}

// Clone deep-copies f through its JSON form.
func Clone(f Fields) Fields {
	if f == nil {
		return nil
	}
	out, err := Normalize(f)
	if err != nil {
		// Fields that cannot round-trip are returned as a shallow copy.
		return Merge(nil, f)
	}
	return out
}
