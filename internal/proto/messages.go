package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrMalformed is returned when an envelope is missing a key or holds a
// value of the wrong kind.
var ErrMalformed = errors.New("malformed document envelope")

// Envelope keys.
const (
	keyFound  = "found"
	keyFields = "fields"
	keyPath   = "path"
	keyMerge  = "merge"
)

// SetRequest is the decoded form of a SetDocument request.
type SetRequest struct {
	Path   string
	Merge  bool
	Fields map[string]any
}

func NewGetRequest(path string) *wrapperspb.StringValue {
	return wrapperspb.String(path)
}

// NewGetResponse wraps a read result. fields must hold JSON-compatible
// values only.
func NewGetResponse(fields map[string]any, found bool) (*structpb.Struct, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{
		keyFound:  found,
		keyFields: fields,
	})
}

func ParseGetResponse(s *structpb.Struct) (map[string]any, bool, error) {
	m := s.AsMap()

	found, ok := m[keyFound].(bool)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q is not a bool", ErrMalformed, keyFound)
	}
	if !found {
		return nil, false, nil
	}
	fields, err := fieldsOf(m)
	if err != nil {
		return nil, false, err
	}
	return fields, true, nil
}

// NewSetRequest wraps a write. Fields must hold JSON-compatible values only.
func NewSetRequest(r SetRequest) (*structpb.Struct, error) {
	fields := r.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{
		keyPath:   r.Path,
		keyMerge:  r.Merge,
		keyFields: fields,
	})
}

func ParseSetRequest(s *structpb.Struct) (SetRequest, error) {
	m := s.AsMap()

	path, ok := m[keyPath].(string)
	if !ok {
		return SetRequest{}, fmt.Errorf("%w: %q is not a string", ErrMalformed, keyPath)
	}

	var merge bool
	if v, present := m[keyMerge]; present {
		if merge, ok = v.(bool); !ok {
			return SetRequest{}, fmt.Errorf("%w: %q is not a bool", ErrMalformed, keyMerge)
		}
	}

	fields, err := fieldsOf(m)
	if err != nil {
		return SetRequest{}, err
	}
	return SetRequest{Path: path, Merge: merge, Fields: fields}, nil
}

func fieldsOf(m map[string]any) (map[string]any, error) {
	v, present := m[keyFields]
	if !present || v == nil {
		return map[string]any{}, nil
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an object", ErrMalformed, keyFields)
	}
	return fields, nil
}
