package common

// Keys used in the local key-value store.
const (
	KeyQueryCache      = "query_cache"
	KeyThemePreference = "theme_preference"
	KeyAuthSession     = "auth_session"
	KeyAccountPrefix   = "account:"
)

// IdentityHeaderName is the gRPC metadata key carrying the caller's identity id
// on document-store requests. The server only serves documents under
// users/<id> to the identity named here.
const IdentityHeaderName = "x-identity-id"
