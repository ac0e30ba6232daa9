package common

// SecretKeyName is the keychain identifier of the key used to sign
// authentication tokens.
const SecretKeyName = "SECRET_KEY"

// AuthorizationHeaderName is the HTTP header (and, lower-cased, the gRPC
// metadata key) carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the optional authorization scheme in front of the token.
const BearerScheme = "Bearer"
