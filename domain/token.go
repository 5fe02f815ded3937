package domain

// Token types embedded in the "token_type" claim of issued credentials.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair is the result of a successful passwordless authentication:
// a long-lived refresh credential and a short-lived access credential.
// Both are signed, self-describing, and never persisted server-side.
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}
