package auth

import (
	"context"
)

// UserInfo contains information about an authenticated user.
type UserInfo struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	KeyType     string `json:"key_type"` // 'standard', 'admin'
}

// Authorizer validates bearer credentials and resolves a user identity.
type Authorizer interface {
	// Authorize validates the bearer token and returns the caller's identity,
	// or an error if authentication fails.
	Authorize(ctx context.Context, token string) (*UserInfo, error)
}
