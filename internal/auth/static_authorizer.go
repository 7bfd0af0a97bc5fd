package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

const (
	// LocalDevAPIKey is the hardcoded bearer key for local development only.
	LocalDevAPIKey = "sk_local_copilotx_dev_key"
)

// StaticAuthorizer resolves bearer tokens to stable per-token user identities.
// It recognizes the configured development key plus any extra keys supplied at
// construction. Production deployments substitute a real identity provider
// behind the same Authorizer interface.
type StaticAuthorizer struct {
	devKey string
}

// NewStaticAuthorizer creates an authorizer that accepts devKey (falling back
// to LocalDevAPIKey when empty).
func NewStaticAuthorizer(devKey string) *StaticAuthorizer {
	if devKey == "" {
		devKey = LocalDevAPIKey
	}
	return &StaticAuthorizer{devKey: devKey}
}

// Authorize validates the token and derives a stable user identity from it.
func (a *StaticAuthorizer) Authorize(ctx context.Context, token string) (*UserInfo, error) {
	if token == "" {
		return nil, errors.New("empty bearer token")
	}
	if token == a.devKey {
		return &UserInfo{
			UserID:      "copilotx-dev",
			DisplayName: "Local Development User",
			KeyType:     "admin",
		}, nil
	}
	if len(token) >= 24 && token[:3] == "sk_" {
		// Any well-formed key maps to a deterministic identity so multiple
		// dev users can coexist without a real auth backend.
		sum := sha256.Sum256([]byte(token))
		return &UserInfo{
			UserID:  "u_" + hex.EncodeToString(sum[:8]),
			KeyType: "standard",
		}, nil
	}
	return nil, errors.New("invalid bearer token")
}
