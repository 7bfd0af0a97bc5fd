package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAuthorizerDevKey(t *testing.T) {
	a := NewStaticAuthorizer("")
	u, err := a.Authorize(context.Background(), LocalDevAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "copilotx-dev", u.UserID)
	assert.Equal(t, "admin", u.KeyType)
}

func TestStaticAuthorizerDerivedIdentityIsStable(t *testing.T) {
	a := NewStaticAuthorizer("")
	token := "sk_0123456789abcdef01234567"

	u1, err := a.Authorize(context.Background(), token)
	require.NoError(t, err)
	u2, err := a.Authorize(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u1.UserID, u2.UserID)
	assert.Equal(t, "standard", u1.KeyType)

	other, err := a.Authorize(context.Background(), "sk_fedcba987654321001234567")
	require.NoError(t, err)
	assert.NotEqual(t, u1.UserID, other.UserID)
}

func TestStaticAuthorizerRejectsMalformedTokens(t *testing.T) {
	a := NewStaticAuthorizer("")
	for _, token := range []string{"", "sk_short", "not-a-key-but-long-enough-anyway"} {
		_, err := a.Authorize(context.Background(), token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestExtractBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	token, err := ExtractBearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = ExtractBearerToken(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Basic abc123")
	_, err = ExtractBearerToken(r)
	assert.Error(t, err)
}

func TestRequireMiddleware(t *testing.T) {
	mw := NewMiddleware(NewStaticAuthorizer(""))

	var seen *UserInfo
	handler := mw.Require(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// No credential: 401, handler never runs.
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, seen)

	// Valid credential: identity on the context.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+LocalDevAPIKey)
	w = httptest.NewRecorder()
	handler(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "copilotx-dev", seen.UserID)
}

func TestOptionalMiddleware(t *testing.T) {
	mw := NewMiddleware(NewStaticAuthorizer(""))

	var seen *UserInfo
	called := false
	handler := mw.Optional(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = UserFromContext(r.Context())
	})

	// Anonymous requests pass through with no user.
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Nil(t, seen)

	// Bad credentials are treated as anonymous, not rejected.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer bogus")
	handler(httptest.NewRecorder(), r)
	assert.Nil(t, seen)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+LocalDevAPIKey)
	handler(httptest.NewRecorder(), r)
	require.NotNil(t, seen)
	assert.Equal(t, "copilotx-dev", seen.UserID)
}
