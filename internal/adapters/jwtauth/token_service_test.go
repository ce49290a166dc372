package jwtauth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
)

const testHorizon = 7 * 24 * time.Hour

func newTestService(t *testing.T, now func() time.Time) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenServiceOptions{
		Secret:  []byte("test-secret"),
		Horizon: testHorizon,
		Now:     now,
	})
	require.NoError(t, err)
	return svc
}

func testIdentity() domainauth.Identity {
	return domainauth.Identity{
		ID:    "3c9f0a51-9a2e-4b8e-8c61-2e6cbb76f102",
		Email: "editor@berana.example",
		Role:  domainauth.RoleEditor,
	}
}

func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService(TokenServiceOptions{Horizon: time.Hour})
	assert.Error(t, err)

	_, err = NewTokenService(TokenServiceOptions{Secret: []byte("s")})
	assert.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return issued })

	token, err := svc.Issue(testIdentity())
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "3c9f0a51-9a2e-4b8e-8c61-2e6cbb76f102", claims.UserID)
	assert.Equal(t, "editor@berana.example", claims.Email)
	assert.Equal(t, domainauth.RoleEditor, claims.Role)
	assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issued.Add(testHorizon).Unix(), claims.Expiry.Unix())
}

// A token issued at T is accepted anywhere in [T, T+horizon) and rejected
// at or after T+horizon.
func TestVerify_HorizonBoundary(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	svc := newTestService(t, func() time.Time { return clock })

	token, err := svc.Issue(testIdentity())
	require.NoError(t, err)

	clock = issued.Add(testHorizon - time.Minute)
	_, err = svc.Verify(token)
	assert.NoError(t, err)

	clock = issued.Add(testHorizon + time.Minute)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_TamperedSignature(t *testing.T) {
	svc := newTestService(t, time.Now)

	token, err := svc.Issue(testIdentity())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Flip one byte of the signature segment.
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_WrongSecret(t *testing.T) {
	svc := newTestService(t, time.Now)
	other, err := NewTokenService(TokenServiceOptions{
		Secret:  []byte("different-secret"),
		Horizon: testHorizon,
	})
	require.NoError(t, err)

	token, err := svc.Issue(testIdentity())
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	svc := newTestService(t, time.Now)

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = svc.Verify("")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestIssue_RejectsUnknownRole(t *testing.T) {
	svc := newTestService(t, time.Now)

	id := testIdentity()
	id.Role = domainauth.Role("superuser")
	_, err := svc.Issue(id)
	assert.Error(t, err)
}
