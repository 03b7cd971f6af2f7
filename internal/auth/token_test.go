package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/policy"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", "edutrack", time.Hour)

	token, expires, err := issuer.Issue(7, policy.RoleTeacher)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, uint(7), claims.UserID)
	require.Equal(t, "teacher", claims.Role)
	require.Equal(t, "7", claims.Subject)
}

func TestParseRejectsBadTokens(t *testing.T) {
	issuer := NewIssuer("secret", "edutrack", time.Hour)
	token, _, err := issuer.Issue(7, policy.RoleStudent)
	require.NoError(t, err)

	_, err = NewIssuer("other", "edutrack", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewIssuer("secret", "someone-else", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewIssuer("secret", "edutrack", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(7, policy.RoleStudent)
	require.NoError(t, err)
	_, err = issuer.Parse(old)
	require.ErrorIs(t, err, ErrInvalidToken)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1, Role: "superuser", RegisteredClaims: jwt.RegisteredClaims{Issuer: "edutrack"}})
	signed, err := forged.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}
