package helpers

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenManagerIssueAndValidate(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	userID := primitive.NewObjectID()

	token, err := tm.Issue(userID.Hex(), "superadmin", "jane@example.com", "jane")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.Subject)
	assert.Equal(t, "superadmin", claims.Role)

	identity, err := IdentityFromClaims(claims)
	require.NoError(t, err)
	assert.True(t, identity.IsSuperadmin())
	assert.True(t, identity.IsOwner(userID))
}

func TestTokenManagerRejectsForeignTokens(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := other.Issue(primitive.NewObjectID().Hex(), "user", "", "")
	require.NoError(t, err)
	_, err = tm.ValidateToken(token)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   primitive.NewObjectID().Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tm.ValidateToken(signed)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: primitive.NewObjectID().Hex()},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("longenough"))
	assert.Error(t, ValidatePassword(strings.Repeat("a", MaxPasswordLength+1)))
}

func TestGeneratedSecrets(t *testing.T) {
	code, err := GenerateVerificationCode()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	token, err := GenerateResetToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
}
