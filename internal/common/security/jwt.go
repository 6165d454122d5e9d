package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

// InitJWT configures the HS256 signer and verifier shared by the router
// and token issuance.
func InitJWT(secret []byte) {
	TokenAuth = jwtauth.New("HS256", secret, nil)
}

// GenerateToken issues a bearer token naming userID as the owner.
func GenerateToken(userID string, ttl time.Duration) (string, error) {
	if TokenAuth == nil {
		return "", errors.New("jwt signer not initialised")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// GetUserIDFromClaims reads the owner identity from verified claims.
func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}
