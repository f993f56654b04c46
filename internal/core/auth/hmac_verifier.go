package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markdave123-py/ticketlens/internal/core"
)

// HMACVerifier validates locally signed HS256 tokens. Meant for development
// and tests where the Firebase project is not configured; the claims mirror
// the subset of the Firebase ID token the service reads.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(ctx context.Context, idToken string) (*core.Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", core.ErrUnauthorized)
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return nil, fmt.Errorf("%w: missing uid claim", core.ErrUnauthorized)
	}

	id := &core.Identity{UID: uid}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id, nil
}

// MintToken signs a development token for the given identity, valid for a day.
func (v *HMACVerifier) MintToken(id core.Identity) (string, error) {
	claims := jwt.MapClaims{
		"uid":   id.UID,
		"email": id.Email,
		"name":  id.DisplayName,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(v.secret)
}

var _ core.TokenVerifier = (*HMACVerifier)(nil)
