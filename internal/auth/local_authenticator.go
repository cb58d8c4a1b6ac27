package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// LocalAuthenticator validates HMAC-signed tokens issued out of band with a
// shared key. Meant for single-tenant and development deployments.
type LocalAuthenticator struct {
	key []byte
}

func NewLocalAuthenticator(key []byte) (*LocalAuthenticator, error) {
	if len(key) == 0 {
		return nil, errors.New("local authentication requires a private key")
	}
	return &LocalAuthenticator{key: key}, nil
}

func (a *LocalAuthenticator) Authenticate(token string) (User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.key, nil
	})
	if err != nil {
		return User{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, errors.New("failed to parse claims")
	}

	username, _ := claims["sub"].(string)
	orgID, _ := claims["org_id"].(string)
	if username == "" || orgID == "" {
		return User{}, errors.New("token missing sub or org_id claim")
	}

	return User{
		Username:     username,
		Organization: orgID,
		Token:        parsed,
	}, nil
}

func (a *LocalAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken := r.Header.Get("Authorization")
		if accessToken == "" {
			http.Error(w, "no token provided", http.StatusUnauthorized)
			return
		}
		accessToken = strings.TrimPrefix(accessToken, "Bearer ")

		user, err := a.Authenticate(accessToken)
		if err != nil {
			zap.S().Named("auth").Debugf("failed to authenticate token: %v", err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		ctx := NewTokenContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
