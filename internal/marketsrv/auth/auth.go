// Package auth issues and verifies the bearer tokens that bind API calls to
// a wallet address. The address is the authorization key for every content
// mutation and the buyer identity on purchases.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/internal/marketsrv/config"
)

const tokenValidity = 24 * time.Hour

type ctxAddressKeyType string

const ctxAddressKey ctxAddressKeyType = "VeristreamAddress"

// UserAddress returns the wallet address of the authenticated caller, or ""
// for unauthenticated requests.
func UserAddress(ctx context.Context) string {
	addr, _ := ctx.Value(ctxAddressKey).(string)
	return addr
}

// WithAddress binds an address to the context. Exposed for tests.
func WithAddress(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ctxAddressKey, addr)
}

type addressClaims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
}

// IssueToken signs a bearer token for the given address.
func IssueToken(address string) (string, time.Time, error) {
	expiry := time.Now().Add(tokenValidity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, addressClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Address: address,
	})
	signed, err := token.SignedString([]byte(config.Config().Server.AuthSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

func parseToken(tokenString string) (string, error) {
	claims := &addressClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.Config().Server.AuthSecret), nil
	})
	if err != nil {
		return "", err
	}
	return claims.Address, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's address in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			httpx.ErrUnauthorized("missing bearer token").Send(w)
			return
		}
		address, err := parseToken(tokenString)
		if err != nil || address == "" {
			log.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
			httpx.ErrUnauthorized("invalid token").Send(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAddress(r.Context(), address)))
	})
}
