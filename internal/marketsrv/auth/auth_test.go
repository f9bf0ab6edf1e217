package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veristream/veristream-internal/internal/marketsrv/config"
	"github.com/veristream/veristream-internal/pkg/api"
)

func TestIssueTokenRoundTrip(t *testing.T) {
	token, expiry, err := IssueToken("0xcafe")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiry.After(time.Now()))

	address, err := parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0xcafe", address)
}

func TestMiddleware(t *testing.T) {
	var gotAddress string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = UserAddress(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		token, _, err := IssueToken("0xcafe")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/contents", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "0xcafe", gotAddress)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/contents", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/contents", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, addressClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "0xcafe",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
			Address: "0xcafe",
		})
		signed, err := expired.SignedString([]byte(config.Config().Server.AuthSecret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/contents", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, addressClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "0xcafe",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Address: "0xcafe",
		})
		signed, err := forged.SignedString([]byte("someotherkey"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/contents", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTokenEndpoint(t *testing.T) {
	router := Router(chi.NewRouter())

	t.Run("issues token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/token",
			strings.NewReader(`{"address":"0xcafe"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var rsp api.TokenRsp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
		assert.NotEmpty(t, rsp.Token)
		assert.True(t, rsp.ExpiresAt.After(time.Now()))
	})

	t.Run("rejects missing address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
