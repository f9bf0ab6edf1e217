package middleware

import (
	"net/http"

	"github.com/veristream/veristream-internal/internal/marketsrv/db"
)

// LoadDB checks a pooled connection out for the duration of the request.
func LoadDB(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := db.ConnCtx(r.Context())
		if m := db.DB(ctx); m != nil {
			defer m.Close(ctx)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
