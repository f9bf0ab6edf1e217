package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/pkg/api"
)

var validate = validator.New()

// issueToken exchanges a wallet address for a bearer token. Ownership of the
// address is proven at the wallet bridge when a transaction is signed, not
// here.
func issueToken(r *http.Request) (*httpx.Response, error) {
	req := &api.TokenReq{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, httpx.ErrInvalidRequest(err.Error())
	}
	token, expiry, err := IssueToken(req.Address)
	if err != nil {
		return nil, httpx.ErrApplicationError("unable to issue token")
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   &api.TokenRsp{Token: token, ExpiresAt: expiry},
	}, nil
}

// Router serves the unauthenticated token endpoint.
func Router(r chi.Router) chi.Router {
	router := chi.NewRouter()
	router.Method(http.MethodPost, "/token", httpx.WrapHttpRsp(issueToken))
	return router
}
