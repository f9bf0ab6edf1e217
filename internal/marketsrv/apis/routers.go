package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/internal/marketsrv/auth"
	"github.com/veristream/veristream-internal/internal/marketsrv/server/middleware"
)

func (h *Handlers) routes() []httpx.ResponseHandlerParam {
	return []httpx.ResponseHandlerParam{
		{
			Method:  http.MethodPost,
			Path:    "/contents",
			Handler: h.createContent,
		},
		{
			Method:  http.MethodGet,
			Path:    "/contents",
			Handler: h.listContent,
		},
		{
			Method:  http.MethodGet,
			Path:    "/contents/{contentID}",
			Handler: h.getContent,
		},
		{
			Method:  http.MethodPut,
			Path:    "/contents/{contentID}",
			Handler: h.updateContent,
		},
		{
			Method:  http.MethodDelete,
			Path:    "/contents/{contentID}",
			Handler: h.deleteContent,
		},
		{
			Method:  http.MethodPost,
			Path:    "/contents/{contentID}/anchor",
			Handler: h.anchorContent,
		},
		{
			Method:  http.MethodGet,
			Path:    "/contents/{contentID}/licenses",
			Handler: h.listContentLicenses,
		},
		{
			Method:  http.MethodGet,
			Path:    "/registrations/{handle}",
			Handler: h.getRegistration,
		},
		{
			Method:  http.MethodPost,
			Path:    "/registrations/{handle}/cancel",
			Handler: h.cancelRegistration,
		},
		{
			Method:  http.MethodPost,
			Path:    "/registrations/{handle}/resume",
			Handler: h.resumeRegistration,
		},
		{
			Method:  http.MethodPost,
			Path:    "/licenses",
			Handler: h.purchaseLicense,
		},
		{
			Method:  http.MethodGet,
			Path:    "/licenses",
			Handler: h.listMyLicenses,
		},
		{
			Method:  http.MethodGet,
			Path:    "/licenses/{licenseID}",
			Handler: h.getLicense,
		},
		{
			Method:  http.MethodGet,
			Path:    "/purchases/{handle}",
			Handler: h.getPurchase,
		},
		{
			Method:  http.MethodPost,
			Path:    "/purchases/{handle}/cancel",
			Handler: h.cancelPurchase,
		},
	}
}

// Router serves the authenticated marketplace API.
func Router(h *Handlers) chi.Router {
	router := chi.NewRouter()
	router.Use(auth.Middleware)
	router.Use(middleware.LoadDB)
	for _, handler := range h.routes() {
		router.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
	return router
}
