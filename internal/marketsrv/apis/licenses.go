package apis

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/internal/marketsrv/auth"
	"github.com/veristream/veristream-internal/internal/marketsrv/db"
	"github.com/veristream/veristream-internal/internal/marketsrv/licensing"
	"github.com/veristream/veristream-internal/internal/marketsrv/protocol"
	"github.com/veristream/veristream-internal/pkg/api"
	"github.com/veristream/veristream-internal/pkg/types"
)

// purchaseLicense starts a license issuance for the authenticated buyer.
func (h *Handlers) purchaseLicense(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	req := &api.LicensePurchaseReq{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, httpx.ErrInvalidRequest(err.Error())
	}
	snap, perr := h.Licensing.Purchase(ctx, licensing.Request{
		ContentID: req.ContentID,
		Duration:  req.Duration,
		Price:     req.Price,
		Buyer:     auth.UserAddress(ctx),
	})
	if perr != nil {
		return nil, perr
	}
	if snap.State == protocol.StateActive {
		return &httpx.Response{
			StatusCode: http.StatusCreated,
			Location:   "/licenses/" + strconv.FormatInt(int64(snap.LicenseID), 10),
			Response:   attemptRsp(snap),
		}, nil
	}
	return &httpx.Response{
		StatusCode: http.StatusAccepted,
		Location:   "/purchases/" + snap.Handle,
		Response:   attemptRsp(snap),
	}, nil
}

func (h *Handlers) getPurchase(r *http.Request) (*httpx.Response, error) {
	handle := chi.URLParam(r, "handle")
	snap, err := h.Licensing.Status(handle)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: attemptRsp(snap)}, nil
}

func (h *Handlers) cancelPurchase(r *http.Request) (*httpx.Response, error) {
	handle := chi.URLParam(r, "handle")
	if err := h.Licensing.Cancel(handle); err != nil {
		return nil, err
	}
	snap, err := h.Licensing.Status(handle)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusAccepted, Response: attemptRsp(snap)}, nil
}

func (h *Handlers) getLicense(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "licenseID"), 10, 64)
	if err != nil || id <= 0 {
		return nil, httpx.ErrInvalidRequest("invalid license id")
	}
	license, gerr := db.DB(ctx).GetLicense(ctx, types.LicenseID(id))
	if gerr != nil {
		return nil, gerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: licenseRsp(license)}, nil
}

// listContentLicenses returns all licenses issued against one content
// record.
func (h *Handlers) listContentLicenses(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	id, err := contentIDParam(r)
	if err != nil {
		return nil, err
	}
	records, lerr := db.DB(ctx).ListLicensesByContent(ctx, id)
	if lerr != nil {
		return nil, lerr
	}
	out := make([]*api.LicenseRsp, 0, len(records))
	for _, l := range records {
		out = append(out, licenseRsp(l))
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: out}, nil
}

// listMyLicenses returns the authenticated buyer's licenses.
func (h *Handlers) listMyLicenses(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	records, err := db.DB(ctx).ListLicensesByBuyer(ctx, auth.UserAddress(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]*api.LicenseRsp, 0, len(records))
	for _, l := range records {
		out = append(out, licenseRsp(l))
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: out}, nil
}
