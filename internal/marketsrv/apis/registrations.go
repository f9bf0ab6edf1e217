package apis

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/internal/marketsrv/protocol"
)

func (h *Handlers) getRegistration(r *http.Request) (*httpx.Response, error) {
	handle := chi.URLParam(r, "handle")
	snap, err := h.Registration.Status(handle)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: attemptRsp(snap)}, nil
}

func (h *Handlers) cancelRegistration(r *http.Request) (*httpx.Response, error) {
	handle := chi.URLParam(r, "handle")
	if err := h.Registration.Cancel(handle); err != nil {
		return nil, err
	}
	snap, err := h.Registration.Status(handle)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusAccepted, Response: attemptRsp(snap)}, nil
}

// resumeRegistration retries the wallet phase of a timed-out attempt. The
// response carries the handle of the fresh attempt.
func (h *Handlers) resumeRegistration(r *http.Request) (*httpx.Response, error) {
	handle := chi.URLParam(r, "handle")
	snap, err := h.Registration.Resume(r.Context(), handle)
	if err != nil {
		return nil, err
	}
	if snap.State == protocol.StateActive {
		return &httpx.Response{StatusCode: http.StatusOK, Response: attemptRsp(snap)}, nil
	}
	return &httpx.Response{
		StatusCode: http.StatusAccepted,
		Location:   "/registrations/" + snap.Handle,
		Response:   attemptRsp(snap),
	}, nil
}
