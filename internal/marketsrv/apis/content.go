package apis

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/internal/marketsrv/auth"
	"github.com/veristream/veristream-internal/internal/marketsrv/db"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/protocol"
	"github.com/veristream/veristream-internal/internal/marketsrv/registration"
	"github.com/veristream/veristream-internal/pkg/api"
	"github.com/veristream/veristream-internal/pkg/types"
)

// maxUploadMemory bounds the in-memory part of a multipart upload; larger
// files spill to disk.
const maxUploadMemory = 32 << 20

func contentIDParam(r *http.Request) (types.ContentID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contentID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrInvalidRequest("invalid content id")
	}
	return types.ContentID(id), nil
}

// createContent starts a registration: the uploaded file goes to
// content-addressed storage, the metadata to the catalog, and optionally the
// ledger phases begin in the background.
func (h *Handlers) createContent(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, httpx.ErrUnableToParseReqData()
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, httpx.ErrInvalidRequest("missing file")
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" || len(title) > 255 {
		return nil, httpx.ErrInvalidRequest("title is required")
	}
	contentType := r.FormValue("contentType")
	if contentType == "" {
		contentType = header.Header.Get("Content-Type")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	anchor, _ := strconv.ParseBool(r.FormValue("anchor"))

	snap, rerr := h.Registration.Register(ctx, registration.Request{
		Title:       title,
		Description: r.FormValue("description"),
		ContentType: contentType,
		Creator:     auth.UserAddress(ctx),
		Name:        header.Filename,
		Data:        file,
		Anchor:      anchor,
	})
	if rerr != nil {
		return nil, rerr
	}
	if snap.State == protocol.StateActive {
		return &httpx.Response{
			StatusCode: http.StatusCreated,
			Location:   fmt.Sprintf("/contents/%d", snap.ContentID),
			Response:   attemptRsp(snap),
		}, nil
	}
	return &httpx.Response{
		StatusCode: http.StatusAccepted,
		Location:   "/registrations/" + snap.Handle,
		Response:   attemptRsp(snap),
	}, nil
}

func (h *Handlers) getContent(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	id, err := contentIDParam(r)
	if err != nil {
		return nil, err
	}
	content, gerr := db.DB(ctx).GetContent(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: contentRsp(content)}, nil
}

// listContent returns the authenticated creator's records.
func (h *Handlers) listContent(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	records, err := db.DB(ctx).ListContentByCreator(ctx, auth.UserAddress(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]*api.ContentRsp, 0, len(records))
	for _, c := range records {
		out = append(out, contentRsp(c))
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: out}, nil
}

func (h *Handlers) updateContent(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	id, err := contentIDParam(r)
	if err != nil {
		return nil, err
	}
	req := &api.ContentUpdateReq{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, httpx.ErrInvalidRequest(err.Error())
	}
	upd := &models.ContentUpdate{
		Title:       req.Title,
		Description: req.Description,
		ContentType: req.ContentType,
	}
	if uerr := db.DB(ctx).UpdateContent(ctx, id, auth.UserAddress(ctx), upd); uerr != nil {
		return nil, uerr
	}
	content, gerr := db.DB(ctx).GetContent(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: contentRsp(content)}, nil
}

func (h *Handlers) deleteContent(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	id, err := contentIDParam(r)
	if err != nil {
		return nil, err
	}
	if derr := db.DB(ctx).DeleteContent(ctx, id, auth.UserAddress(ctx)); derr != nil {
		return nil, derr
	}
	return &httpx.Response{StatusCode: http.StatusNoContent}, nil
}

// anchorContent re-invokes the ledger phases for a cataloged record, e.g.
// after a wallet rejection or out-of-band timeout.
func (h *Handlers) anchorContent(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	id, err := contentIDParam(r)
	if err != nil {
		return nil, err
	}
	content, gerr := db.DB(ctx).GetContent(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	if content.CreatorAddress != auth.UserAddress(ctx) {
		return nil, httpx.ErrUnauthorized("not the content owner")
	}
	snap, aerr := h.Registration.Anchor(ctx, id)
	if aerr != nil {
		return nil, aerr
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
