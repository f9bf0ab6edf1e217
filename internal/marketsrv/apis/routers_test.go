package apis

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veristream/veristream-internal/internal/common/httpx"
	"github.com/veristream/veristream-internal/internal/marketsrv/auth"
	"github.com/veristream/veristream-internal/internal/marketsrv/db"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/licensing"
	"github.com/veristream/veristream-internal/internal/marketsrv/registration"
	"github.com/veristream/veristream-internal/internal/marketsrv/testutil"
	"github.com/veristream/veristream-internal/pkg/api"
)

const testAddress = "0xcafe"

type testEnv struct {
	router chi.Router
	cat    *testutil.FakeCatalog
	store  *testutil.FakeStore
	ledger *testutil.FakeLedger
}

// newTestEnv wires the route table to fakes. The injected middleware stands
// in for the auth and connection middleware of the real server.
func newTestEnv(t *testing.T, anchoring bool) *testEnv {
	t.Helper()

	cat := testutil.NewFakeCatalog()
	store := &testutil.FakeStore{Hash: "Qm123"}
	lc := &testutil.FakeLedger{}
	opts := registration.Options{
		AnchoringEnabled: anchoring,
		WalletTimeout:    time.Second,
		ConfirmTimeout:   time.Second,
		PollInterval:     time.Millisecond,
	}
	h := &Handlers{
		Registration: registration.New(cat, store, lc, &testutil.FakeSigner{}, opts),
		Licensing: licensing.New(cat, lc, &testutil.FakeSigner{}, licensing.Options{
			AnchoringEnabled: anchoring,
			WalletTimeout:    time.Second,
			ConfirmTimeout:   time.Second,
			PollInterval:     time.Millisecond,
		}),
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := db.WithCatalog(r.Context(), cat)
			ctx = auth.WithAddress(ctx, testAddress)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	for _, handler := range h.routes() {
		router.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}

	return &testEnv{router: router, cat: cat, store: store, ledger: lc}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func uploadForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "sunset.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("bytes"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeAttempt(t *testing.T, rec *httptest.ResponseRecorder) api.RegistrationRsp {
	t.Helper()
	var rsp api.RegistrationRsp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	return rsp
}

func TestCreateContentWithoutAnchoring(t *testing.T) {
	env := newTestEnv(t, false)

	body, contentType := uploadForm(t, map[string]string{
		"title":       "Sunset Timelapse",
		"description": "4k timelapse",
		"contentType": "video/mp4",
	})
	rec := env.do(t, http.MethodPost, "/contents", body, contentType)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/contents/1", rec.Header().Get("Location"))
	rsp := decodeAttempt(t, rec)
	assert.Equal(t, "ACTIVE", rsp.State)
	assert.Equal(t, 100, rsp.Progress)
	assert.EqualValues(t, 1, rsp.ContentID)

	rec = env.do(t, http.MethodGet, "/contents/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var content api.ContentRsp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
	assert.Equal(t, "Sunset Timelapse", content.Title)
	assert.Equal(t, "Qm123", content.StorageHash)
	assert.Equal(t, testAddress, content.Creator)
	assert.True(t, content.IsActive)

	rec = env.do(t, http.MethodGet, "/contents", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing []api.ContentRsp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Len(t, listing, 1)
}

func TestCreateContentAnchored(t *testing.T) {
	env := newTestEnv(t, true)
	env.ledger.ScriptConfirmed("ContentRegistered", 42)

	body, contentType := uploadForm(t, map[string]string{
		"title":  "Sunset Timelapse",
		"anchor": "true",
	})
	rec := env.do(t, http.MethodPost, "/contents", body, contentType)

	require.Equal(t, http.StatusAccepted, rec.Code)
	rsp := decodeAttempt(t, rec)
	require.NotEmpty(t, rsp.Handle)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/registrations/"))

	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/registrations/"+rsp.Handle, nil, "")
		if rec.Code != http.StatusOK {
			return false
		}
		return decodeAttempt(t, rec).State == "ACTIVE"
	}, time.Second, 5*time.Millisecond)

	rec = env.do(t, http.MethodGet, "/contents/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var content api.ContentRsp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
	assert.EqualValues(t, 42, content.LedgerID)
	assert.True(t, content.IsActive)
}

func TestCreateContentValidation(t *testing.T) {
	env := newTestEnv(t, false)

	body, contentType := uploadForm(t, map[string]string{})
	rec := env.do(t, http.MethodPost, "/contents", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/contents", strings.NewReader("not a form"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteContent(t *testing.T) {
	env := newTestEnv(t, false)
	env.cat.SeedContent(&models.Content{
		Title:          "Old Title",
		ContentType:    "video/mp4",
		StorageHash:    "Qm123",
		CreatorAddress: testAddress,
		IsActive:       true,
	})

	rec := env.do(t, http.MethodPut, "/contents/1",
		strings.NewReader(`{"title":"New Title"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var content api.ContentRsp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
	assert.Equal(t, "New Title", content.Title)

	rec = env.do(t, http.MethodDelete, "/contents/1", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/contents/1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteContentWithActiveLicenses(t *testing.T) {
	env := newTestEnv(t, false)
	id := env.cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		ContentType:    "video/mp4",
		StorageHash:    "Qm123",
		CreatorAddress: testAddress,
		IsActive:       true,
	})

	payload := `{"contentId":` + "1" + `,"duration":1,"price":"19.99"}`
	rec := env.do(t, http.MethodPost, "/licenses", strings.NewReader(payload), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/contents/1", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	got, err := env.cat.GetContent(context.Background(), id)
	require.Nil(t, err)
	assert.True(t, got.IsActive)
}

func TestAnchorContentOwnership(t *testing.T) {
	env := newTestEnv(t, true)
	env.cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		ContentType:    "video/mp4",
		StorageHash:    "Qm123",
		CreatorAddress: "0xsomeoneelse",
		IsActive:       false,
	})

	rec := env.do(t, http.MethodPost, "/contents/1/anchor", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPurchaseLicenseFlow(t *testing.T) {
	env := newTestEnv(t, false)
	env.cat.SeedContent(&models.Content{
		Title:          "Sunset Timelapse",
		ContentType:    "video/mp4",
		StorageHash:    "Qm123",
		CreatorAddress: "0xcreator",
		IsActive:       true,
	})

	payload := `{"contentId":1,"duration":2,"price":"99.00"}`
	rec := env.do(t, http.MethodPost, "/licenses", strings.NewReader(payload), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/licenses/1", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/licenses/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var license api.LicenseRsp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &license))
	assert.Equal(t, testAddress, license.Buyer)
	assert.Equal(t, "1 Year", license.Term)
	assert.True(t, license.IsActive)

	rec = env.do(t, http.MethodGet, "/licenses", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []api.LicenseRsp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rec = env.do(t, http.MethodGet, "/contents/1/licenses", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var issued []api.LicenseRsp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	assert.Len(t, issued, 1)
}

func TestPurchaseLicenseValidation(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/licenses",
		strings.NewReader(`{"duration":1,"price":"19.99"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/licenses",
		strings.NewReader(`{"contentId":999,"duration":1,"price":"19.99"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRegistrationUnknownHandle(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/registrations/nosuchhandle", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
