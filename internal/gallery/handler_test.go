package gallery

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/jungyuya/gallery-uploader/internal/middleware"
	"github.com/jungyuya/gallery-uploader/internal/storage"
)

const testAdminSecret = "test-admin-secret"

// newTestRouter wires a gallery handler into a chi router the same way
// cmd/api does, backed by the given fake storage.
func newTestRouter(fs *fakeStorage) http.Handler {
	svc := NewService(fs)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Get("/images", h.List)
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.RequireAdmin(testAdminSecret))
		r.Post("/upload", h.Upload)
		r.Delete("/image/{key}", h.DeleteOne)
		r.Delete("/images/batch", h.DeleteBatch)
	})
	return r
}

type testFile struct {
	name string
	data []byte
}

// multipartBody builds a multipart request body with the given files
// under the "images" field.
func multipartBody(t *testing.T, files []testFile) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(uploadField, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpload(t *testing.T) {
	fs := &fakeStorage{}
	router := newTestRouter(fs)

	body, contentType := multipartBody(t, []testFile{
		{name: "a.jpg", data: []byte("first")},
		{name: "b.png", data: []byte("second")},
		{name: "c.gif", data: []byte("third")},
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string   `json:"message"`
		URLs    []string `json:"urls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.URLs, 3)
	for _, u := range resp.URLs {
		assert.Contains(t, u, "/gallery/")
	}
	assert.Len(t, fs.uploads, 3)
	assert.Equal(t, []byte("first"), fs.uploads[0].data)
}

func TestUploadWithoutAuth(t *testing.T) {
	fs := &fakeStorage{}
	router := newTestRouter(fs)

	body, contentType := multipartBody(t, []testFile{{name: "a.jpg", data: []byte("x")}})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong secret", "not-the-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body.Bytes()))
			req.Header.Set("Content-Type", contentType)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := doRequest(router, req)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
	assert.Zero(t, fs.calls, "storage must not be called on auth failure")
}

func TestUploadNoFiles(t *testing.T) {
	fs := &fakeStorage{}
	router := newTestRouter(fs)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fs.calls, "storage must not be called when no files are sent")
}

func TestUploadTooManyFiles(t *testing.T) {
	fs := &fakeStorage{}
	router := newTestRouter(fs)

	files := make([]testFile, maxFiles+1)
	for i := range files {
		files[i] = testFile{name: "f.jpg", data: []byte("x")}
	}
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fs.calls)
}

func TestUploadFileTooLarge(t *testing.T) {
	fs := &fakeStorage{}
	router := newTestRouter(fs)

	body, contentType := multipartBody(t, []testFile{
		{name: "big.jpg", data: bytes.Repeat([]byte("x"), maxFileSize+1)},
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fs.calls)
}

func TestUploadBackendError(t *testing.T) {
	fs := &fakeStorage{uploadErr: errors.New("boom")}
	router := newTestRouter(fs)

	body, contentType := multipartBody(t, []testFile{{name: "a.jpg", data: []byte("x")}})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom", "backend error detail must not leak")
}

func TestListImages(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	fs := &fakeStorage{objects: []storage.Object{
		{Key: "gallery/old.jpg", Size: 5, LastModified: older},
		{Key: "gallery/new.jpg", Size: 5, LastModified: newer},
		{Key: "gallery/marker/", Size: 0, LastModified: newer},
	}}
	router := newTestRouter(fs)

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/images", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var urls []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &urls))
	require.Equal(t, []string{
		"https://gallery-uploads.s3.test/gallery/new.jpg",
		"https://gallery-uploads.s3.test/gallery/old.jpg",
	}, urls)
}

func TestListImagesEmpty(t *testing.T) {
	router := newTestRouter(&fakeStorage{})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/images", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListImagesBackendError(t *testing.T) {
	router := newTestRouter(&fakeStorage{listErr: errors.New("backend down")})

	rec := doRequest(router, httptest.NewRequest(http.MethodGet, "/images", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDeleteOne(t *testing.T) {
	fs := &fakeStorage{objects: []storage.Object{
		{Key: "gallery/a.jpg", Size: 1},
	}}
	router := newTestRouter(fs)

	req := httptest.NewRequest(http.MethodDelete, "/image/a.jpg", nil)
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"gallery/a.jpg"}, fs.deleted)
}

func TestDeleteOneNotFound(t *testing.T) {
	fs := &fakeStorage{objects: []storage.Object{
		{Key: "gallery/keep.jpg", Size: 1},
	}}
	router := newTestRouter(fs)

	req := httptest.NewRequest(http.MethodDelete, "/image/missing.jpg", nil)
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, fs.deleted, "unrelated keys must not be touched")
}

func TestDeleteOneWithoutAuth(t *testing.T) {
	fs := &fakeStorage{}
	router := newTestRouter(fs)

	rec := doRequest(router, httptest.NewRequest(http.MethodDelete, "/image/a.jpg", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, fs.calls)
}

func TestDeleteBatch(t *testing.T) {
	fs := &fakeStorage{}
	router := newTestRouter(fs)

	req := httptest.NewRequest(http.MethodDelete, "/images/batch",
		strings.NewReader(`{"keys":["a.jpg","b.jpg"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Deleted []string           `json:"deleted"`
		Errors  []storage.KeyError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, resp.Deleted)
	assert.Empty(t, resp.Errors)
}

func TestDeleteBatchPartial(t *testing.T) {
	fs := &fakeStorage{batchFailures: map[string]string{
		"gallery/b.jpg": "access denied",
	}}
	router := newTestRouter(fs)

	req := httptest.NewRequest(http.MethodDelete, "/images/batch",
		strings.NewReader(`{"keys":["a.jpg","b.jpg"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	require.Equal(t, http.StatusMultiStatus, rec.Code)

	var resp struct {
		Deleted []string           `json:"deleted"`
		Errors  []storage.KeyError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a.jpg"}, resp.Deleted)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "b.jpg", resp.Errors[0].Key)
}

func TestDeleteBatchInvalidInput(t *testing.T) {
	fs := &fakeStorage{}
	router := newTestRouter(fs)

	tests := []struct {
		name string
		body string
	}{
		{"empty keys", `{"keys":[]}`},
		{"missing keys", `{}`},
		{"keys not an array", `{"keys":"a.jpg"}`},
		{"not json", `keys=a.jpg`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/images/batch", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", testAdminSecret)

			rec := doRequest(router, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Zero(t, fs.calls, "storage must not be called for invalid input")
}

func TestDeleteBatchBackendError(t *testing.T) {
	fs := &fakeStorage{batchErr: errors.New("cannot issue batch")}
	router := newTestRouter(fs)

	req := httptest.NewRequest(http.MethodDelete, "/images/batch",
		strings.NewReader(`{"keys":["a.jpg"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", testAdminSecret)

	rec := doRequest(router, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
