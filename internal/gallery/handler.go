package gallery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jungyuya/gallery-uploader/internal/response"
	"github.com/jungyuya/gallery-uploader/internal/storage"
)

const (
	// uploadField is the multipart form field carrying the files.
	uploadField = "images"
	maxFiles    = 10
	maxFileSize = 10 << 20 // 10 MiB per file
)

// Handler holds HTTP handlers for the gallery endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new gallery Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type uploadResponse struct {
	Message string   `json:"message"`
	URLs    []string `json:"urls"`
}

type batchDeleteRequest struct {
	Keys []string `json:"keys"`
}

type batchDeleteResponse struct {
	Message string             `json:"message"`
	Deleted []string           `json:"deleted"`
	Errors  []storage.KeyError `json:"errors,omitempty"`
}

// Upload godoc
//
//	@Summary		Upload images
//	@Description	Upload up to 10 images (10 MiB each) as multipart form field "images". Returns the public URL of every stored object.
//	@Tags			gallery
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			images	formData	file	true	"Image files"
//	@Success		200		{object}	uploadResponse
//	@Failure		400		{object}	response.Message
//	@Failure		403		{object}	response.Message
//	@Failure		500		{object}	response.Message
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFiles*maxFileSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		response.BadRequest(w, "no files uploaded")
		return
	}
	if len(headers) > maxFiles {
		response.BadRequest(w, fmt.Sprintf("too many files: limit is %d per upload", maxFiles))
		return
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxFileSize {
			response.BadRequest(w, fmt.Sprintf("file %q exceeds the %d MiB limit", fh.Filename, maxFileSize>>20))
			return
		}

		f, err := fh.Open()
		if err != nil {
			log.Printf("upload: open part %q: %v", fh.Filename, err)
			response.InternalError(w)
			return
		}
		defer f.Close()

		contentType, reader, err := partContentType(fh, f)
		if err != nil {
			log.Printf("upload: sniff part %q: %v", fh.Filename, err)
			response.InternalError(w)
			return
		}

		files = append(files, File{
			Name:        fh.Filename,
			Reader:      reader,
			Size:        fh.Size,
			ContentType: contentType,
		})
	}

	urls, err := h.svc.Upload(r.Context(), files)
	if err != nil {
		log.Printf("upload failed: %v", err)
		response.InternalError(w)
		return
	}

	response.OK(w, uploadResponse{
		Message: fmt.Sprintf("%d file(s) uploaded", len(urls)),
		URLs:    urls,
	})
}

// List godoc
//
//	@Summary		List images
//	@Description	Public URLs of every gallery image, most recently uploaded first.
//	@Tags			gallery
//	@Produce		json
//	@Success		200	{array}		string
//	@Failure		500	{object}	response.Message
//	@Router			/images [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	urls, err := h.svc.List(r.Context())
	if err != nil {
		log.Printf("list images failed: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, urls)
}

// DeleteOne godoc
//
//	@Summary		Delete one image
//	@Description	Delete the gallery object with the given key (without the "gallery/" prefix).
//	@Tags			gallery
//	@Produce		json
//	@Param			key	path		string	true	"Object key"
//	@Success		200	{object}	response.Message
//	@Failure		403	{object}	response.Message
//	@Failure		404	{object}	response.Message
//	@Failure		500	{object}	response.Message
//	@Router			/image/{key} [delete]
func (h *Handler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.svc.Delete(r.Context(), key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w, "image not found")
			return
		}
		log.Printf("delete image failed: key=%s err=%v", key, err)
		response.InternalError(w)
		return
	}

	response.OK(w, response.Message{Message: "image deleted"})
}

// DeleteBatch godoc
//
//	@Summary		Delete images in batch
//	@Description	Delete several gallery objects in one call. Mixed outcomes are reported with 207 and a per-key error list.
//	@Tags			gallery
//	@Accept			json
//	@Produce		json
//	@Param			request	body		batchDeleteRequest	true	"Keys to delete (without the gallery/ prefix)"
//	@Success		200		{object}	batchDeleteResponse
//	@Success		207		{object}	batchDeleteResponse
//	@Failure		400		{object}	response.Message
//	@Failure		403		{object}	response.Message
//	@Failure		500		{object}	response.Message
//	@Router			/images/batch [delete]
func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if len(req.Keys) == 0 {
		response.BadRequest(w, "keys must be a non-empty array")
		return
	}

	res, err := h.svc.DeleteBatch(r.Context(), req.Keys)
	if err != nil {
		log.Printf("batch delete failed: %v", err)
		response.InternalError(w)
		return
	}

	if len(res.Errors) > 0 {
		response.MultiStatus(w, batchDeleteResponse{
			Message: "some images could not be deleted",
			Deleted: res.Deleted,
			Errors:  res.Errors,
		})
		return
	}

	response.OK(w, batchDeleteResponse{
		Message: fmt.Sprintf("%d image(s) deleted", len(res.Deleted)),
		Deleted: res.Deleted,
	})
}

// partContentType resolves the content type for one multipart file:
// the declared part header wins, otherwise the first 512 bytes are
// sniffed and stitched back onto the stream.
func partContentType(fh *multipart.FileHeader, f multipart.File) (string, io.Reader, error) {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, f, nil
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	return http.DetectContentType(buf[:n]), io.MultiReader(bytes.NewReader(buf[:n]), f), nil
}
