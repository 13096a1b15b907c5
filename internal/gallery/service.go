// Package gallery implements the image gallery operations on top of the
// object storage backend. Every managed key lives under the fixed
// "gallery/" prefix; keys outside it are never listed or deleted.
package gallery

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jungyuya/gallery-uploader/internal/storage"
)

// Prefix is the namespace under which all gallery objects are stored.
const Prefix = "gallery/"

// unsafeKeyChars matches everything that is stripped from uploaded
// file names before they become object keys.
var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// File is one incoming upload, already opened by the transport layer.
type File struct {
	Name        string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// BatchResult reports the outcome of a batch delete. Keys are returned
// as the client supplied them, without the namespace prefix.
type BatchResult struct {
	Deleted []string
	Errors  []storage.KeyError
}

// Service contains the gallery business logic.
type Service struct {
	store storage.Storage
	now   func() time.Time
}

// NewService creates a new gallery Service.
func NewService(store storage.Storage) *Service {
	return &Service{store: store, now: time.Now}
}

// Upload stores each file under a freshly generated key and returns the
// public URL of every stored object, in input order.
func (s *Service) Upload(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		key := objectKey(f.Name, s.now())
		if err := s.store.Upload(ctx, key, f.Reader, f.Size, f.ContentType); err != nil {
			return nil, fmt.Errorf("upload %q: %w", key, err)
		}
		urls = append(urls, s.store.PublicURL(key))
	}
	return urls, nil
}

// List returns the public URLs of all gallery objects, most recently
// modified first. Zero-byte entries are folder markers and are dropped.
// An empty gallery yields an empty slice, not an error.
func (s *Service) List(ctx context.Context) ([]string, error) {
	objects, err := s.store.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}

	kept := objects[:0]
	for _, o := range objects {
		if o.Size > 0 {
			kept = append(kept, o)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].LastModified.After(kept[j].LastModified)
	})

	urls := make([]string, 0, len(kept))
	for _, o := range kept {
		urls = append(urls, s.store.PublicURL(o.Key))
	}
	return urls, nil
}

// Delete removes a single gallery object. The key is taken relative to
// the namespace prefix. Returns storage.ErrNotFound when the object
// does not exist.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, Prefix+key); err != nil {
		return fmt.Errorf("delete %q: %w", Prefix+key, err)
	}
	return nil
}

// DeleteBatch removes all given keys (relative to the namespace prefix)
// in one backend call and reports per-key outcomes.
func (s *Service) DeleteBatch(ctx context.Context, keys []string) (*BatchResult, error) {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = Prefix + k
	}

	deleted, failed, err := s.store.DeleteMany(ctx, prefixed)
	if err != nil {
		return nil, fmt.Errorf("batch delete: %w", err)
	}

	res := &BatchResult{Deleted: make([]string, 0, len(deleted))}
	for _, k := range deleted {
		res.Deleted = append(res.Deleted, strings.TrimPrefix(k, Prefix))
	}
	for _, f := range failed {
		res.Errors = append(res.Errors, storage.KeyError{
			Key:     strings.TrimPrefix(f.Key, Prefix),
			Message: f.Message,
		})
	}
	return res, nil
}

// objectKey builds the storage key for an uploaded file:
// gallery/<unix-ms>-<sanitized-basename><ext>, extension lowercased.
func objectKey(name string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(name))
	ext = unsafeKeyChars.ReplaceAllString(ext, "")

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = unsafeKeyChars.ReplaceAllString(base, "_")
	if base == "" || base == "." {
		base = "image"
	}

	return fmt.Sprintf("%s%d-%s%s", Prefix, now.UnixMilli(), base, ext)
}
