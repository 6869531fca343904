// Package storage keeps user uploads (post attachments and profile images)
// either on the local disk or in an S3-compatible bucket. Objects are
// addressed by an opaque key and published under common.FilesURLPrefix.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/filex"
	"github.com/dmitrijs2005/oakboard/internal/server/config"
	"github.com/google/uuid"
)

// Upload is a file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object is a stored file opened for reading. Callers close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type Store interface {
	Save(ctx context.Context, u Upload) (string, error)
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// New picks the S3 store when a bucket is configured and the disk store
// otherwise.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.UseS3() {
		st, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	}

	st, err := NewDiskStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// NewKey returns a unique key that still ends with the client's file name.
func NewKey(name string) string {
	return uuid.NewString() + "_" + filex.SafeName(name)
}

// ValidKey accepts only flat keys, as produced by NewKey.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`)
}

// PublicPath is the URL path under which key is served.
func PublicPath(key string) string {
	return common.FilesURLPrefix + key
}

// KeyFromPath reverses PublicPath.
func KeyFromPath(path string) (string, bool) {
	key, ok := strings.CutPrefix(path, common.FilesURLPrefix)
	if !ok || !ValidKey(key) {
		return "", false
	}
	return key, true
}

func checkKey(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: bad storage key %q", common.ErrorValidation, key)
	}
	return nil
}
