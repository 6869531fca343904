package rest

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/server/storage"
)

const (
	maxUploadSize = 10 << 20
	// formMemory is how much of a multipart body stays in memory; the rest
	// spills to temp files.
	formMemory = 1 << 20
)

type form struct {
	upload *storage.Upload
	file   multipart.File
	r      *http.Request
}

// readForm parses a multipart (or urlencoded) body and opens the optional
// "file" part. Callers must close the form.
func readForm(w http.ResponseWriter, r *http.Request) (*form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	err := r.ParseMultipartForm(formMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, fmt.Errorf("%w: upload larger than %d bytes", common.ErrorValidation, maxUploadSize)
		}
		return nil, fmt.Errorf("%w: bad form: %v", common.ErrorValidation, err)
	}

	f := &form{r: r}
	if r.MultipartForm == nil {
		return f, nil
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return f, nil
		}
		return nil, fmt.Errorf("%w: bad file part: %v", common.ErrorValidation, err)
	}

	// zero-length parts carry nothing worth storing
	if hdr.Size == 0 {
		_ = file.Close()
		return f, nil
	}

	f.file = file
	f.upload = &storage.Upload{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        file,
	}
	return f, nil
}

func (f *form) close() {
	if f.file != nil {
		_ = f.file.Close()
	}
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}
