package utils

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"etickets/internal/errs"
)

// FormFile returns the file from the first field present in a parsed
// multipart form.
func FormFile(r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range fields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, fmt.Errorf("%w: %v", errs.ErrInvalidFile, err)
		}
	}
	return nil, nil, fmt.Errorf("%w: no file in field %q", errs.ErrInvalidFile, fields[0])
}

// HasFormFile reports whether any of fields carries a file.
func HasFormFile(r *http.Request, fields ...string) bool {
	if r.MultipartForm == nil {
		return false
	}
	for _, field := range fields {
		if len(r.MultipartForm.File[field]) > 0 {
			return true
		}
	}
	return false
}
