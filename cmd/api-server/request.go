package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const _dateLayout = "2006-01-02"

const _maxUploadBytes = 5 << 20 // 5MB per image

var _imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func driverIDFromRequest(r *http.Request) string {
	return chi.URLParam(r, "driverId")
}

func dutySlipIDFromRequest(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func dateQueryParams(r *http.Request, key string) (*time.Time, error) {
	val, ok := r.URL.Query().Get(key), r.URL.Query().Has(key)
	if !ok || val == "" {
		return nil, nil
	}

	t, err := time.Parse(_dateLayout, val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected YYYY-MM-DD", key)
	}

	return &t, nil
}

func optionalStringQueryParams(r *http.Request, key string) *string {
	val, ok := r.URL.Query().Get(key), r.URL.Query().Has(key)
	if !ok || val == "" {
		return nil
	}

	ref := new(string)
	*ref = val
	return ref
}

func optionalFloatFormValue(r *http.Request, key string) (*float64, error) {
	val := strings.TrimSpace(r.FormValue(key))
	if val == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected a number", key)
	}

	ref := new(float64)
	*ref = f
	return ref, nil
}

func floatFormValue(r *http.Request, key string, def float64) (float64, error) {
	ref, err := optionalFloatFormValue(r, key)
	if err != nil {
		return 0, err
	}
	if ref == nil {
		return def, nil
	}
	return *ref, nil
}

type uploadedImage struct {
	Data     []byte
	Ext      string
	Filename string
}

// imageFormFile reads one multipart image, enforcing the size cap and the
// JPEG/PNG/WebP allow-list. Returns nil when the field is absent.
func imageFormFile(r *http.Request, field string) (*uploadedImage, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	if header.Size > _maxUploadBytes {
		return nil, fmt.Errorf("%s exceeds the 5MB upload limit", field)
	}

	data, err := io.ReadAll(io.LimitReader(file, _maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > _maxUploadBytes {
		return nil, fmt.Errorf("%s exceeds the 5MB upload limit", field)
	}

	contentType := http.DetectContentType(data)
	ext, ok := _imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%s must be a JPEG, PNG or WebP image", field)
	}

	return &uploadedImage{Data: data, Ext: ext, Filename: header.Filename}, nil
}

func isMultipart(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "multipart/form-data")
}
