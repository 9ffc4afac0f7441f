package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// MaxJSONBodyBytes bounds the size of JSON request bodies.
const MaxJSONBodyBytes = 1 << 20

var (
	// ErrMissingFile is returned when a multipart request lacks the expected file part.
	ErrMissingFile = errors.New("missing file")

	// ErrFileTooLarge is returned when an uploaded file exceeds its size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Global validator instance for reuse
var validate = validator.New()

// DecodeJSON decodes the request body into the given struct. Bodies over
// MaxJSONBodyBytes and trailing data are rejected.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxJSONBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	// Check if the object implements the Validate interface
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}

	// Otherwise, use the struct validator
	return validate.Struct(v)
}

// UploadedFile is a file read from a multipart form.
type UploadedFile struct {
	Data     []byte
	Filename string
	// MIMEType is detected from the content, not taken from the client.
	MIMEType string
}

// ReadFormFile parses a multipart request and reads the named file part,
// rejecting files larger than maxBytes.
func ReadFormFile(r *http.Request, field string, maxBytes int64) (*UploadedFile, error) {
	if r.MultipartForm == nil {
		// Leave headroom for the non-file form fields.
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes+MaxJSONBodyBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
			}
			return nil, fmt.Errorf("invalid multipart form: %w", err)
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, field)
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMissingFile, field)
	}

	return &UploadedFile{
		Data:     data,
		Filename: header.Filename,
		MIMEType: mimetype.Detect(data).String(),
	}, nil
}
