package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/services"
	"github.com/masterchelly/microsites/validation"
)

const (
	maxJSONBytes      = 1 << 20
	maxMultipartBytes = 4 * validation.MaxUploadBytes
	multipartMemory   = 32 << 20

	unknownFieldPrefix = "json: unknown field "
)

// uploadFields are the multipart field names that may carry files.
var uploadFields = []string{"images", "images[]", "files", "files[]", "file"}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func isForm(r *http.Request) bool {
	switch mediaType(r) {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return true
	}
	return false
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched;
// keys dst does not declare are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &maxErr):
		return errs.NewMaxBodySizeExceededError(maxErr.Limit)
	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		field := strings.Trim(strings.TrimPrefix(err.Error(), unknownFieldPrefix), `"`)
		return errs.NewInvalidFieldError(field, "is not a known field")
	default:
		return errs.NewInvalidJSONError(err)
	}
}

// decodeBody accepts JSON or a form post. For forms, fill copies the parsed
// values into the request struct and reports values it cannot convert.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, fill func(url.Values) error) error {
	if !isForm(r) {
		return decodeJSON(w, r, dst)
	}
	if err := parseForm(w, r); err != nil {
		return err
	}
	return fill(r.Form)
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	if mediaType(r) == "multipart/form-data" {
		return parseMultipart(w, r)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := r.ParseForm(); err != nil {
		return errs.Malformed("form").WithCause(err)
	}
	return nil
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	if mediaType(r) != "multipart/form-data" {
		return errs.NewUnsupportedMediaTypeError(r.Header.Get("Content-Type"), []string{"multipart/form-data"})
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewMaxBodySizeExceededError(maxErr.Limit)
		}
		return errs.Malformed("multipart form").WithCause(err)
	}
	return nil
}

// uploadedFiles reads every file part under the known upload field names.
func uploadedFiles(w http.ResponseWriter, r *http.Request) ([]services.UploadFile, error) {
	if err := parseMultipart(w, r); err != nil {
		return nil, err
	}

	var files []services.UploadFile
	for _, field := range uploadFields {
		for _, header := range r.MultipartForm.File[field] {
			file, err := readPart(header)
			if err != nil {
				return nil, err
			}
			files = append(files, file)
		}
	}
	return files, nil
}

func readPart(header *multipart.FileHeader) (services.UploadFile, error) {
	if header.Size > validation.MaxUploadBytes {
		return services.UploadFile{}, errs.NewMaxBodySizeExceededError(validation.MaxUploadBytes)
	}
	f, err := header.Open()
	if err != nil {
		return services.UploadFile{}, errs.Malformed("file").WithCause(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return services.UploadFile{}, errs.Malformed("file").WithCause(err)
	}
	return services.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError(name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError(name, "must be a UUID")
	}
	return id, nil
}

// formString is nil for an absent or blank value.
func formString(values url.Values, key string) *string {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

// formInt is nil for an absent or blank value.
func formInt(values url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errs.NewInvalidFieldError(key, "must be an integer")
	}
	return &n, nil
}

// formBool is nil for an absent or blank value. A checked checkbox posts "on".
func formBool(values url.Values, key string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(values.Get(key)))
	switch raw {
	case "":
		return nil, nil
	case "on":
		b := true
		return &b, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errs.NewInvalidFieldError(key, "must be true or false")
	}
	return &b, nil
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
