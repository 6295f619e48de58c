package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testStartup = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type testFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

// requestBody builds a JSON, urlencoded or multipart body. A nil body sends
// nothing.
type requestBody struct {
	json   any
	form   url.Values
	fields map[string]string
	files  []testFile
}

func jsonBody(v any) *requestBody {
	return &requestBody{json: v}
}

func formBody(values url.Values) *requestBody {
	return &requestBody{form: values}
}

func multipartBody(fields map[string]string, files ...testFile) *requestBody {
	return &requestBody{fields: fields, files: files}
}

func (b *requestBody) build(method, target string) *http.Request {
	if b == nil {
		return httptest.NewRequest(method, target, nil)
	}

	switch {
	case b.form != nil:
		req := httptest.NewRequest(method, target, strings.NewReader(b.form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	case b.fields != nil || b.files != nil:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range b.fields {
			_ = mw.WriteField(k, v)
		}
		for _, f := range b.files {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
			h.Set("Content-Type", f.contentType)
			part, _ := mw.CreatePart(h)
			_, _ = part.Write(f.data)
		}
		_ = mw.Close()
		req := httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	default:
		raw, _ := json.Marshal(b.json)
		req := httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		return req
	}
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
