package api

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/services"
)

func TestCreateSubdomain(t *testing.T) {
	t.Run("form post", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(adminRequest(http.MethodPost, "/subdomains", formBody(url.Values{
			"subdomain": {"acme"},
			"icon":      {"🏠"},
		})))

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, f.projects.created)
		assert.Equal(t, services.CreateSubdomainRequest{Subdomain: "acme", Icon: "🏠"}, *f.projects.created)
		assert.Equal(t, "https://acme.example.com", decodeResponse[services.CreatedSubdomain](t, rec).URL)
	})

	t.Run("missing icon", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(adminRequest(http.MethodPost, "/subdomains", jsonBody(map[string]string{"subdomain": "acme"})))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "icon", decodeResponse[ErrorResponse](t, rec).Field)
		assert.Nil(t, f.projects.created)
	})

	t.Run("taken", func(t *testing.T) {
		f := newFixture(t)
		f.projects.createErr = errs.NewSubdomainTakenError("acme")
		rec := f.do(adminRequest(http.MethodPost, "/subdomains", jsonBody(map[string]string{"subdomain": "acme", "icon": "🏠"})))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "This subdomain is already taken", decodeResponse[ErrorResponse](t, rec).Error)
	})

	t.Run("malformed json", func(t *testing.T) {
		f := newFixture(t)
		req := adminRequest(http.MethodPost, "/subdomains", nil)
		req.Body = io.NopCloser(strings.NewReader(`{"subdomain":`))
		req.Header.Set("Content-Type", "application/json")
		rec := f.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, f.projects.created)
	})
}

func TestDeleteSubdomain(t *testing.T) {
	f := newFixture(t)
	rec := f.do(adminRequest(http.MethodDelete, "/subdomains/acme", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"acme"}, f.projects.deletedSub)
}

func TestProjectCRUD(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.projects.detail[id] = &models.Project{ID: id, Slug: "acme", Name: "Acme"}

	rec := f.do(adminRequest(http.MethodPost, "/projects", jsonBody(map[string]any{"name": "Acme", "slug": "acme"})))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, f.projects.saved.ID)

	rec = f.do(adminRequest(http.MethodGet, "/projects/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acme", decodeResponse[models.Project](t, rec).Slug)

	rec = f.do(adminRequest(http.MethodPut, "/projects/"+id.String(), jsonBody(map[string]any{"name": "Acme Homes", "slug": "acme-homes"})))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.projects.saved.ID)
	assert.Equal(t, id, *f.projects.saved.ID)
	assert.Equal(t, "acme-homes", f.projects.saved.Slug)

	rec = f.do(adminRequest(http.MethodDelete, "/projects/"+id.String(), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, f.projects.deleted)
}

func TestProjectErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(adminRequest(http.MethodGet, "/projects/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(adminRequest(http.MethodGet, "/projects/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(adminRequest(http.MethodPost, "/projects", jsonBody(map[string]any{"slug": "acme"})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", decodeResponse[ErrorResponse](t, rec).Field)
	assert.Nil(t, f.projects.saved)
}

func TestPublish(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	rec := f.do(adminRequest(http.MethodPost, "/projects/"+id.String()+"/publish", jsonBody(map[string]bool{"published": true})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse[publishResponse](t, rec).Published)
	assert.Equal(t, map[uuid.UUID]bool{id: true}, f.projects.published)

	rec = f.do(adminRequest(http.MethodPost, "/projects/"+id.String()+"/publish", jsonBody(map[string]any{})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "published", decodeResponse[ErrorResponse](t, rec).Field)

	rec = f.do(adminRequest(http.MethodPost, "/projects/"+id.String()+"/publish", formBody(url.Values{"published": {"maybe"}})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "published", decodeResponse[ErrorResponse](t, rec).Field)

	rec = f.do(adminRequest(http.MethodPost, "/projects/"+id.String()+"/publish", formBody(url.Values{"published": {"off"}})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := uuid.New()
	rec = f.do(adminRequest(http.MethodPost, "/projects/"+other.String()+"/publish", formBody(url.Values{"published": {"on"}})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.projects.published[other])
}

func TestNewProjectDescriptor(t *testing.T) {
	f := newFixture(t)
	rec := f.do(adminRequest(http.MethodGet, "/projects/new", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResponse[newProjectResponse](t, rec)
	assert.Equal(t, "example.com", body.RootDomain)
	assert.Contains(t, body.Reserved, "admin")
	assert.Equal(t, models.DefaultEmoji, body.DefaultEmoji)
}

func pngFile(field, name string) testFile {
	return testFile{field: field, name: name, contentType: "image/png", data: []byte("\x89PNG\r\n\x1a\n")}
}

func TestUploadImages(t *testing.T) {
	id := uuid.New()

	t.Run("all stored", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(adminRequest(http.MethodPost, "/projects/"+id.String()+"/images",
			multipartBody(nil, pngFile("images", "a.png"), pngFile("files[]", "b.png"))))

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, f.images.uploaded, 2)
		assert.Equal(t, "a.png", f.images.uploaded[0].Name)
		assert.Equal(t, "image/png", f.images.uploaded[0].ContentType)
		assert.Len(t, decodeResponse[uploadResponse[models.ProjectImage]](t, rec).Items, 2)
	})

	t.Run("partial failure", func(t *testing.T) {
		f := newFixture(t)
		f.images.uploadErr = errs.NewPartialFailureError("upload images", []string{"b.png"}, errBoom)
		f.images.keep = 1

		rec := f.do(adminRequest(http.MethodPost, "/projects/"+id.String()+"/images",
			multipartBody(nil, pngFile("images", "a.png"), pngFile("images", "b.png"))))

		require.Equal(t, http.StatusMultiStatus, rec.Code)
		body := decodeResponse[uploadResponse[models.ProjectImage]](t, rec)
		assert.Len(t, body.Items, 1)
		require.NotNil(t, body.Failed)
		assert.Equal(t, "partial_failure", body.Failed.Field)
	})

	t.Run("not multipart", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(adminRequest(http.MethodPost, "/projects/"+id.String()+"/images", jsonBody(map[string]string{})))
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Nil(t, f.images.uploaded)
	})
}

func TestReorderImages(t *testing.T) {
	f := newFixture(t)
	projectID, imageID := uuid.New(), uuid.New()

	rec := f.do(adminRequest(http.MethodPut, "/projects/"+projectID.String()+"/images/order", jsonBody(map[string]any{
		"ordered": []map[string]any{{"id": imageID, "position": 3}},
	})))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []services.PositionRequest{{ID: imageID, Position: 3}}, f.images.reordered.Ordered)

	f.images.reordered = nil
	rec = f.do(adminRequest(http.MethodPut, "/projects/"+projectID.String()+"/images/order", jsonBody(map[string]any{"ordered": []any{}})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.images.reordered)
}

func TestImageEdits(t *testing.T) {
	f := newFixture(t)
	imageID := uuid.New().String()

	rec := f.do(adminRequest(http.MethodPut, "/images/"+imageID+"/pin", jsonBody(map[string]int{"rank": -1})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(adminRequest(http.MethodPut, "/images/"+imageID+"/pin", jsonBody(map[string]int{"rank": 2})))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, f.images.pinned.Rank)
	assert.Equal(t, 2, *f.images.pinned.Rank)

	f.images.pinned = nil
	rec = f.do(adminRequest(http.MethodPut, "/images/"+imageID+"/pin", formBody(url.Values{"rank": {"abc"}})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "rank", decodeResponse[ErrorResponse](t, rec).Field)
	assert.Nil(t, f.images.pinned)

	rec = f.do(adminRequest(http.MethodPut, "/images/"+imageID+"/pin", formBody(url.Values{"rank": {" 3 "}})))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, f.images.pinned.Rank)
	assert.Equal(t, 3, *f.images.pinned.Rank)

	f.images.pinned = nil
	rec = f.do(adminRequest(http.MethodPut, "/images/"+imageID+"/pin", jsonBody(map[string]any{"rank": 1, "ranking": 2})))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ranking", decodeResponse[ErrorResponse](t, rec).Field)
	assert.Nil(t, f.images.pinned)

	rec = f.do(adminRequest(http.MethodPost, "/images/"+imageID+"/tags", formBody(url.Values{"tags": {"Kitchen, bath"}})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kitchen, bath", f.images.tags.Tags)

	rec = f.do(adminRequest(http.MethodDelete, "/images/"+imageID+"/tags/open%20kitchen", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "open kitchen", f.images.removed)

	rec = f.do(adminRequest(http.MethodPost, "/images/"+imageID+"/primary", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(adminRequest(http.MethodDelete, "/images/"+imageID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, f.images.deleted, 1)
}

func TestAssets(t *testing.T) {
	projectID := uuid.New().String()

	t.Run("url asset", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(adminRequest(http.MethodPost, "/projects/"+projectID+"/assets/url", jsonBody(map[string]any{
			"kind":  "video",
			"url":   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"title": "Walkthrough",
		})))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, f.assets.urlReq.Title)
		assert.Equal(t, "Walkthrough", *f.assets.urlReq.Title)
	})

	t.Run("url asset rejects unknown host", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(adminRequest(http.MethodPost, "/projects/"+projectID+"/assets/url", jsonBody(map[string]any{
			"kind": "tour",
			"url":  "https://tours.example.net/abc",
		})))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "url", decodeResponse[ErrorResponse](t, rec).Field)
		assert.Nil(t, f.assets.urlReq)
	})

	t.Run("file assets", func(t *testing.T) {
		f := newFixture(t)
		pdf := testFile{field: "file", name: "brochure.pdf", contentType: "application/pdf", data: []byte("%PDF-1.7\n")}
		rec := f.do(adminRequest(http.MethodPost, "/projects/"+projectID+"/assets/files",
			multipartBody(map[string]string{"kind": "pdf", "title": "Brochure", "position": "2"}, pdf)))

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, f.assets.fileReq)
		assert.Equal(t, "pdf", f.assets.fileReq.Kind)
		assert.Equal(t, "Brochure", *f.assets.fileReq.Title)
		assert.Equal(t, 2, *f.assets.fileReq.Position)
		assert.Len(t, f.assets.files, 1)
	})

	t.Run("file asset position must be an integer", func(t *testing.T) {
		f := newFixture(t)
		pdf := testFile{field: "file", name: "brochure.pdf", contentType: "application/pdf", data: []byte("%PDF-1.7\n")}
		rec := f.do(adminRequest(http.MethodPost, "/projects/"+projectID+"/assets/files",
			multipartBody(map[string]string{"kind": "pdf", "position": "second"}, pdf)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "position", decodeResponse[ErrorResponse](t, rec).Field)
		assert.Nil(t, f.assets.fileReq)
	})

	t.Run("file asset kind", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(adminRequest(http.MethodPost, "/projects/"+projectID+"/assets/files",
			multipartBody(map[string]string{"kind": "video"}, pngFile("file", "a.png"))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "kind", decodeResponse[ErrorResponse](t, rec).Field)
	})
}
