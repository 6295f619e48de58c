package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/masterchelly/microsites/auth"
	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/services"
	"github.com/masterchelly/microsites/validation"
)

var errBoom = errors.New("boom")

func testConfig() config.AppConfig {
	return config.AppConfig{
		RootDomain:         "example.com",
		Protocol:           "https",
		SiteURL:            "https://example.com",
		PreviewSuffixes:    []string{".vercel.app"},
		ReservedSubdomains: config.ReservedSubdomains,
		CookieSecure:       true,
		Server: config.ServerConfig{
			Port:            8080,
			AcceptedOrigins: []string{"https://example.com"},
		},
	}
}

type fakeProjects struct {
	created    *services.CreateSubdomainRequest
	createErr  error
	saved      *services.SaveProjectRequest
	published  map[uuid.UUID]bool
	deleted    []uuid.UUID
	deletedSub []string
	list       []*models.Project
	detail     map[uuid.UUID]*models.Project
}

func (f *fakeProjects) CreateSubdomain(_ context.Context, req services.CreateSubdomainRequest) (*services.CreatedSubdomain, error) {
	f.created = &req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &services.CreatedSubdomain{
		Project: &models.Project{ID: uuid.New(), Slug: req.Subdomain, Name: validation.DisplayName(req.Subdomain)},
		URL:     "https://" + req.Subdomain + ".example.com",
	}, nil
}

func (f *fakeProjects) SaveProject(_ context.Context, req services.SaveProjectRequest) (*models.Project, error) {
	f.saved = &req
	id := uuid.New()
	if req.ID != nil {
		id = *req.ID
	}
	return &models.Project{ID: id, Slug: req.Slug, Name: req.Name}, nil
}

func (f *fakeProjects) SetPublished(_ context.Context, id uuid.UUID, published bool) error {
	if f.published == nil {
		f.published = map[uuid.UUID]bool{}
	}
	f.published[id] = published
	return nil
}

func (f *fakeProjects) ListProjects(context.Context) ([]*models.Project, error) {
	return f.list, nil
}

func (f *fakeProjects) GetProjectDetail(_ context.Context, id uuid.UUID) (*models.Project, error) {
	if p, ok := f.detail[id]; ok {
		return p, nil
	}
	return nil, errs.NewNotFound("project")
}

func (f *fakeProjects) DeleteSubdomain(_ context.Context, raw string) error {
	f.deletedSub = append(f.deletedSub, raw)
	return nil
}

func (f *fakeProjects) DeleteProject(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeImages struct {
	uploaded  []services.UploadFile
	uploadErr error
	keep      int
	reordered *services.ReorderRequest
	pinned    *services.PinRequest
	tags      *services.TagsRequest
	removed   string
	deleted   []uuid.UUID
}

func (f *fakeImages) Upload(_ context.Context, projectID uuid.UUID, files []services.UploadFile) ([]*models.ProjectImage, error) {
	f.uploaded = files
	var out []*models.ProjectImage
	for i := range files {
		if f.uploadErr != nil && i >= f.keep {
			break
		}
		out = append(out, &models.ProjectImage{ID: uuid.New(), ProjectID: projectID, Position: i})
	}
	return out, f.uploadErr
}

func (f *fakeImages) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeImages) SetPrimary(context.Context, uuid.UUID) error { return nil }

func (f *fakeImages) SetPinnedRank(_ context.Context, _ uuid.UUID, req services.PinRequest) error {
	f.pinned = &req
	return nil
}

func (f *fakeImages) UpdateMeta(context.Context, uuid.UUID, services.MetaRequest) error { return nil }

func (f *fakeImages) AddTags(_ context.Context, _ uuid.UUID, req services.TagsRequest) ([]string, error) {
	f.tags = &req
	return validation.ParseTags(req.Tags), nil
}

func (f *fakeImages) RemoveTag(_ context.Context, _ uuid.UUID, tag string) error {
	f.removed = tag
	return nil
}

func (f *fakeImages) Reorder(_ context.Context, _ uuid.UUID, req services.ReorderRequest) error {
	f.reordered = &req
	return nil
}

type fakeAssets struct {
	fileReq *services.FileAssetRequest
	files   []services.UploadFile
	urlReq  *services.URLAssetRequest
}

func (f *fakeAssets) CreateFiles(_ context.Context, projectID uuid.UUID, req services.FileAssetRequest, files []services.UploadFile) ([]*models.ProjectAsset, error) {
	f.fileReq = &req
	f.files = files
	out := make([]*models.ProjectAsset, 0, len(files))
	for range files {
		out = append(out, &models.ProjectAsset{ID: uuid.New(), ProjectID: projectID, Kind: models.AssetKind(req.Kind)})
	}
	return out, nil
}

func (f *fakeAssets) CreateURL(_ context.Context, projectID uuid.UUID, req services.URLAssetRequest) (*models.ProjectAsset, error) {
	f.urlReq = &req
	return &models.ProjectAsset{ID: uuid.New(), ProjectID: projectID, Kind: models.AssetKind(req.Kind)}, nil
}

func (f *fakeAssets) Delete(context.Context, uuid.UUID) error { return nil }

func (f *fakeAssets) Reorder(context.Context, uuid.UUID, services.ReorderRequest) error { return nil }

type fakePublic struct {
	pages   []string
	tags    []string
	missing bool
}

func (f *fakePublic) Index(context.Context) ([]services.IndexEntry, error) {
	return []services.IndexEntry{{Slug: "acme", Name: "Acme", URL: "https://acme.example.com"}}, nil
}

func (f *fakePublic) Page(_ context.Context, subdomain, tag string) (*services.Page, error) {
	f.pages = append(f.pages, subdomain)
	f.tags = append(f.tags, tag)
	if f.missing {
		return nil, errs.NewNotFound("project")
	}
	return &services.Page{Host: subdomain + ".example.com"}, nil
}

type fakeProvider struct {
	session   *auth.Session
	signInErr error
	refreshed *auth.Session
	signedOut []string
}

func (f *fakeProvider) SignInWithPassword(context.Context, string, string) (*auth.Session, error) {
	return f.session, f.signInErr
}

func (f *fakeProvider) SignUp(context.Context, string, string) (*auth.Session, error) {
	return f.session, f.signInErr
}

func (f *fakeProvider) Refresh(context.Context, string) (*auth.Session, error) {
	if f.refreshed == nil {
		return nil, errs.NewInvalidCredentialsError(errBoom)
	}
	return f.refreshed, nil
}

func (f *fakeProvider) SignOut(_ context.Context, accessToken string) error {
	f.signedOut = append(f.signedOut, accessToken)
	return nil
}

// fakeVerifier maps tokens to users; "expired" is always expired.
type fakeVerifier map[string]auth.User

func (f fakeVerifier) Verify(token string) (auth.User, error) {
	switch token {
	case "":
		return auth.User{}, errs.NewMissingTokenError()
	case "expired":
		return auth.User{}, errs.NewExpiredTokenError()
	}
	user, ok := f[token]
	if !ok {
		return auth.User{}, errs.NewInvalidTokenError()
	}
	return user, nil
}

type fakeGate struct {
	admins   []string
	enrolled []auth.User
}

func (f *fakeGate) Require(_ context.Context, user auth.User) error {
	if !slices.Contains(f.admins, user.Email) {
		return errs.NewNotAdminError()
	}
	return nil
}

func (f *fakeGate) MaySignUp(email string) bool {
	return slices.Contains(f.admins, email)
}

func (f *fakeGate) Enroll(_ context.Context, user auth.User) error {
	f.enrolled = append(f.enrolled, user)
	return nil
}

var (
	adminUser    = auth.User{ID: uuid.MustParse("7f1c8d1e-2a43-4c55-9c1d-0e4f5a6b7c8d"), Email: "owner@example.com"}
	visitorUser  = auth.User{ID: uuid.MustParse("1b2c3d4e-5f60-4718-8293-a4b5c6d7e8f9"), Email: "visitor@example.com"}
	adminSession = &auth.Session{AccessToken: "admin-token", RefreshToken: "refresh-1", ExpiresIn: 3600, User: adminUser}
)

type fixture struct {
	cfg      config.AppConfig
	projects *fakeProjects
	images   *fakeImages
	assets   *fakeAssets
	public   *fakePublic
	provider *fakeProvider
	gate     *fakeGate
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cfg:      testConfig(),
		projects: &fakeProjects{detail: map[uuid.UUID]*models.Project{}},
		images:   &fakeImages{},
		assets:   &fakeAssets{},
		public:   &fakePublic{},
		provider: &fakeProvider{},
		gate:     &fakeGate{admins: []string{adminUser.Email}},
	}
	f.handler = newRouter(Deps{
		Config:    f.cfg,
		Projects:  f.projects,
		Images:    f.images,
		Assets:    f.assets,
		Public:    f.public,
		Auth:      f.provider,
		Verifier:  fakeVerifier{"admin-token": adminUser, "visitor-token": visitorUser},
		Gate:      f.gate,
		Validator: validation.NewValidator(),
		Checks:    map[string]Pinger{},
	}, testStartup)
	return f
}

// do serves req and returns the recorded response.
func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// adminRequest targets the admin host with an admin bearer token.
func adminRequest(method, path string, body *requestBody) *http.Request {
	req := body.build(method, "http://admin.example.com"+path)
	req.Header.Set("Authorization", "Bearer admin-token")
	return req
}
