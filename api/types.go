package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/masterchelly/microsites/auth"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	publicHandler  publicHandler
	authHandler    authHandler
	projectHandler projectHandler
	imageHandler   imageHandler
	assetHandler   assetHandler
	healthHandler  healthHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error" example:"This subdomain is already taken"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"subdomain"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

type ProjectActions interface {
	CreateSubdomain(ctx context.Context, req services.CreateSubdomainRequest) (*services.CreatedSubdomain, error)
	SaveProject(ctx context.Context, req services.SaveProjectRequest) (*models.Project, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	ListProjects(ctx context.Context) ([]*models.Project, error)
	GetProjectDetail(ctx context.Context, id uuid.UUID) (*models.Project, error)
	DeleteSubdomain(ctx context.Context, raw string) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

type ImageActions interface {
	Upload(ctx context.Context, projectID uuid.UUID, files []services.UploadFile) ([]*models.ProjectImage, error)
	Delete(ctx context.Context, imageID uuid.UUID) error
	SetPrimary(ctx context.Context, imageID uuid.UUID) error
	SetPinnedRank(ctx context.Context, imageID uuid.UUID, req services.PinRequest) error
	UpdateMeta(ctx context.Context, imageID uuid.UUID, req services.MetaRequest) error
	AddTags(ctx context.Context, imageID uuid.UUID, req services.TagsRequest) ([]string, error)
	RemoveTag(ctx context.Context, imageID uuid.UUID, tag string) error
	Reorder(ctx context.Context, projectID uuid.UUID, req services.ReorderRequest) error
}

type AssetActions interface {
	CreateFiles(ctx context.Context, projectID uuid.UUID, req services.FileAssetRequest, files []services.UploadFile) ([]*models.ProjectAsset, error)
	CreateURL(ctx context.Context, projectID uuid.UUID, req services.URLAssetRequest) (*models.ProjectAsset, error)
	Delete(ctx context.Context, assetID uuid.UUID) error
	Reorder(ctx context.Context, projectID uuid.UUID, req services.ReorderRequest) error
}

type PublicReads interface {
	Index(ctx context.Context) ([]services.IndexEntry, error)
	Page(ctx context.Context, subdomain, tag string) (*services.Page, error)
}

// AuthProvider is the hosted identity service.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

type TokenVerifier interface {
	Verify(token string) (auth.User, error)
}

type AdminGate interface {
	Require(ctx context.Context, user auth.User) error
	MaySignUp(email string) bool
	Enroll(ctx context.Context, user auth.User) error
}

// RequestValidator checks decoded request structs.
type RequestValidator interface {
	Struct(s any) error
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
