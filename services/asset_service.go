package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/validation"
)

const assetCacheControl = "31536000, immutable"

// AssetMeta is shared by file and URL assets.
type AssetMeta struct {
	Title       *string `json:"title" form:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=2000"`
	Position    *int    `json:"position" form:"position"`
}

type URLAssetRequest struct {
	Kind string `json:"kind" validate:"required,oneof=video tour"`
	URL  string `json:"url" validate:"required,embed_url"`
	AssetMeta
}

type FileAssetRequest struct {
	Kind string `json:"kind" form:"kind" validate:"required,oneof=pdf floorplan"`
	AssetMeta
}

type AssetService struct {
	cfg      config.StorageConfig
	projects ProjectStore
	assets   AssetStore
	saga     blobSaga
	inv      invalidator
	logger   zerolog.Logger
}

func NewAssetService(d Deps) *AssetService {
	logger := log.With().Str("service", "assets").Logger()
	return &AssetService{
		cfg:      d.Config.Storage,
		projects: d.Projects,
		assets:   d.Assets,
		saga:     blobSaga{objects: d.Objects, notifier: d.Notifier, logger: logger},
		inv:      newInvalidator(d, "assets"),
		logger:   logger,
	}
}

// CreateFiles stores pdf or floorplan files as assets of the project.
func (s *AssetService) CreateFiles(ctx context.Context, projectID uuid.UUID, req FileAssetRequest, files []UploadFile) ([]*models.ProjectAsset, error) {
	kind := models.AssetKind(req.Kind)
	if !kind.IsFile() {
		return nil, errs.NewValidationError("kind", "Must be one of: pdf, floorplan")
	}
	if len(files) == 0 {
		return nil, errs.NewValidationError("files", "FILE_REQUIRED")
	}
	checked := make([]validation.Upload, len(files))
	for i, f := range files {
		up, err := validation.CheckAssetUpload(req.Kind, f.ContentType, f.Data)
		if err != nil {
			return nil, err
		}
		checked[i] = up
	}

	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}

	created := make([]*models.ProjectAsset, 0, len(files))
	defer func() {
		if len(created) > 0 {
			s.inv.project(ctx, projectID)
		}
	}()

	for i, f := range files {
		key := fmt.Sprintf("%s/%s.%s", projectID, uuid.New(), checked[i].Extension)
		asset := s.newAsset(projectID, kind, req.AssetMeta)
		asset.StoragePath = &key

		err := s.saga.create(ctx, s.cfg.AssetBucket, key, f.Data, checked[i].ContentType, assetCacheControl, "asset", func() error {
			return s.assets.Add(ctx, asset)
		})
		if err != nil {
			if len(created) == 0 {
				return nil, err
			}
			return created, errs.NewPartialFailureError("upload assets", []string{f.Name}, err)
		}
		created = append(created, asset)
	}

	s.logger.Info().Str("projectID", projectID.String()).Str("kind", req.Kind).Int("count", len(created)).Msg("assets uploaded")
	return created, nil
}

// CreateURL stores a video or tour link. Only allow-listed embed hosts are
// accepted.
func (s *AssetService) CreateURL(ctx context.Context, projectID uuid.UUID, req URLAssetRequest) (*models.ProjectAsset, error) {
	kind := models.AssetKind(req.Kind)
	if kind.IsFile() || (kind != models.AssetVideo && kind != models.AssetTour) {
		return nil, errs.NewValidationError("kind", "Must be one of: video, tour")
	}
	url := strings.TrimSpace(req.URL)
	if !validation.AllowedEmbed(url) {
		return nil, errs.NewValidationError("url", "EMBED_HOST_NOT_ALLOWED")
	}

	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}

	asset := s.newAsset(projectID, kind, req.AssetMeta)
	asset.ExternalURL = &url
	if err := s.assets.Add(ctx, asset); err != nil {
		return nil, errs.NewDatabaseError("create", "asset", err)
	}

	s.inv.project(ctx, projectID)
	return asset, nil
}

func (s *AssetService) Delete(ctx context.Context, assetID uuid.UUID) error {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return errs.NewDatabaseError("find", "asset", err)
	}

	var key string
	if asset.StoragePath != nil {
		key = *asset.StoragePath
	}
	err = s.saga.destroy(ctx, s.cfg.AssetBucket, key, "asset", assetID, func() error {
		return s.assets.Delete(ctx, assetID)
	})
	if err != nil {
		return err
	}
	s.inv.project(ctx, asset.ProjectID)
	return nil
}

// Reorder writes new asset positions. Every asset must belong to projectID.
func (s *AssetService) Reorder(ctx context.Context, projectID uuid.UUID, req ReorderRequest) error {
	positions, err := checkOwnership(ctx, s.assets.Owners, projectID, req, "ASSET_PROJECT_MISMATCH")
	if err != nil {
		return err
	}
	if err := s.assets.Reorder(ctx, positions); err != nil {
		return errs.NewDatabaseError("reorder", "assets", err)
	}
	s.inv.project(ctx, projectID)
	return nil
}

func (s *AssetService) newAsset(projectID uuid.UUID, kind models.AssetKind, meta AssetMeta) *models.ProjectAsset {
	pos := 0
	if meta.Position != nil {
		pos = max(0, *meta.Position)
	}
	return &models.ProjectAsset{
		ProjectID:   projectID,
		Kind:        kind,
		Title:       trimmed(meta.Title),
		Description: trimmed(meta.Description),
		Position:    pos,
	}
}
