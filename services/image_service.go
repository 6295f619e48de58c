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

const imageCacheControl = "3600"

type PinRequest struct {
	Rank *int `json:"rank" validate:"omitempty,min=0"`
}

type MetaRequest struct {
	Alt     *string `json:"alt" validate:"omitempty,max=200"`
	Caption *string `json:"caption" validate:"omitempty,max=500"`
}

type TagsRequest struct {
	Tags string `json:"tags" form:"tags" validate:"required"`
}

type ImageService struct {
	cfg      config.StorageConfig
	projects ProjectStore
	images   ImageStore
	tags     ImageTagStore
	saga     blobSaga
	inv      invalidator
	logger   zerolog.Logger
}

func NewImageService(d Deps) *ImageService {
	logger := log.With().Str("service", "images").Logger()
	return &ImageService{
		cfg:      d.Config.Storage,
		projects: d.Projects,
		images:   d.Images,
		tags:     d.ImageTags,
		saga:     blobSaga{objects: d.Objects, notifier: d.Notifier, logger: logger},
		inv:      newInvalidator(d, "images"),
		logger:   logger,
	}
}

// Upload appends files to the end of the project's gallery. Every file is
// checked before the first one is stored.
func (s *ImageService) Upload(ctx context.Context, projectID uuid.UUID, files []UploadFile) ([]*models.ProjectImage, error) {
	if len(files) == 0 {
		return nil, errs.NewValidationError("images", "NO_FILES")
	}
	checked := make([]validation.Upload, len(files))
	for i, f := range files {
		up, err := validation.CheckImageUpload(f.Name, f.ContentType, f.Data)
		if err != nil {
			return nil, err
		}
		checked[i] = up
	}

	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	pos, err := s.images.MaxPosition(ctx, projectID)
	if err != nil {
		return nil, errs.NewDatabaseError("load", "image positions", err)
	}

	created := make([]*models.ProjectImage, 0, len(files))
	defer func() {
		if len(created) > 0 {
			s.inv.project(ctx, projectID)
		}
	}()

	for i, f := range files {
		pos++
		key := fmt.Sprintf("%s/%s.%s", projectID, uuid.New(), checked[i].Extension)
		image := &models.ProjectImage{ProjectID: projectID, StoragePath: key, Position: pos}

		err := s.saga.create(ctx, s.cfg.ImageBucket, key, f.Data, checked[i].ContentType, imageCacheControl, "image", func() error {
			return s.images.Add(ctx, image)
		})
		if err != nil {
			if len(created) == 0 {
				return nil, err
			}
			return created, errs.NewPartialFailureError("upload images", []string{f.Name}, err)
		}
		created = append(created, image)
	}

	s.logger.Info().Str("projectID", projectID.String()).Int("count", len(created)).Msg("images uploaded")
	return created, nil
}

func (s *ImageService) Delete(ctx context.Context, imageID uuid.UUID) error {
	image, err := s.find(ctx, imageID)
	if err != nil {
		return err
	}
	err = s.saga.destroy(ctx, s.cfg.ImageBucket, image.StoragePath, "image", imageID, func() error {
		return s.images.Delete(ctx, imageID)
	})
	if err != nil {
		return err
	}
	s.inv.project(ctx, image.ProjectID)
	return nil
}

func (s *ImageService) SetPrimary(ctx context.Context, imageID uuid.UUID) error {
	image, err := s.find(ctx, imageID)
	if err != nil {
		return err
	}
	if err := s.images.SetPrimary(ctx, image.ProjectID, imageID); err != nil {
		return errs.NewDatabaseError("update", "image", err)
	}
	s.inv.project(ctx, image.ProjectID)
	return nil
}

// SetPinnedRank pins the image at rank, or unpins it when rank is nil.
func (s *ImageService) SetPinnedRank(ctx context.Context, imageID uuid.UUID, req PinRequest) error {
	image, err := s.find(ctx, imageID)
	if err != nil {
		return err
	}
	if err := s.images.SetPinnedRank(ctx, imageID, req.Rank); err != nil {
		return errs.NewDatabaseError("update", "image", err)
	}
	s.inv.project(ctx, image.ProjectID)
	return nil
}

func (s *ImageService) UpdateMeta(ctx context.Context, imageID uuid.UUID, req MetaRequest) error {
	image, err := s.find(ctx, imageID)
	if err != nil {
		return err
	}
	if err := s.images.UpdateMeta(ctx, imageID, trimmed(req.Alt), trimmed(req.Caption)); err != nil {
		return errs.NewDatabaseError("update", "image", err)
	}
	s.inv.project(ctx, image.ProjectID)
	return nil
}

// AddTags attaches up to validation.MaxTagsPerRequest comma separated tags.
// Tags the image already has are left alone.
func (s *ImageService) AddTags(ctx context.Context, imageID uuid.UUID, req TagsRequest) ([]string, error) {
	tags := validation.ParseTags(req.Tags)
	if len(tags) == 0 {
		return nil, errs.NewValidationError("tags", "NO_TAGS")
	}
	image, err := s.find(ctx, imageID)
	if err != nil {
		return nil, err
	}

	rows := make([]*models.ProjectImageTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, &models.ProjectImageTag{ProjectID: image.ProjectID, ImageID: imageID, Tag: tag})
	}
	if err := s.tags.Upsert(ctx, rows); err != nil {
		return nil, errs.NewDatabaseError("add", "image tags", err)
	}
	s.inv.project(ctx, image.ProjectID)
	return tags, nil
}

func (s *ImageService) RemoveTag(ctx context.Context, imageID uuid.UUID, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return errs.NewValidationError("tag", "This field is required")
	}
	image, err := s.find(ctx, imageID)
	if err != nil {
		return err
	}
	if err := s.tags.Remove(ctx, imageID, tag); err != nil {
		return errs.NewDatabaseError("remove", "image tag", err)
	}
	s.inv.project(ctx, image.ProjectID)
	return nil
}

// Reorder writes new gallery positions. Every image must belong to projectID.
func (s *ImageService) Reorder(ctx context.Context, projectID uuid.UUID, req ReorderRequest) error {
	positions, err := checkOwnership(ctx, s.images.Owners, projectID, req, "IMAGE_PROJECT_MISMATCH")
	if err != nil {
		return err
	}
	if err := s.images.Reorder(ctx, positions); err != nil {
		return errs.NewDatabaseError("reorder", "images", err)
	}
	s.inv.project(ctx, projectID)
	return nil
}

func (s *ImageService) find(ctx context.Context, imageID uuid.UUID) (*models.ProjectImage, error) {
	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "image", err)
	}
	return image, nil
}

// trimmed returns nil for a nil or blank string.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
