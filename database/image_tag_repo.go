package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/masterchelly/microsites/models"
)

type ImageTagRepo struct {
	db *gorm.DB
}

func NewImageTagRepo(db *gorm.DB) *ImageTagRepo {
	return &ImageTagRepo{db}
}

// Upsert inserts tags, ignoring ones the image already has.
func (r *ImageTagRepo) Upsert(ctx context.Context, tags []*models.ProjectImageTag) error {
	if len(tags) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "image_id"}, {Name: "tag"}},
			DoNothing: true,
		}).
		Create(&tags).Error
}

func (r *ImageTagRepo) Remove(ctx context.Context, imageID uuid.UUID, tag string) error {
	return r.db.WithContext(ctx).
		Where("image_id = ? AND tag = ?", imageID, tag).
		Delete(&models.ProjectImageTag{}).Error
}
