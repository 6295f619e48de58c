package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/masterchelly/microsites/models"
)

// Position is one entry of a reorder request.
type Position struct {
	ID       uuid.UUID
	Position int
}

type ImageRepo struct {
	db *gorm.DB
}

func NewImageRepo(db *gorm.DB) *ImageRepo {
	return &ImageRepo{db}
}

func (r *ImageRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ProjectImage, error) {
	var image models.ProjectImage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// MaxPosition returns the highest position in use, or -1 for an empty gallery.
func (r *ImageRepo) MaxPosition(ctx context.Context, projectID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&models.ProjectImage{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&max).Error
	return max, err
}

func (r *ImageRepo) Add(ctx context.Context, image *models.ProjectImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *ImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProjectImage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetPrimary clears the flag on every image of the project and sets it on
// imageID, atomically.
func (r *ImageRepo) SetPrimary(ctx context.Context, projectID, imageID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectImage{}).
			Where("project_id = ? AND is_primary = ?", projectID, true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.ProjectImage{}).
			Where("id = ? AND project_id = ?", imageID, projectID).
			Update("is_primary", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SetPinnedRank stores rank, or clears it when rank is nil.
func (r *ImageRepo) SetPinnedRank(ctx context.Context, id uuid.UUID, rank *int) error {
	return r.db.WithContext(ctx).Model(&models.ProjectImage{}).
		Where("id = ?", id).
		Update("pinned_rank", rank).Error
}

func (r *ImageRepo) UpdateMeta(ctx context.Context, id uuid.UUID, alt, caption *string) error {
	return r.db.WithContext(ctx).Model(&models.ProjectImage{}).
		Where("id = ?", id).
		Updates(map[string]any{"alt": alt, "caption": caption}).Error
}

// Owners maps each existing image id to its project id.
func (r *ImageRepo) Owners(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	return owners(ctx, r.db, &models.ProjectImage{}, ids)
}

// Reorder writes every position in one transaction.
func (r *ImageRepo) Reorder(ctx context.Context, positions []Position) error {
	return reorder(ctx, r.db, &models.ProjectImage{}, positions)
}

type ownerRow struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
}

func owners(ctx context.Context, db *gorm.DB, model any, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	var rows []ownerRow
	err := db.WithContext(ctx).Model(model).
		Select("id", "project_id").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]uuid.UUID, len(rows))
	for _, row := range rows {
		out[row.ID] = row.ProjectID
	}
	return out, nil
}

func reorder(ctx context.Context, db *gorm.DB, model any, positions []Position) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range positions {
			if err := tx.Model(model).Where("id = ?", p.ID).Update("position", p.Position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
