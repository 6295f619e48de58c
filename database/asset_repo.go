package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/masterchelly/microsites/models"
)

type AssetRepo struct {
	db *gorm.DB
}

func NewAssetRepo(db *gorm.DB) *AssetRepo {
	return &AssetRepo{db}
}

func (r *AssetRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ProjectAsset, error) {
	var asset models.ProjectAsset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *AssetRepo) Add(ctx context.Context, asset *models.ProjectAsset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

func (r *AssetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProjectAsset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AssetRepo) Owners(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	return owners(ctx, r.db, &models.ProjectAsset{}, ids)
}

func (r *AssetRepo) Reorder(ctx context.Context, positions []Position) error {
	return reorder(ctx, r.db, &models.ProjectAsset{}, positions)
}
