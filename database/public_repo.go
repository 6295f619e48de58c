package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/masterchelly/microsites/models"
)

// PublicRepo calls the read-only procedures behind public microsites. Reads
// go to the replica when one is registered.
type PublicRepo struct {
	db *gorm.DB
}

func NewPublicRepo(db *gorm.DB) *PublicRepo {
	return &PublicRepo{db}
}

func (r *PublicRepo) read(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetProject returns nil without error when host has no published project.
func (r *PublicRepo) GetProject(ctx context.Context, host string) (*models.PublicProject, error) {
	var rows []models.PublicProject
	if err := r.read(ctx).Raw("SELECT * FROM get_public_project(?)", host).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListImages filters by tag when tag is non-empty.
func (r *PublicRepo) ListImages(ctx context.Context, host, tag string) ([]models.PublicImage, error) {
	var pTag *string
	if tag != "" {
		pTag = &tag
	}
	var rows []models.PublicImage
	err := r.read(ctx).Raw("SELECT * FROM list_public_images_by_host_tag(?, ?)", host, pTag).Scan(&rows).Error
	return rows, err
}

func (r *PublicRepo) ListTags(ctx context.Context, host string) ([]models.TagCount, error) {
	var rows []models.TagCount
	err := r.read(ctx).Raw("SELECT * FROM list_public_image_tags_by_host(?)", host).Scan(&rows).Error
	return rows, err
}

func (r *PublicRepo) ListAssets(ctx context.Context, host string) ([]models.PublicAsset, error) {
	var rows []models.PublicAsset
	err := r.read(ctx).Raw("SELECT * FROM list_public_assets_by_host(?)", host).Scan(&rows).Error
	return rows, err
}
