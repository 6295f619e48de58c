package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// FindAll returns every project, newest first, with its domains.
func (r *ProjectRepo) FindAll(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Preload("Domains").
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// FindPublished returns published projects, newest first.
func (r *ProjectRepo) FindPublished(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindBySlug returns nil without error when no project has slug.
func (r *ProjectRepo) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindDetail loads a project with domains, ordered images and their tags,
// and ordered assets.
func (r *ProjectRepo) FindDetail(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Domains", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, hostname ASC")
		}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Preload("Images.Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tag ASC")
		}).
		Preload("Assets", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// CreateWithDomain inserts project and its primary hostname in one
// transaction. A duplicate slug or hostname comes back as
// errs.ErrSubdomainTaken.
func (r *ProjectRepo) CreateWithDomain(ctx context.Context, project *models.Project, hostname string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		domain := &models.ProjectDomain{
			ProjectID: project.ID,
			Hostname:  hostname,
			IsPrimary: true,
		}
		if err := tx.Create(domain).Error; err != nil {
			return err
		}
		project.Domains = []models.ProjectDomain{*domain}
		return nil
	})
	if errs.IsUniqueViolation(err) {
		return errs.NewSubdomainTakenError(project.Slug).WithCause(err)
	}
	return err
}

// Update writes the editable columns of project. When newHostname is set the
// primary domain moves with it in the same transaction.
func (r *ProjectRepo) Update(ctx context.Context, project *models.Project, newHostname string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ?", project.ID).
			Select("slug", "name", "headline", "description", "hero_url", "published", "config", "updated_at").
			Updates(project)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if newHostname == "" {
			return nil
		}
		return tx.Model(&models.ProjectDomain{}).
			Where("project_id = ? AND is_primary = ?", project.ID, true).
			Update("hostname", newHostname).Error
	})
	if errs.IsUniqueViolation(err) {
		return errs.NewSubdomainTakenError(project.Slug).WithCause(err)
	}
	return err
}

func (r *ProjectRepo) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]any{"published": published, "updated_at": gorm.Expr("now()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the project row. Domains, images, tags and assets cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
