package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/masterchelly/microsites/models"
)

type DomainRepo struct {
	db *gorm.DB
}

func NewDomainRepo(db *gorm.DB) *DomainRepo {
	return &DomainRepo{db}
}

func (r *DomainRepo) HostnameExists(ctx context.Context, hostname string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProjectDomain{}).Where("hostname = ?", hostname).Count(&count).Error
	return count > 0, err
}

// Hostnames returns every hostname attached to a project.
func (r *DomainRepo) Hostnames(ctx context.Context, projectID uuid.UUID) ([]string, error) {
	var hostnames []string
	err := r.db.WithContext(ctx).Model(&models.ProjectDomain{}).
		Where("project_id = ?", projectID).
		Order("is_primary DESC, hostname ASC").
		Pluck("hostname", &hostnames).Error
	return hostnames, err
}
