package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProjectConfig is stored in projects.config.
type ProjectConfig struct {
	Emoji string `json:"emoji,omitempty"`
}

// DefaultEmoji is shown for projects without an icon.
const DefaultEmoji = "❓"

// Project is one microsite. Its slug determines the primary hostname.
type Project struct {
	ID          uuid.UUID                         `json:"id" gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Slug        string                            `json:"slug" gorm:"column:slug;type:text;not null;uniqueIndex:idx_projects_slug"`
	Name        string                            `json:"name" gorm:"column:name;type:text;not null"`
	Headline    *string                           `json:"headline" gorm:"column:headline;type:text"`
	Description *string                           `json:"description" gorm:"column:description;type:text"`
	HeroURL     *string                           `json:"hero_url" gorm:"column:hero_url;type:text"`
	Published   bool                              `json:"published" gorm:"column:published;not null;default:false"`
	Config      datatypes.JSONType[ProjectConfig] `json:"config" gorm:"column:config;type:jsonb;not null;default:'{}'"`
	CreatedAt   time.Time                         `json:"created_at" gorm:"column:created_at;not null;default:now()"`
	UpdatedAt   time.Time                         `json:"updated_at" gorm:"column:updated_at;not null;default:now()"`

	Domains []ProjectDomain `json:"domains,omitempty" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Images  []ProjectImage  `json:"images,omitempty" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
	Assets  []ProjectAsset  `json:"assets,omitempty" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Project) TableName() string { return "projects" }

// Emoji returns the configured icon or DefaultEmoji.
func (p Project) Emoji() string {
	if e := p.Config.Data().Emoji; e != "" {
		return e
	}
	return DefaultEmoji
}

// ProjectDomain maps a hostname to a project.
type ProjectDomain struct {
	ID        uuid.UUID `json:"id" gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID uuid.UUID `json:"project_id" gorm:"column:project_id;type:uuid;not null;index:idx_project_domains_project_id"`
	Hostname  string    `json:"hostname" gorm:"column:hostname;type:text;not null;uniqueIndex:idx_project_domains_hostname"`
	IsPrimary bool      `json:"is_primary" gorm:"column:is_primary;not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;not null;default:now()"`
}

func (ProjectDomain) TableName() string { return "project_domains" }
