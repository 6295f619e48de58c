package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProjectImage struct {
	ID          uuid.UUID      `json:"id" gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID   uuid.UUID      `json:"project_id" gorm:"column:project_id;type:uuid;not null;index:idx_project_images_project_position,priority:1"`
	StoragePath string         `json:"storage_path" gorm:"column:storage_path;type:text;not null"`
	Position    int            `json:"position" gorm:"column:position;not null;default:0;index:idx_project_images_project_position,priority:2"`
	IsPrimary   bool           `json:"is_primary" gorm:"column:is_primary;not null;default:false"`
	PinnedRank  *int           `json:"pinned_rank" gorm:"column:pinned_rank"`
	Alt         *string        `json:"alt" gorm:"column:alt;type:text"`
	Caption     *string        `json:"caption" gorm:"column:caption;type:text"`
	Width       *int           `json:"width" gorm:"column:width"`
	Height      *int           `json:"height" gorm:"column:height"`
	Exif        datatypes.JSON `json:"exif,omitempty" gorm:"column:exif;type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"column:created_at;not null;default:now()"`

	Tags []ProjectImageTag `json:"tags,omitempty" gorm:"foreignKey:ImageID;references:ID;constraint:OnDelete:CASCADE"`
}

func (ProjectImage) TableName() string { return "project_images" }

// TagValues returns the image's tags in stored order.
func (i ProjectImage) TagValues() []string {
	out := make([]string, 0, len(i.Tags))
	for _, t := range i.Tags {
		out = append(out, t.Tag)
	}
	return out
}

type ProjectImageTag struct {
	ID        uuid.UUID `json:"id" gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID uuid.UUID `json:"project_id" gorm:"column:project_id;type:uuid;not null;uniqueIndex:idx_project_image_tags_unique,priority:1"`
	ImageID   uuid.UUID `json:"image_id" gorm:"column:image_id;type:uuid;not null;uniqueIndex:idx_project_image_tags_unique,priority:2"`
	Tag       string    `json:"tag" gorm:"column:tag;type:text;not null;uniqueIndex:idx_project_image_tags_unique,priority:3"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;not null;default:now()"`
}

func (ProjectImageTag) TableName() string { return "project_image_tags" }
