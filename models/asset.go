package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AssetKind string

const (
	AssetVideo     AssetKind = "video"
	AssetPDF       AssetKind = "pdf"
	AssetFloorplan AssetKind = "floorplan"
	AssetTour      AssetKind = "tour"
)

// IsFile reports whether assets of this kind carry an uploaded object rather
// than an external URL.
func (k AssetKind) IsFile() bool {
	return k == AssetPDF || k == AssetFloorplan
}

// ProjectAsset holds either StoragePath (pdf, floorplan) or ExternalURL
// (video, tour), never both.
type ProjectAsset struct {
	ID          uuid.UUID      `json:"id" gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid();not null"`
	ProjectID   uuid.UUID      `json:"project_id" gorm:"column:project_id;type:uuid;not null;index:idx_project_assets_project_id"`
	Kind        AssetKind      `json:"kind" gorm:"column:kind;type:text;not null"`
	Title       *string        `json:"title" gorm:"column:title;type:text"`
	Description *string        `json:"description" gorm:"column:description;type:text"`
	StoragePath *string        `json:"storage_path" gorm:"column:storage_path;type:text"`
	ExternalURL *string        `json:"external_url" gorm:"column:external_url;type:text"`
	Position    int            `json:"position" gorm:"column:position;not null;default:0"`
	Meta        datatypes.JSON `json:"meta,omitempty" gorm:"column:meta;type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"column:created_at;not null;default:now()"`
}

func (ProjectAsset) TableName() string { return "project_assets" }
