package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Rows returned by the read-only public procedures.

type PublicProject struct {
	ID          uuid.UUID `json:"id" gorm:"column:id"`
	Slug        string    `json:"slug" gorm:"column:slug"`
	Name        string    `json:"name" gorm:"column:name"`
	Headline    *string   `json:"headline" gorm:"column:headline"`
	Description *string   `json:"description" gorm:"column:description"`
	HeroURL     *string   `json:"hero_url" gorm:"column:hero_url"`
	Published   bool      `json:"published" gorm:"column:published"`
}

type PublicImage struct {
	ID          uuid.UUID `json:"id" gorm:"column:id"`
	StoragePath string    `json:"storage_path" gorm:"column:storage_path"`
	Alt         *string   `json:"alt" gorm:"column:alt"`
	Caption     *string   `json:"caption" gorm:"column:caption"`
	IsPrimary   bool      `json:"is_primary" gorm:"column:is_primary"`
	PinnedRank  *int      `json:"pinned_rank" gorm:"column:pinned_rank"`
	Position    int       `json:"position" gorm:"column:position"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

type TagCount struct {
	Tag   string `json:"tag" gorm:"column:tag"`
	Count int    `json:"count" gorm:"column:count"`
}

type PublicAsset struct {
	ID          uuid.UUID      `json:"id" gorm:"column:id"`
	Kind        AssetKind      `json:"kind" gorm:"column:kind"`
	Title       *string        `json:"title" gorm:"column:title"`
	Description *string        `json:"description" gorm:"column:description"`
	StoragePath *string        `json:"storage_path" gorm:"column:storage_path"`
	ExternalURL *string        `json:"external_url" gorm:"column:external_url"`
	Position    int            `json:"position" gorm:"column:position"`
	Meta        datatypes.JSON `json:"meta,omitempty" gorm:"column:meta"`
	CreatedAt   time.Time      `json:"created_at" gorm:"column:created_at"`
}
