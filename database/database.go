package database

import (
	"gorm.io/gorm"
)

type Database struct {
	projectRepo  *ProjectRepo
	domainRepo   *DomainRepo
	imageRepo    *ImageRepo
	imageTagRepo *ImageTagRepo
	assetRepo    *AssetRepo
	userRoleRepo *UserRoleRepo
	publicRepo   *PublicRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		projectRepo:  NewProjectRepo(db),
		domainRepo:   NewDomainRepo(db),
		imageRepo:    NewImageRepo(db),
		imageTagRepo: NewImageTagRepo(db),
		assetRepo:    NewAssetRepo(db),
		userRoleRepo: NewUserRoleRepo(db),
		publicRepo:   NewPublicRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) DomainRepo() *DomainRepo {
	return d.domainRepo
}

func (d Database) ImageRepo() *ImageRepo {
	return d.imageRepo
}

func (d Database) ImageTagRepo() *ImageTagRepo {
	return d.imageTagRepo
}

func (d Database) AssetRepo() *AssetRepo {
	return d.assetRepo
}

func (d Database) UserRoleRepo() *UserRoleRepo {
	return d.userRoleRepo
}

func (d Database) PublicRepo() *PublicRepo {
	return d.publicRepo
}
