// Package services holds the admin actions and public page assembly. Each
// service depends on small store interfaces so it can be tested with fakes.
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/cache"
	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/database"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/storage"
)

type ProjectStore interface {
	FindAll(ctx context.Context) ([]*models.Project, error)
	FindPublished(ctx context.Context) ([]*models.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	FindBySlug(ctx context.Context, slug string) (*models.Project, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Project, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateWithDomain(ctx context.Context, project *models.Project, hostname string) error
	Update(ctx context.Context, project *models.Project, newHostname string) error
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DomainStore interface {
	HostnameExists(ctx context.Context, hostname string) (bool, error)
	Hostnames(ctx context.Context, projectID uuid.UUID) ([]string, error)
}

type ImageStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProjectImage, error)
	MaxPosition(ctx context.Context, projectID uuid.UUID) (int, error)
	Add(ctx context.Context, image *models.ProjectImage) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetPrimary(ctx context.Context, projectID, imageID uuid.UUID) error
	SetPinnedRank(ctx context.Context, id uuid.UUID, rank *int) error
	UpdateMeta(ctx context.Context, id uuid.UUID, alt, caption *string) error
	Owners(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	Reorder(ctx context.Context, positions []database.Position) error
}

type ImageTagStore interface {
	Upsert(ctx context.Context, tags []*models.ProjectImageTag) error
	Remove(ctx context.Context, imageID uuid.UUID, tag string) error
}

type AssetStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProjectAsset, error)
	Add(ctx context.Context, asset *models.ProjectAsset) error
	Delete(ctx context.Context, id uuid.UUID) error
	Owners(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	Reorder(ctx context.Context, positions []database.Position) error
}

type PublicStore interface {
	GetProject(ctx context.Context, host string) (*models.PublicProject, error)
	ListImages(ctx context.Context, host, tag string) ([]models.PublicImage, error)
	ListTags(ctx context.Context, host string) ([]models.TagCount, error)
	ListAssets(ctx context.Context, host string) ([]models.PublicAsset, error)
}

// ObjectStore is the elevated-privilege object storage client.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType, cacheControl string) error
	Remove(ctx context.Context, bucket string, keys []string) error
	List(ctx context.Context, bucket, prefix string, limit int) ([]storage.Object, error)
	PublicURL(bucket, key string) string
}

type Cache interface {
	Get(ctx context.Context, host, key string, dest any) (hit bool, version int64, err error)
	Set(ctx context.Context, host string, version int64, key string, value any) error
	Invalidate(ctx context.Context, hosts ...string) error
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Config    config.AppConfig
	Projects  ProjectStore
	Domains   DomainStore
	Images    ImageStore
	ImageTags ImageTagStore
	Assets    AssetStore
	Public    PublicStore
	Objects   ObjectStore
	Cache     Cache
	Notifier  Notifier
}

// FromDatabase fills the store fields of Deps from the repository aggregate.
func FromDatabase(db database.Database, d Deps) Deps {
	d.Projects = db.ProjectRepo()
	d.Domains = db.DomainRepo()
	d.Images = db.ImageRepo()
	d.ImageTags = db.ImageTagRepo()
	d.Assets = db.AssetRepo()
	d.Public = db.PublicRepo()
	return d
}

type Services struct {
	Projects *ProjectService
	Images   *ImageService
	Assets   *AssetService
	Public   *PublicService
}

func New(d Deps) *Services {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	return &Services{
		Projects: NewProjectService(d),
		Images:   NewImageService(d),
		Assets:   NewAssetService(d),
		Public:   NewPublicService(d),
	}
}

// invalidator drops cached public pages after a write.
type invalidator struct {
	domains DomainStore
	cache   Cache
	logger  zerolog.Logger
}

func newInvalidator(d Deps, service string) invalidator {
	return invalidator{
		domains: d.Domains,
		cache:   d.Cache,
		logger:  log.With().Str("service", service).Logger(),
	}
}

// project invalidates every hostname of projectID and the index. Failures are
// logged; a stale entry expires with its TTL.
func (inv invalidator) project(ctx context.Context, projectID uuid.UUID) {
	hosts, err := inv.domains.Hostnames(ctx, projectID)
	if err != nil {
		inv.logger.Warn().Err(err).Str("projectID", projectID.String()).Msg("could not load hostnames for cache invalidation")
	}
	inv.hosts(ctx, hosts...)
}

func (inv invalidator) hosts(ctx context.Context, hosts ...string) {
	hosts = append(hosts, cache.IndexHost)
	if err := inv.cache.Invalidate(ctx, hosts...); err != nil {
		inv.logger.Warn().Err(err).Strs("hosts", hosts).Msg("cache invalidation failed")
	}
}

// notify reports a partial failure to operators without failing the request
// a second time.
func notify(ctx context.Context, n Notifier, logger zerolog.Logger, subject, body string) {
	if err := n.Notify(context.WithoutCancel(ctx), subject, body); err != nil {
		logger.Error().Err(err).Str("subject", subject).Msg("operator notification failed")
	}
}
