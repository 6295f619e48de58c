package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/validation"
)

const (
	cleanupListLimit  = 1000
	cleanupBatchLimit = 100
)

type CreateSubdomainRequest struct {
	Subdomain string `json:"subdomain" form:"subdomain" validate:"required"`
	Icon      string `json:"icon" form:"icon" validate:"required"`
}

type SaveProjectRequest struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Name        string     `json:"name" validate:"required,max=200"`
	Slug        string     `json:"slug" validate:"required,max=63"`
	Headline    *string    `json:"headline" validate:"omitempty,max=300"`
	Description *string    `json:"description" validate:"omitempty,max=20000"`
	HeroURL     *string    `json:"hero_url" validate:"omitempty,url"`
	Published   bool       `json:"published"`
	Icon        *string    `json:"icon" validate:"omitempty,icon"`
}

type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

// CreatedSubdomain is returned after a quick create.
type CreatedSubdomain struct {
	Project *models.Project `json:"project"`
	URL     string          `json:"url"`
}

type ProjectService struct {
	cfg      config.AppConfig
	projects ProjectStore
	domains  DomainStore
	objects  ObjectStore
	notifier Notifier
	inv      invalidator
	logger   zerolog.Logger
}

func NewProjectService(d Deps) *ProjectService {
	return &ProjectService{
		cfg:      d.Config,
		projects: d.Projects,
		domains:  d.Domains,
		objects:  d.Objects,
		notifier: d.Notifier,
		inv:      newInvalidator(d, "projects"),
		logger:   log.With().Str("service", "projects").Logger(),
	}
}

// CreateSubdomain creates an unpublished project named after the subdomain
// with its primary hostname.
func (s *ProjectService) CreateSubdomain(ctx context.Context, req CreateSubdomainRequest) (*CreatedSubdomain, error) {
	if !validation.ValidIcon(req.Icon) {
		return nil, errs.NewValidationError("icon", "Please enter a valid emoji (maximum 10 characters)")
	}
	slug, err := validation.CheckSlug(req.Subdomain, s.cfg.ReservedSubdomains)
	if err != nil {
		return nil, err
	}
	hostname, err := s.hostname(slug)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, slug, hostname); err != nil {
		return nil, err
	}

	project := &models.Project{
		Slug:   slug,
		Name:   validation.DisplayName(slug),
		Config: datatypes.NewJSONType(models.ProjectConfig{Emoji: req.Icon}),
	}
	if err := s.projects.CreateWithDomain(ctx, project, hostname); err != nil {
		return nil, mapCreateError(err, slug)
	}

	s.logger.Info().Str("slug", slug).Str("projectID", project.ID.String()).Msg("subdomain created")
	s.inv.hosts(ctx, hostname)
	return &CreatedSubdomain{Project: project, URL: s.cfg.ProjectURL(slug)}, nil
}

// hostname is the primary domain row written for slug.
func (s *ProjectService) hostname(slug string) (string, error) {
	return validation.NormalizeHostname(s.cfg.ProjectHost(slug))
}

// ensureAvailable checks the slug and hostname concurrently. The insert still
// maps a unique violation to the same error for the race between the two.
func (s *ProjectService) ensureAvailable(ctx context.Context, slug, hostname string) error {
	var slugTaken, hostTaken bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		slugTaken, err = s.projects.SlugExists(gctx, slug)
		return err
	})
	g.Go(func() (err error) {
		hostTaken, err = s.domains.HostnameExists(gctx, hostname)
		return err
	})
	if err := g.Wait(); err != nil {
		return errs.NewDatabaseError("check", "subdomain", err)
	}
	if slugTaken || hostTaken {
		return errs.NewSubdomainTakenError(slug)
	}
	return nil
}

// SaveProject creates a project when req.ID is nil and updates it otherwise.
// Changing the slug moves the primary hostname along with it.
func (s *ProjectService) SaveProject(ctx context.Context, req SaveProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.NewValidationError("name", "NAME_REQUIRED")
	}
	slug, err := validation.CheckSlug(strings.TrimSpace(req.Slug), s.cfg.ReservedSubdomains)
	if err != nil {
		return nil, err
	}

	if req.ID == nil {
		return s.createProject(ctx, name, slug, req)
	}
	return s.updateProject(ctx, *req.ID, name, slug, req)
}

func (s *ProjectService) createProject(ctx context.Context, name, slug string, req SaveProjectRequest) (*models.Project, error) {
	hostname, err := s.hostname(slug)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, slug, hostname); err != nil {
		return nil, err
	}

	project := &models.Project{
		Slug:        slug,
		Name:        name,
		Headline:    req.Headline,
		Description: req.Description,
		HeroURL:     req.HeroURL,
		Published:   req.Published,
	}
	if req.Icon != nil {
		project.Config = datatypes.NewJSONType(models.ProjectConfig{Emoji: *req.Icon})
	}
	if err := s.projects.CreateWithDomain(ctx, project, hostname); err != nil {
		return nil, mapCreateError(err, slug)
	}

	s.logger.Info().Str("slug", slug).Str("projectID", project.ID.String()).Msg("project created")
	s.inv.hosts(ctx, hostname)
	return project, nil
}

func (s *ProjectService) updateProject(ctx context.Context, id uuid.UUID, name, slug string, req SaveProjectRequest) (*models.Project, error) {
	current, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	oldHosts, err := s.domains.Hostnames(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("projectID", id.String()).Msg("could not load hostnames before update")
		oldHosts = []string{s.cfg.ProjectHost(current.Slug)}
	}

	var newHostname string
	if slug != current.Slug {
		newHostname, err = s.hostname(slug)
		if err != nil {
			return nil, err
		}
		if err := s.ensureAvailable(ctx, slug, newHostname); err != nil {
			return nil, err
		}
	}

	current.Name = name
	current.Slug = slug
	current.Headline = req.Headline
	current.Description = req.Description
	current.HeroURL = req.HeroURL
	current.Published = req.Published
	current.UpdatedAt = time.Now()
	if req.Icon != nil {
		current.Config = datatypes.NewJSONType(models.ProjectConfig{Emoji: *req.Icon})
	}

	if err := s.projects.Update(ctx, current, newHostname); err != nil {
		if errs.IsSubdomainTaken(err) {
			return nil, err
		}
		return nil, errs.NewDatabaseError("update", "project", err)
	}

	s.inv.hosts(ctx, append(oldHosts, s.cfg.ProjectHost(slug))...)
	return current, nil
}

func (s *ProjectService) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	if err := s.projects.SetPublished(ctx, id, published); err != nil {
		return errs.NewDatabaseError("update", "project", err)
	}
	s.inv.project(ctx, id)
	return nil
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]*models.Project, error) {
	projects, err := s.projects.FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}
	return projects, nil
}

func (s *ProjectService) GetProjectDetail(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.projects.FindDetail(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	return project, nil
}

// DeleteSubdomain deletes the project owning the given subdomain.
func (s *ProjectService) DeleteSubdomain(ctx context.Context, raw string) error {
	slug := validation.SanitizeSlug(raw)
	if !validation.ValidSlug(slug, s.cfg.ReservedSubdomains) {
		return errs.NewInvalidSubdomainError(raw)
	}

	project, err := s.projects.FindBySlug(ctx, slug)
	if err != nil {
		return errs.NewDatabaseError("find", "project", err)
	}
	if project == nil {
		return errs.NewNotFoundError("Subdomain not found")
	}
	return s.DeleteProject(ctx, project.ID)
}

// DeleteProject removes the project's objects from both buckets and then
// the row, whose children cascade. A listing failure skips the rest of that
// bucket; a removal failure aborts before any row is touched.
func (s *ProjectService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if _, err := s.projects.FindByID(ctx, id); err != nil {
		return errs.NewDatabaseError("find", "project", err)
	}
	hosts, err := s.domains.Hostnames(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("projectID", id.String()).Msg("could not load hostnames before delete")
	}

	removed := 0
	for _, bucket := range []string{s.cfg.Storage.ImageBucket, s.cfg.Storage.AssetBucket} {
		n, err := s.purgePrefix(ctx, bucket, id.String()+"/")
		removed += n
		if err != nil {
			return err
		}
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		if removed == 0 {
			return errs.NewDatabaseError("delete", "project", err)
		}
		s.logger.Error().Err(err).Str("projectID", id.String()).Int("removedObjects", removed).Msg("project row left after its objects were removed")
		notify(ctx, s.notifier, s.logger, "Orphaned project row",
			fmt.Sprintf("Project %s could not be deleted after %d stored objects were removed: %v", id, removed, err))
		return errs.NewOrphanedRowError("project", id.String(), err)
	}

	s.logger.Info().Str("projectID", id.String()).Int("removedObjects", removed).Msg("project deleted")
	s.inv.hosts(ctx, hosts...)
	return nil
}

// purgePrefix removes every object under prefix and returns how many went.
// Each removed page shifts the listing, so the first page is re-read until it
// comes back short.
func (s *ProjectService) purgePrefix(ctx context.Context, bucket, prefix string) (int, error) {
	removed := 0
	var lastFirst string
	for {
		objects, err := s.objects.List(ctx, bucket, prefix, cleanupListLimit)
		if err != nil {
			s.logger.Warn().Err(err).Str("bucket", bucket).Str("prefix", prefix).Msg("listing failed, skipping storage cleanup")
			return removed, nil
		}
		if len(objects) == 0 {
			return removed, nil
		}
		if objects[0].Key == lastFirst {
			s.logger.Warn().Str("bucket", bucket).Str("prefix", prefix).Msg("objects still listed after removal, stopping storage cleanup")
			return removed, nil
		}
		lastFirst = objects[0].Key

		keys := make([]string, 0, len(objects))
		for _, o := range objects {
			keys = append(keys, o.Key)
		}
		for start := 0; start < len(keys); start += cleanupBatchLimit {
			end := min(start+cleanupBatchLimit, len(keys))
			if err := s.objects.Remove(ctx, bucket, keys[start:end]); err != nil {
				return removed, errs.NewStorageError("remove", err)
			}
			removed += end - start
		}

		if len(objects) < cleanupListLimit {
			return removed, nil
		}
	}
}

func mapCreateError(err error, slug string) error {
	if errs.IsSubdomainTaken(err) {
		return err
	}
	if errs.IsUniqueViolation(err) {
		return errs.NewSubdomainTakenError(slug).WithCause(err)
	}
	return errs.NewDatabaseError("create", "project", err)
}
