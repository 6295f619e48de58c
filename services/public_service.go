package services

import (
	"bytes"
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/errgroup"

	"github.com/masterchelly/microsites/cache"
	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/validation"
)

// IndexEntry is one published project on the marketing page.
type IndexEntry struct {
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Headline  *string   `json:"headline"`
	HeroURL   *string   `json:"hero_url"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

type PageImage struct {
	models.PublicImage
	URL string `json:"url"`
}

type PageAsset struct {
	models.PublicAsset
	URL   string            `json:"url,omitempty"`
	Embed *validation.Embed `json:"embed,omitempty"`
}

// Page is everything a microsite renders.
type Page struct {
	Host            string               `json:"host"`
	Project         models.PublicProject `json:"project"`
	DescriptionHTML string               `json:"description_html,omitempty"`
	HeroURL         string               `json:"hero_url,omitempty"`
	Tag             string               `json:"tag,omitempty"`
	Tags            []models.TagCount    `json:"tags"`
	Images          []PageImage          `json:"images"`
	Assets          []PageAsset          `json:"assets"`
}

// SubdomainInfo is the short summary of a published subdomain.
type SubdomainInfo struct {
	Subdomain string    `json:"subdomain"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

type PublicService struct {
	cfg      config.AppConfig
	projects ProjectStore
	public   PublicStore
	objects  ObjectStore
	cache    Cache
	markdown goldmark.Markdown
	logger   zerolog.Logger
}

func NewPublicService(d Deps) *PublicService {
	return &PublicService{
		cfg:      d.Config,
		projects: d.Projects,
		public:   d.Public,
		objects:  d.Objects,
		cache:    d.Cache,
		markdown: goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		logger:   log.With().Str("service", "public").Logger(),
	}
}

// Index lists published projects, newest first.
func (s *PublicService) Index(ctx context.Context) ([]IndexEntry, error) {
	var entries []IndexEntry
	version, hit := s.cached(ctx, cache.IndexHost, "index", &entries)
	if hit {
		return entries, nil
	}

	projects, err := s.projects.FindPublished(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}
	entries = make([]IndexEntry, 0, len(projects))
	for _, p := range projects {
		entries = append(entries, IndexEntry{
			Slug:      p.Slug,
			Name:      p.Name,
			Headline:  p.Headline,
			HeroURL:   p.HeroURL,
			Emoji:     p.Emoji(),
			CreatedAt: p.CreatedAt,
			URL:       s.cfg.ProjectURL(p.Slug),
		})
	}

	s.store(ctx, cache.IndexHost, version, "index", entries)
	return entries, nil
}

// Page assembles the microsite for subdomain, optionally filtered to images
// carrying tag.
func (s *PublicService) Page(ctx context.Context, subdomain, tag string) (*Page, error) {
	host := s.cfg.ProjectHost(subdomain)
	key := "page:" + tag

	var page Page
	version, hit := s.cached(ctx, host, key, &page)
	if hit {
		return &page, nil
	}

	project, err := s.public.GetProject(ctx, host)
	if err != nil {
		return nil, errs.NewDatabaseError("load", "project", err)
	}
	if project == nil {
		return nil, errs.NewNotFound("project")
	}

	var (
		images []models.PublicImage
		tags   []models.TagCount
		assets []models.PublicAsset
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		images, err = s.public.ListImages(gctx, host, tag)
		return err
	})
	g.Go(func() (err error) {
		tags, err = s.public.ListTags(gctx, host)
		return err
	})
	g.Go(func() (err error) {
		assets, err = s.public.ListAssets(gctx, host)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errs.NewDatabaseError("load", "project page", err)
	}

	page = Page{
		Host:    host,
		Project: *project,
		Tag:     tag,
		Tags:    tags,
		Images:  s.pageImages(images),
		Assets:  s.pageAssets(assets),
	}
	if page.Tags == nil {
		page.Tags = []models.TagCount{}
	}
	if project.Description != nil {
		page.DescriptionHTML = s.render(*project.Description)
	}
	switch {
	case project.HeroURL != nil && *project.HeroURL != "":
		page.HeroURL = *project.HeroURL
	case len(page.Images) > 0:
		page.HeroURL = page.Images[0].URL
	}

	s.store(ctx, host, version, key, page)
	return &page, nil
}

// Subdomain returns the icon and creation time of a published project, or
// nil when there is none.
func (s *PublicService) Subdomain(ctx context.Context, raw string) (*SubdomainInfo, error) {
	slug := validation.SanitizeSlug(raw)
	project, err := s.projects.FindBySlug(ctx, slug)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	if project == nil || !project.Published {
		return nil, nil
	}
	return &SubdomainInfo{Subdomain: project.Slug, Emoji: project.Emoji(), CreatedAt: project.CreatedAt}, nil
}

func (s *PublicService) pageImages(rows []models.PublicImage) []PageImage {
	out := make([]PageImage, 0, len(rows))
	for _, row := range rows {
		if row.StoragePath == "" {
			continue
		}
		out = append(out, PageImage{PublicImage: row, URL: s.objects.PublicURL(s.cfg.Storage.ImageBucket, row.StoragePath)})
	}
	return out
}

func (s *PublicService) pageAssets(rows []models.PublicAsset) []PageAsset {
	out := make([]PageAsset, 0, len(rows))
	for _, row := range rows {
		asset := PageAsset{PublicAsset: row}
		switch {
		case row.StoragePath != nil && *row.StoragePath != "":
			asset.URL = s.objects.PublicURL(s.cfg.Storage.AssetBucket, *row.StoragePath)
		case row.ExternalURL != nil:
			asset.URL = *row.ExternalURL
			if embed, ok := validation.EmbedFor(*row.ExternalURL); ok {
				asset.Embed = &embed
			}
		}
		out = append(out, asset)
	}
	return out
}

func (s *PublicService) render(markdown string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
		s.logger.Warn().Err(err).Msg("description markdown could not be rendered")
		return ""
	}
	return buf.String()
}

// cached returns the host version the read was made under, or -1 when the
// cache could not be read.
func (s *PublicService) cached(ctx context.Context, host, key string, dest any) (int64, bool) {
	ok, version, err := s.cache.Get(ctx, host, key, dest)
	if err != nil {
		s.logger.Warn().Err(err).Str("host", host).Str("key", key).Msg("cache read failed")
		return -1, false
	}
	return version, ok
}

func (s *PublicService) store(ctx context.Context, host string, version int64, key string, value any) {
	if version < 0 {
		return
	}
	if err := s.cache.Set(ctx, host, version, key, value); err != nil {
		s.logger.Warn().Err(err).Str("host", host).Str("key", key).Msg("cache write failed")
	}
}
