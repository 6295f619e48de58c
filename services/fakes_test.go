package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/database"
	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/storage"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		RootDomain:         "example.com",
		Protocol:           "https",
		ReservedSubdomains: config.ReservedSubdomains,
		Storage:            config.StorageConfig{ImageBucket: "project-images", AssetBucket: "project-assets"},
	}
}

type fakeProjects struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Project
	hostnames map[uuid.UUID][]string
	createErr    error
	deleteErr    error
	hostnamesErr error
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{byID: map[uuid.UUID]*models.Project{}, hostnames: map[uuid.UUID][]string{}}
}

func (f *fakeProjects) add(p *models.Project, hostname string) *models.Project {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.byID[p.ID] = p
	f.hostnames[p.ID] = []string{hostname}
	return p
}

func (f *fakeProjects) FindAll(context.Context) ([]*models.Project, error) {
	out := make([]*models.Project, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProjects) FindPublished(ctx context.Context) ([]*models.Project, error) {
	all, _ := f.FindAll(ctx)
	out := all[:0]
	for _, p := range all {
		if p.Published {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjects) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) FindBySlug(_ context.Context, slug string) (*models.Project, error) {
	for _, p := range f.byID {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProjects) FindDetail(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeProjects) SlugExists(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProjects) HostnameExists(_ context.Context, hostname string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, hosts := range f.hostnames {
		for _, h := range hosts {
			if h == hostname {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeProjects) Hostnames(_ context.Context, projectID uuid.UUID) ([]string, error) {
	if f.hostnamesErr != nil {
		return nil, f.hostnamesErr
	}
	return append([]string(nil), f.hostnames[projectID]...), nil
}

func (f *fakeProjects) CreateWithDomain(_ context.Context, p *models.Project, hostname string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(p, hostname)
	p.Domains = []models.ProjectDomain{{ProjectID: p.ID, Hostname: hostname, IsPrimary: true}}
	return nil
}

func (f *fakeProjects) Update(_ context.Context, p *models.Project, newHostname string) error {
	if _, ok := f.byID[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	if newHostname != "" {
		f.hostnames[p.ID] = []string{newHostname}
	}
	return nil
}

func (f *fakeProjects) SetPublished(_ context.Context, id uuid.UUID, published bool) error {
	p, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Published = published
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	delete(f.hostnames, id)
	return nil
}

type fakeImages struct {
	byID      map[uuid.UUID]*models.ProjectImage
	addErr    error
	deleteErr error
	reordered []database.Position
	primary   map[uuid.UUID]uuid.UUID
}

func newFakeImages() *fakeImages {
	return &fakeImages{byID: map[uuid.UUID]*models.ProjectImage{}, primary: map[uuid.UUID]uuid.UUID{}}
}

func (f *fakeImages) FindByID(_ context.Context, id uuid.UUID) (*models.ProjectImage, error) {
	img, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return img, nil
}

func (f *fakeImages) MaxPosition(_ context.Context, projectID uuid.UUID) (int, error) {
	max := -1
	for _, img := range f.byID {
		if img.ProjectID == projectID && img.Position > max {
			max = img.Position
		}
	}
	return max, nil
}

func (f *fakeImages) Add(_ context.Context, img *models.ProjectImage) error {
	if f.addErr != nil {
		return f.addErr
	}
	img.ID = uuid.New()
	f.byID[img.ID] = img
	return nil
}

func (f *fakeImages) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeImages) SetPrimary(_ context.Context, projectID, imageID uuid.UUID) error {
	f.primary[projectID] = imageID
	return nil
}

func (f *fakeImages) SetPinnedRank(_ context.Context, id uuid.UUID, rank *int) error {
	f.byID[id].PinnedRank = rank
	return nil
}

func (f *fakeImages) UpdateMeta(_ context.Context, id uuid.UUID, alt, caption *string) error {
	f.byID[id].Alt, f.byID[id].Caption = alt, caption
	return nil
}

func (f *fakeImages) Owners(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	out := map[uuid.UUID]uuid.UUID{}
	for _, id := range ids {
		if img, ok := f.byID[id]; ok {
			out[id] = img.ProjectID
		}
	}
	return out, nil
}

func (f *fakeImages) Reorder(_ context.Context, positions []database.Position) error {
	f.reordered = positions
	return nil
}

type fakeTags struct {
	upserted []*models.ProjectImageTag
	removed  []string
}

func (f *fakeTags) Upsert(_ context.Context, tags []*models.ProjectImageTag) error {
	f.upserted = append(f.upserted, tags...)
	return nil
}

func (f *fakeTags) Remove(_ context.Context, _ uuid.UUID, tag string) error {
	f.removed = append(f.removed, tag)
	return nil
}

type fakeAssets struct {
	byID      map[uuid.UUID]*models.ProjectAsset
	addErr    error
	deleteErr error
	reordered []database.Position
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{byID: map[uuid.UUID]*models.ProjectAsset{}}
}

func (f *fakeAssets) FindByID(_ context.Context, id uuid.UUID) (*models.ProjectAsset, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (f *fakeAssets) Add(_ context.Context, a *models.ProjectAsset) error {
	if f.addErr != nil {
		return f.addErr
	}
	a.ID = uuid.New()
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAssets) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAssets) Owners(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	out := map[uuid.UUID]uuid.UUID{}
	for _, id := range ids {
		if a, ok := f.byID[id]; ok {
			out[id] = a.ProjectID
		}
	}
	return out, nil
}

func (f *fakeAssets) Reorder(_ context.Context, positions []database.Position) error {
	f.reordered = positions
	return nil
}

type fakePublic struct {
	projects map[string]*models.PublicProject
	images   []models.PublicImage
	tags     []models.TagCount
	assets   []models.PublicAsset
	tagAsked string
	calls    int
}

func (f *fakePublic) GetProject(_ context.Context, host string) (*models.PublicProject, error) {
	f.calls++
	return f.projects[host], nil
}

func (f *fakePublic) ListImages(_ context.Context, _ string, tag string) ([]models.PublicImage, error) {
	f.tagAsked = tag
	return f.images, nil
}

func (f *fakePublic) ListTags(context.Context, string) ([]models.TagCount, error) {
	return f.tags, nil
}

func (f *fakePublic) ListAssets(context.Context, string) ([]models.PublicAsset, error) {
	return f.assets, nil
}

type fakeObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   []string
	removed   []string
	uploadErr error
	removeErr error
	listErr   error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) Upload(_ context.Context, bucket, key string, data []byte, _, cacheControl string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[bucket+"/"+key] = data
	f.uploads = append(f.uploads, bucket+"/"+key+"|"+cacheControl)
	return nil
}

func (f *fakeObjects) Remove(_ context.Context, bucket string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, k := range keys {
		delete(f.objects, bucket+"/"+k)
		f.removed = append(f.removed, bucket+"/"+k)
	}
	return nil
}

func (f *fakeObjects) List(_ context.Context, bucket, prefix string, limit int) ([]storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []storage.Object
	for full, data := range f.objects {
		key, ok := strings.CutPrefix(full, bucket+"/")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, storage.Object{Key: key, Size: int64(len(data))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeObjects) PublicURL(bucket, key string) string {
	return storage.PublicURL("https://db.example.com/storage/v1/object/public", bucket, key)
}

type fakeCache struct {
	entries     map[string]any
	versions    map[string]int64
	invalidated []string
	readErr     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]any{}, versions: map[string]int64{}}
}

func (f *fakeCache) Get(_ context.Context, host, _ string, _ any) (bool, int64, error) {
	if f.readErr != nil {
		return false, 0, f.readErr
	}
	return false, f.versions[host], nil
}

func (f *fakeCache) Set(_ context.Context, host string, version int64, key string, value any) error {
	f.entries[fmt.Sprintf("%s|v%d|%s", host, version, key)] = value
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, hosts ...string) error {
	for _, h := range hosts {
		f.versions[h]++
	}
	f.invalidated = append(f.invalidated, hosts...)
	return nil
}

type fakeNotifier struct {
	subjects []string
}

func (f *fakeNotifier) Notify(_ context.Context, subject, _ string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

var errBoom = errors.New("boom")

type fixture struct {
	projects *fakeProjects
	images   *fakeImages
	tags     *fakeTags
	assets   *fakeAssets
	public   *fakePublic
	objects  *fakeObjects
	cache    *fakeCache
	notifier *fakeNotifier
	svc      *Services
}

func newFixture() *fixture {
	f := &fixture{
		projects: newFakeProjects(),
		images:   newFakeImages(),
		tags:     &fakeTags{},
		assets:   newFakeAssets(),
		public:   &fakePublic{projects: map[string]*models.PublicProject{}},
		objects:  newFakeObjects(),
		cache:    newFakeCache(),
		notifier: &fakeNotifier{},
	}
	f.svc = New(Deps{
		Config:    testConfig(),
		Projects:  f.projects,
		Domains:   f.projects,
		Images:    f.images,
		ImageTags: f.tags,
		Assets:    f.assets,
		Public:    f.public,
		Objects:   f.objects,
		Cache:     f.cache,
		Notifier:  f.notifier,
	})
	return f
}

func isOrphan(err error) bool {
	return errs.IsOrphanedBlob(err) || errs.IsOrphanedRow(err)
}
