package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterchelly/microsites/database"
	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
)

func TestAssetCreateFiles(t *testing.T) {
	f := newFixture()
	p := f.projects.add(&models.Project{Slug: "acme"}, "acme.example.com")
	title, pos := "Brochure", -2

	assets, err := f.svc.Assets.CreateFiles(context.Background(), p.ID,
		FileAssetRequest{Kind: "pdf", AssetMeta: AssetMeta{Title: &title, Position: &pos}},
		[]UploadFile{{Name: "brochure.pdf", ContentType: "application/pdf", Data: pdfBytes}})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, models.AssetPDF, assets[0].Kind)
	assert.Equal(t, 0, assets[0].Position)
	assert.Equal(t, "Brochure", *assets[0].Title)
	require.NotNil(t, assets[0].StoragePath)
	assert.True(t, strings.HasSuffix(*assets[0].StoragePath, ".pdf"))
	assert.Nil(t, assets[0].ExternalURL)

	require.Len(t, f.objects.uploads, 1)
	assert.True(t, strings.HasPrefix(f.objects.uploads[0], "project-assets/"))
	assert.True(t, strings.HasSuffix(f.objects.uploads[0], "|31536000, immutable"))
}

func TestAssetCreateFiles_WrongType(t *testing.T) {
	f := newFixture()
	p := f.projects.add(&models.Project{Slug: "acme"}, "acme.example.com")

	_, err := f.svc.Assets.CreateFiles(context.Background(), p.ID, FileAssetRequest{Kind: "pdf"},
		[]UploadFile{{Name: "photo.png", ContentType: "image/png", Data: pngBytes}})
	require.Error(t, err)
	assert.Equal(t, "PDF_ONLY", err.(*errs.ApiErr).Message())

	_, err = f.svc.Assets.CreateFiles(context.Background(), p.ID, FileAssetRequest{Kind: "floorplan"},
		[]UploadFile{{Name: "plan.pdf", ContentType: "application/pdf", Data: pdfBytes}})
	require.Error(t, err)
	assert.Equal(t, "IMAGE_ONLY", err.(*errs.ApiErr).Message())

	_, err = f.svc.Assets.CreateFiles(context.Background(), p.ID, FileAssetRequest{Kind: "video"},
		[]UploadFile{{Name: "plan.pdf", ContentType: "application/pdf", Data: pdfBytes}})
	assert.True(t, errs.IsValidationError(err))
	assert.Empty(t, f.objects.uploads)
}

func TestAssetCreateURL(t *testing.T) {
	f := newFixture()
	p := f.projects.add(&models.Project{Slug: "acme"}, "acme.example.com")

	asset, err := f.svc.Assets.CreateURL(context.Background(), p.ID, URLAssetRequest{Kind: "video", URL: " https://youtu.be/abc123 "})
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc123", *asset.ExternalURL)
	assert.Nil(t, asset.StoragePath)

	_, err = f.svc.Assets.CreateURL(context.Background(), p.ID, URLAssetRequest{Kind: "tour", URL: "https://evil.example.net/tour"})
	require.Error(t, err)
	assert.Equal(t, "EMBED_HOST_NOT_ALLOWED", err.(*errs.ApiErr).Message())

	_, err = f.svc.Assets.CreateURL(context.Background(), p.ID, URLAssetRequest{Kind: "video", URL: "http://youtube.com/watch?v=x"})
	assert.True(t, errs.IsValidationError(err))

	_, err = f.svc.Assets.CreateURL(context.Background(), p.ID, URLAssetRequest{Kind: "pdf", URL: "https://youtu.be/abc"})
	assert.True(t, errs.IsValidationError(err))
}

func TestAssetDelete(t *testing.T) {
	f := newFixture()
	p := f.projects.add(&models.Project{Slug: "acme"}, "acme.example.com")
	ctx := context.Background()

	link, err := f.svc.Assets.CreateURL(ctx, p.ID, URLAssetRequest{Kind: "tour", URL: "https://my.matterport.com/show/?m=abc"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Assets.Delete(ctx, link.ID))
	assert.Empty(t, f.objects.removed)

	files, err := f.svc.Assets.CreateFiles(ctx, p.ID, FileAssetRequest{Kind: "floorplan"},
		[]UploadFile{{Name: "plan.png", ContentType: "image/png", Data: pngBytes}})
	require.NoError(t, err)
	f.assets.deleteErr = errBoom
	err = f.svc.Assets.Delete(ctx, files[0].ID)
	assert.True(t, errs.IsOrphanedRow(err))
	assert.Len(t, f.objects.removed, 1)
}

func TestAssetReorder(t *testing.T) {
	f := newFixture()
	p := f.projects.add(&models.Project{Slug: "acme"}, "acme.example.com")
	other := uuid.New()
	a, b := uuid.New(), uuid.New()
	f.assets.byID[a] = &models.ProjectAsset{ID: a, ProjectID: p.ID}
	f.assets.byID[b] = &models.ProjectAsset{ID: b, ProjectID: other}

	err := f.svc.Assets.Reorder(context.Background(), p.ID, ReorderRequest{Ordered: []PositionRequest{{ID: a, Position: 1}, {ID: b, Position: 0}}})
	require.Error(t, err)
	assert.Equal(t, "ASSET_PROJECT_MISMATCH", err.Error())
	assert.Nil(t, f.assets.reordered)

	require.NoError(t, f.svc.Assets.Reorder(context.Background(), p.ID, ReorderRequest{Ordered: []PositionRequest{{ID: a, Position: 3}}}))
	assert.Equal(t, []database.Position{{ID: a, Position: 3}}, f.assets.reordered)
}
