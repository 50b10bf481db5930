package minio_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/go-backend/internal/cfg"
	"github.com/stockpilot/go-backend/internal/domain"
	minioInfra "github.com/stockpilot/go-backend/internal/infrastructure/minio"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/logger"
)

// ---- mock image repository ----

type mockImageRepo struct {
	mu        sync.Mutex
	uploads   int
	deleted   []string
	failBytes string        // загрузка с этими байтами падает
	delay     time.Duration // задержка каждой загрузки
}

func (m *mockImageRepo) Upload(_ context.Context, image *domain.Image) (string, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	if m.failBytes != "" && string(image.Bytes) == m.failBytes {
		return "", errors.New("storage unavailable")
	}
	return "u-" + string(image.Bytes), nil
}

func (m *mockImageRepo) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return nil
}

func (m *mockImageRepo) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

func (m *mockImageRepo) deletedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

func testCfg() *cfg.MinIOCfg {
	return &cfg.MinIOCfg{
		BucketName:    "images",
		ImagesQuota:   5,
		MaxConcurrent: 2,
	}
}

func file(data string) usecase.ProductImage {
	return *usecase.NewProductImage([]byte(data), "image/png", int64(len(data)), data+".png")
}

func newInfra(repo *mockImageRepo) *minioInfra.ImagesInfrastructure {
	return minioInfra.NewImagesInfrastructure(repo, testCfg(), logger.NewSlogLogger(), context.Background())
}

func TestUploadImages_EmptyBatchRejected(t *testing.T) {
	repo := &mockImageRepo{}
	infra := newInfra(repo)

	_, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq(nil, nil, 5))

	assert.ErrorIs(t, err, e.ErrNoImages)
	assert.Zero(t, repo.uploadCount())
}

func TestUploadImages_QuotaRejectedWithoutSideEffects(t *testing.T) {
	repo := &mockImageRepo{}
	infra := newInfra(repo)

	files := []usecase.ProductImage{file("a"), file("b"), file("c")}
	existing := []string{"e1", "e2", "e3"}

	_, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq(files, existing, 5))

	assert.ErrorIs(t, err, e.ErrTooManyImages)
	assert.Zero(t, repo.uploadCount(), "quota must be checked before any upload")
}

func TestUploadImages_ResultOrderFollowsInput(t *testing.T) {
	repo := &mockImageRepo{delay: 10 * time.Millisecond}
	infra := newInfra(repo)

	files := []usecase.ProductImage{file("a"), file("b"), file("c"), file("d")}
	existing := []string{"e1"}

	res, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq(files, existing, 5))

	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "u-a", "u-b", "u-c", "u-d"}, res.Images)
	assert.Equal(t, 4, repo.uploadCount())
}

func TestUploadImages_PartialFailureCompensated(t *testing.T) {
	repo := &mockImageRepo{failBytes: "bad"}
	infra := newInfra(repo)

	files := []usecase.ProductImage{file("a"), file("bad"), file("c")}

	_, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq(files, nil, 5))

	require.ErrorIs(t, err, e.ErrUploadFailed)
	// Барьер дожидается всех загрузок, не отменяя их на первой ошибке
	assert.Equal(t, 3, repo.uploadCount())

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(waitCtx))

	assert.ElementsMatch(t, []string{"u-a", "u-c"}, repo.deletedURLs())
}

func TestUploadImages_UnsupportedMimeFailsBatch(t *testing.T) {
	repo := &mockImageRepo{}
	infra := newInfra(repo)

	bad := *usecase.NewProductImage([]byte("x"), "text/plain", 1, "x.txt")
	files := []usecase.ProductImage{file("a"), bad}

	_, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq(files, nil, 5))

	require.ErrorIs(t, err, e.ErrUploadFailed)
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(waitCtx))
	assert.Equal(t, []string{"u-a"}, repo.deletedURLs())
}

func TestCleanupImages(t *testing.T) {
	repo := &mockImageRepo{}
	infra := newInfra(repo)

	infra.CleanupImages([]string{"u-a", "u-b"})
	infra.CleanupImages(nil) // no-op

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(waitCtx))

	assert.ElementsMatch(t, []string{"u-a", "u-b"}, repo.deletedURLs())
}

func TestDeleteImage(t *testing.T) {
	repo := &mockImageRepo{}
	infra := newInfra(repo)

	require.NoError(t, infra.DeleteImage(context.Background(), "u-a"))
	assert.Equal(t, []string{"u-a"}, repo.deletedURLs())
}
