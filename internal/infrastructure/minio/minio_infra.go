package minio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/go-backend/internal/cfg"
	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/internal/infrastructure"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/jitter"
	"github.com/stockpilot/go-backend/pkg/logger"
)

const (
	cleanupTimeout  = 30 * time.Second
	cleanupAttempts = 3
	cleanupBackoff  = time.Second
	cleanupMaxWait  = 8 * time.Second
)

// ImagesInfrastructure управляет загрузкой и очисткой изображений в MinIO.
// Пакет загружается по принципу «всё или ничего»: при любой ошибке уже
// загруженные объекты компенсируются фоновой очисткой.
type ImagesInfrastructure struct {
	imageRepo     usecase.ImageRepository
	cfg           *cfg.MinIOCfg
	logger        logger.Logger
	shutdownCtx   context.Context
	wg            sync.WaitGroup
	maxConcurrent int
}

func NewImagesInfrastructure(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *ImagesInfrastructure {
	return &ImagesInfrastructure{
		imageRepo:     imageRepo,
		cfg:           cfg,
		logger:        logger,
		shutdownCtx:   shutdownCtx,
		wg:            sync.WaitGroup{},
		maxConcurrent: cfg.MaxConcurrent,
	}
}

// UploadImages загружает пакет изображений параллельно с ограничением
// одновременных операций. Квота проверяется до каких-либо побочных
// эффектов: превышение отклоняет весь пакет. Барьер дожидается исхода
// каждой загрузки, поэтому результат выровнен по порядку файлов и ни
// один объект не остаётся в неизвестном состоянии.
func (m *ImagesInfrastructure) UploadImages(ctx context.Context, req *usecase.UploadImagesReq) (*usecase.UploadImagesRes, error) {
	const op = "ImagesInfrastructure.UploadImages"

	if len(req.Files) == 0 {
		return nil, e.Wrap(op, e.ErrNoImages)
	}
	if len(req.Existing)+len(req.Files) > req.Quota {
		return nil, e.Wrap(op, fmt.Errorf("%w: limit %d", e.ErrTooManyImages, req.Quota))
	}

	urls := make([]string, len(req.Files))
	errs := make([]error, len(req.Files))
	sem := make(chan struct{}, m.maxConcurrent)

	var uploadWg sync.WaitGroup
	for i, file := range req.Files {
		uploadWg.Add(1)
		go func() {
			defer uploadWg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			urls[i], errs[i] = m.uploadOne(ctx, file)
		}()
	}

	// Ждём все горутины, не отменяя остальные при первой ошибке:
	// каждый объект либо загружен (и будет компенсирован), либо нет.
	uploadWg.Wait()

	uploaded := make([]string, 0, len(req.Files))
	for _, u := range urls {
		if u != "" {
			uploaded = append(uploaded, u)
		}
	}

	if err := errors.Join(errs...); err != nil {
		if len(uploaded) > 0 {
			m.wg.Add(1)
			go m.cleanupUploadedURLs(uploaded)
		}
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrUploadFailed, err))
	}

	return usecase.NewUploadImagesRes(append(slices.Clone(req.Existing), urls...)), nil
}

func (m *ImagesInfrastructure) uploadOne(ctx context.Context, file usecase.ProductImage) (string, error) {
	imageID := uuid.NewString()
	ext, err := infrastructure.GetExtensionFromMIME(file.MimeType)
	if err != nil {
		return "", fmt.Errorf("invalid mime type %s for %s: %w", file.MimeType, file.Name, err)
	}

	objKey := fmt.Sprintf("products/%s.%s", imageID, ext)
	image := domain.NewImage(imageID, m.cfg.BucketName, objKey, file.Data, &file.Size, &file.MimeType)

	url, err := m.imageRepo.Upload(ctx, image)
	if err != nil {
		return "", fmt.Errorf("upload %s failed: %w", file.Name, err)
	}
	return url, nil
}

// DeleteImage удаляет один объект по его публичному URL.
func (m *ImagesInfrastructure) DeleteImage(ctx context.Context, url string) error {
	const op = "ImagesInfrastructure.DeleteImage"

	if err := m.imageRepo.Delete(ctx, url); err != nil {
		return e.Wrap(op, err)
	}
	return nil
}

// CleanupImages запускает фоновую очистку указанных URL.
func (m *ImagesInfrastructure) CleanupImages(urls []string) {
	if len(urls) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedURLs(urls)
}

// cleanupUploadedURLs удаляет объекты с экспоненциальной задержкой и jitter.
func (m *ImagesInfrastructure) cleanupUploadedURLs(urls []string) {
	defer m.wg.Done()
	const op = "ImagesInfrastructure.cleanupUploadedURLs"
	m.logger.Infof("%s: cleaning up %d uploaded objects", op, len(urls))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, url := range urls {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			if err := m.imageRepo.Delete(ctx, url); err == nil {
				break
			}

			select {
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown, url=%v", url)
				return
			default:
			}

			if attempt < cleanupAttempts-1 {
				sleepTime := jitter.ExponentialBackoff(cleanupBackoff, cleanupMaxWait, attempt, jitter.DefaultJitter)
				select {
				case <-time.After(sleepTime):
				case <-ctx.Done():
					m.logger.Warnf("cleanup interrupted by shutdown during backoff, url=%v", url)
					return
				}
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *ImagesInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
