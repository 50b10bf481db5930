package minio

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
	"github.com/stockpilot/go-backend/internal/cfg"
	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/pkg/e"
)

// ImageRepo реализует репозиторий изображений поверх MinIO.
// Наружу отдаются публичные URL, а не ключи объектов: контракт
// хранилища для остальной системы — «байты на входе, URL на выходе».
type ImageRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewImageRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ImageRepo {
	return &ImageRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает изображение в MinIO и возвращает публичный URL объекта.
func (i *ImageRepo) Upload(ctx context.Context, image *domain.Image) (string, error) {
	reader := bytes.NewReader(image.Bytes)

	info, err := i.mc.PutObject(ctx, i.cfg.BucketName, image.ObjectKey, reader, *image.Size, minio.PutObjectOptions{
		ContentType: *image.ContentType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return i.objectURL(info.Key), nil
}

// Delete удаляет объект из MinIO по его публичному URL.
func (i *ImageRepo) Delete(ctx context.Context, url string) error {
	key, err := i.objectKeyFromURL(url)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := i.mc.RemoveObject(ctx, i.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (i *ImageRepo) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimSuffix(i.cfg.PublicBaseURL, "/"), i.cfg.BucketName, key)
}

func (i *ImageRepo) objectKeyFromURL(url string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/",
		strings.TrimSuffix(i.cfg.PublicBaseURL, "/"), i.cfg.BucketName)

	key := strings.TrimPrefix(url, prefix)
	if key == url || key == "" {
		return "", fmt.Errorf("url %q does not belong to bucket %s", url, i.cfg.BucketName)
	}
	return key, nil
}
