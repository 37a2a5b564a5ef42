package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const cloudinaryResourceType = "image"

// CloudinaryAssetStore 通过 Cloudinary SDK 签名上传与删除
type CloudinaryAssetStore struct {
	cfg     config.UploadConfig
	cld     *cloudinary.Cloudinary
	initErr error
	timeout time.Duration
}

// NewCloudinaryAssetStore 创建 Cloudinary 存储，凭据缺失时在调用时报错
func NewCloudinaryAssetStore(cfg config.UploadConfig) *CloudinaryAssetStore {
	timeout := cfg.Cloudinary.TimeoutMS
	if timeout < 1000 || timeout > 120000 {
		timeout = 15000
	}
	store := &CloudinaryAssetStore{cfg: cfg, timeout: time.Duration(timeout) * time.Millisecond}

	c := cfg.Cloudinary
	if strings.TrimSpace(c.CloudName) == "" || strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.APISecret) == "" {
		store.initErr = fmt.Errorf("%w: cloudinary credentials are not configured", ErrAssetStoreFailed)
		return store
	}
	cld, err := cloudinary.NewFromParams(strings.TrimSpace(c.CloudName), strings.TrimSpace(c.APIKey), strings.TrimSpace(c.APISecret))
	if err != nil {
		store.initErr = fmt.Errorf("%w: %v", ErrAssetStoreFailed, err)
		return store
	}
	if prefix := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"); prefix != "" {
		cld.Config.API.UploadPrefix = prefix
	}
	store.cld = cld
	return store
}

// Upload 校验后上传图片到 Cloudinary
func (s *CloudinaryAssetStore) Upload(ctx context.Context, header *multipart.FileHeader, folder string) (models.Image, error) {
	if s.initErr != nil {
		return models.Image{}, s.initErr
	}
	upload, err := validateUpload(s.cfg, header)
	if err != nil {
		return models.Image{}, err
	}
	defer upload.file.Close()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.cld.Upload.Upload(ctx, upload.file, uploader.UploadParams{
		PublicID:     uuid.New().String(),
		Folder:       normalizeAssetFolder(s.cfg.Folder, folder),
		ResourceType: cloudinaryResourceType,
	})
	if err != nil {
		return models.Image{}, fmt.Errorf("%w: %v", ErrAssetStoreFailed, err)
	}
	if result.Error.Message != "" {
		return models.Image{}, fmt.Errorf("%w: %s", ErrAssetStoreFailed, result.Error.Message)
	}
	if result.PublicID == "" || result.SecureURL == "" {
		return models.Image{}, fmt.Errorf("%w: empty upload response", ErrAssetStoreFailed)
	}
	return models.Image{PublicID: result.PublicID, URL: result.SecureURL}, nil
}

// Delete 删除 Cloudinary 上的图片，not found 视为成功
func (s *CloudinaryAssetStore) Delete(ctx context.Context, publicID string) error {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil
	}
	if s.initErr != nil {
		return s.initErr
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: cloudinaryResourceType,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssetStoreFailed, err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("%w: %s", ErrAssetStoreFailed, result.Error.Message)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("%w: destroy result %q", ErrAssetStoreFailed, result.Result)
	}
	return nil
}
