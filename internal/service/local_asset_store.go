package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/models"

	"github.com/google/uuid"
)

// LocalAssetStore 本地磁盘存储，文件通过静态路由对外提供
type LocalAssetStore struct {
	cfg        config.UploadConfig
	baseDir    string
	publicPath string
}

// NewLocalAssetStore 创建本地存储
func NewLocalAssetStore(cfg config.UploadConfig) *LocalAssetStore {
	baseDir := strings.TrimSpace(cfg.LocalDir)
	if baseDir == "" {
		baseDir = "uploads"
	}
	publicPath := "/" + strings.Trim(strings.TrimSpace(cfg.PublicPath), "/")
	if publicPath == "/" {
		publicPath = "/uploads"
	}
	return &LocalAssetStore{cfg: cfg, baseDir: baseDir, publicPath: publicPath}
}

// Upload 校验并写入 <folder>/<yyyy>/<mm>/<uuid><ext>
func (s *LocalAssetStore) Upload(ctx context.Context, header *multipart.FileHeader, folder string) (models.Image, error) {
	upload, err := validateUpload(s.cfg, header)
	if err != nil {
		return models.Image{}, err
	}
	defer upload.file.Close()

	now := time.Now()
	publicID := path.Join(
		normalizeAssetFolder(s.cfg.Folder, folder),
		now.Format("2006"),
		now.Format("01"),
		uuid.New().String()+upload.ext,
	)
	savePath := filepath.Join(s.baseDir, filepath.FromSlash(publicID))
	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return models.Image{}, err
	}

	dst, err := os.Create(savePath)
	if err != nil {
		return models.Image{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, upload.file); err != nil {
		_ = os.Remove(savePath)
		return models.Image{}, err
	}
	return models.Image{PublicID: publicID, URL: s.publicPath + "/" + publicID}, nil
}

// Delete 删除本地文件，文件不存在时视为成功
func (s *LocalAssetStore) Delete(ctx context.Context, publicID string) error {
	cleaned := path.Clean("/" + strings.TrimSpace(publicID))
	if cleaned == "/" {
		return nil
	}
	target := filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/")))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove asset %s: %w", publicID, err)
	}
	return nil
}
