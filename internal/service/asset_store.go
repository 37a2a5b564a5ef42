package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/models"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// AssetStore 图片素材存储
type AssetStore interface {
	Upload(ctx context.Context, file *multipart.FileHeader, folder string) (models.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// NewAssetStore 按配置选择存储驱动
func NewAssetStore(cfg config.UploadConfig) AssetStore {
	if strings.EqualFold(cfg.Driver, "cloudinary") {
		return NewCloudinaryAssetStore(cfg)
	}
	return NewLocalAssetStore(cfg)
}

var assetFolderPattern = regexp.MustCompile(`[^a-z0-9/_-]+`)

// normalizeAssetFolder 规范化子目录，去除路径穿越与非法字符
func normalizeAssetFolder(root, folder string) string {
	parts := make([]string, 0, 2)
	for _, raw := range []string{root, folder} {
		value := strings.ToLower(strings.TrimSpace(raw))
		value = assetFolderPattern.ReplaceAllString(value, "")
		for _, segment := range strings.Split(value, "/") {
			if segment == "" || segment == "." || segment == ".." {
				continue
			}
			parts = append(parts, segment)
		}
	}
	if len(parts) == 0 {
		return "common"
	}
	return strings.Join(parts, "/")
}

// validatedUpload 通过校验的上传文件
type validatedUpload struct {
	ext         string
	contentType string
	file        multipart.File
}

// validateUpload 校验大小、扩展名、MIME 与图片尺寸，调用方负责关闭返回的文件
func validateUpload(cfg config.UploadConfig, header *multipart.FileHeader) (*validatedUpload, error) {
	if header == nil {
		return nil, ErrNoFiles
	}
	if cfg.MaxSize > 0 && header.Size > cfg.MaxSize {
		return nil, fmt.Errorf("%w (max %d MB)", ErrFileTooLarge, cfg.MaxSize/1024/1024)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if len(cfg.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, cfg.AllowedExtensions) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, ext)
		}
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			src.Close()
		}
	}()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return nil, err
	}
	contentType := http.DetectContentType(buffer[:n])
	if len(cfg.AllowedTypes) > 0 {
		allowed := false
		for _, t := range cfg.AllowedTypes {
			if strings.EqualFold(contentType, t) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, contentType)
		}
	}

	if strings.HasPrefix(contentType, "image/") {
		width, height, err := decodeImageDimensions(src, contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFileType, err)
		}
		if cfg.MaxWidth > 0 && width > cfg.MaxWidth {
			return nil, fmt.Errorf("%w (max width %d)", ErrImageTooLarge, cfg.MaxWidth)
		}
		if cfg.MaxHeight > 0 && height > cfg.MaxHeight {
			return nil, fmt.Errorf("%w (max height %d)", ErrImageTooLarge, cfg.MaxHeight)
		}
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	ok = true
	return &validatedUpload{ext: ext, contentType: contentType, file: src}, nil
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}

func decodeImageDimensions(src io.ReadSeeker, contentType string) (int, int, error) {
	if strings.EqualFold(contentType, "image/webp") {
		width, height, err := decodeWebPDimensions(src)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid webp image: %w", err)
		}
		return width, height, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func decodeWebPDimensions(src io.ReadSeeker) (int, int, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(src, header); err != nil {
		return 0, 0, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return 0, 0, fmt.Errorf("invalid webp header")
	}

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(src, chunkHeader); err != nil {
			return 0, 0, err
		}
		chunkType := string(chunkHeader[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		if chunkSize < 0 {
			return 0, 0, fmt.Errorf("invalid webp chunk")
		}

		data := make([]byte, chunkSize)
		if _, err := io.ReadFull(src, data); err != nil {
			return 0, 0, err
		}

		switch chunkType {
		case "VP8X":
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("short VP8X chunk")
			}
			width := 1 + int(data[4]) + int(data[5])<<8 + int(data[6])<<16
			height := 1 + int(data[7]) + int(data[8])<<8 + int(data[9])<<16
			return width, height, nil
		case "VP8 ":
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("short VP8 chunk")
			}
			width := int(binary.LittleEndian.Uint16(data[6:8]) & 0x3FFF)
			height := int(binary.LittleEndian.Uint16(data[8:10]) & 0x3FFF)
			return width, height, nil
		case "VP8L":
			if len(data) < 5 {
				return 0, 0, fmt.Errorf("short VP8L chunk")
			}
			if data[0] != 0x2f {
				return 0, 0, fmt.Errorf("invalid VP8L signature")
			}
			bits := binary.LittleEndian.Uint32(data[1:5])
			width := int(bits&0x3FFF) + 1
			height := int((bits>>14)&0x3FFF) + 1
			return width, height, nil
		}

		if chunkSize%2 == 1 {
			if _, err := src.Seek(1, io.SeekCurrent); err != nil {
				return 0, 0, err
			}
		}
	}
}
