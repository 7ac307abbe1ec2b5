package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyImage       = errors.New("image is empty")
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UploadResult struct {
	URL      string
	PublicID string
}

// ImageStore 圖片儲存位置，目前只有 cloudinary
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, name string) (UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

// ReadImage 讀入整張圖片並以內容判斷格式，不信任 client 給的 content type
func ReadImage(r io.Reader, maxBytes int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	if int64(len(data)) > maxBytes {
		return nil, "", ErrImageTooLarge
	}
	contentType := http.DetectContentType(data)
	if _, ok := allowedContentTypes[contentType]; !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return data, contentType, nil
}
