package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/nfnt/resize"
)

var ErrNotDataURI = errors.New("not a base64 data URI")

// ImageUploader turns picked image files into compact data URIs
type ImageUploader struct {
	maxFileSize  int64 // Maximum file size in bytes
	maxImageSize uint  // Maximum image dimension (width or height)
	imageQuality int   // JPEG quality (1-100)
}

// NewImageUploader creates an uploader with the default limits
func NewImageUploader() *ImageUploader {
	return &ImageUploader{
		maxFileSize:  10 * 1024 * 1024, // 10MB
		maxImageSize: 512,
		imageQuality: 85,
	}
}

// ReadImage loads, downscales and re-encodes an image file
func (h *ImageUploader) ReadImage(filePath string) (string, []byte, error) {
	if !IsImageFile(filePath) {
		return "", nil, fmt.Errorf("file type not supported: %s", GetMimeType(filePath))
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("file not found: %w", err)
	}
	if info.Size() > h.maxFileSize {
		return "", nil, fmt.Errorf("file too large: %s (max %s)", FormatFileSize(info.Size()), FormatFileSize(h.maxFileSize))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return h.encode(img, format)
}

func (h *ImageUploader) encode(img image.Image, format string) (string, []byte, error) {
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width > h.maxImageSize || height > h.maxImageSize {
		if width > height {
			img = resize.Resize(h.maxImageSize, 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, h.maxImageSize, img, resize.Lanczos3)
		}
	}

	var buf bytes.Buffer
	mimeType := "image/jpeg"
	var err error
	if format == "png" {
		mimeType = "image/png"
		err = png.Encode(&buf, img)
	} else {
		// Everything else is stored as JPEG
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: h.imageQuality})
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return mimeType, buf.Bytes(), nil
}

// ReadImageAsDataURI returns the processed image as a data URI
func (h *ImageUploader) ReadImageAsDataURI(filePath string) (string, error) {
	mimeType, data, err := h.ReadImage(filePath)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(mimeType, data), nil
}

// EncodeDataURI builds a base64 data URI
func EncodeDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI splits a base64 data URI into its MIME type and bytes
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotDataURI, err)
	}
	return strings.TrimSuffix(meta, ";base64"), data, nil
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
