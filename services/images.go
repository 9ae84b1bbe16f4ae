package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"kiraye/api"
)

var ErrNotImage = errors.New("only image files can be uploaded")

const maxImageSize = 10 << 20 // 10MB

// sniffImage decides the content type of an upload from its bytes, falling
// back to the file extension for formats DetectContentType does not know.
func sniffImage(name string, data []byte) (string, error) {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if strings.HasPrefix(ct, "image/") {
		return ct, nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ct == "application/octet-stream" && isImageExt(ext) {
		return contentTypeForExt(ext), nil
	}
	return "", ErrNotImage
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".heic":
		return true
	}
	return false
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tiff":
		return "image/tiff"
	default:
		return "image/" + strings.TrimPrefix(ext, ".")
	}
}

// ReadImage loads a file from disk as a staged upload.
func ReadImage(path string) (api.FilePart, error) {
	info, err := os.Stat(path)
	if err != nil {
		return api.FilePart{}, err
	}
	if info.Size() > maxImageSize {
		return api.FilePart{}, fmt.Errorf("%s is larger than 10MB", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return api.FilePart{}, err
	}

	ct, err := sniffImage(path, data)
	if err != nil {
		return api.FilePart{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return api.FilePart{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}
