// Package images tracks the images an author has uploaded or downloaded while
// editing a single post. Publishing reads from a Manager and clears it once the
// post has been pushed.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/eringen/posteditor/post"
)

const (
	maxPreviewWidth = 800
	jpegQuality     = 80
	previewPrefix   = "preview_"
)

// ErrNotImage is returned by Add when the upload cannot be decoded as a
// PNG, JPEG or GIF image.
var ErrNotImage = errors.New("not an image")

// Source is the read side of an image manager.
type Source interface {
	Uploads() []Upload
	DownloadedImages() []post.Image
}

// Manager is a Source that can be released once its uploads are published.
type Manager interface {
	Source
	Clear()
}

// Upload is a locally uploaded image that has not been pushed yet.
type Upload struct {
	Filename     string // normalized basename, spaces replaced with underscores
	OriginalName string
	CacheName    string // <id>/preview_<Filename>, served under /uploads/tmp/
	Preview      []byte // JPEG, at most maxPreviewWidth wide
	data         []byte
}

// Open returns the original uploaded bytes.
func (u Upload) Open() (io.ReadCloser, error) {
	if u.data == nil {
		return nil, fmt.Errorf("images: upload %s has no data", u.Filename)
	}
	return io.NopCloser(bytes.NewReader(u.data)), nil
}

// NormalizeFilename returns the basename of name with spaces replaced by
// underscores. Uploads are keyed by this form.
func NormalizeFilename(name string) string {
	return strings.ReplaceAll(path.Base(strings.ReplaceAll(name, `\`, "/")), " ", "_")
}

// Memory is an in-memory Manager safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	uploads    []Upload
	downloaded []post.Image
}

// NewMemory returns an empty manager.
func NewMemory() *Memory {
	return &Memory{}
}

// Add decodes src as an image, generates its preview and records the upload.
// An upload with the same normalized filename replaces the earlier one.
func (m *Memory) Add(originalName string, src io.Reader) (Upload, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return Upload{}, fmt.Errorf("images: read %s: %w", originalName, err)
	}
	preview, err := renderPreview(data)
	if err != nil {
		return Upload{}, fmt.Errorf("images: %s: %w", originalName, err)
	}

	filename := NormalizeFilename(originalName)
	upload := Upload{
		Filename:     filename,
		OriginalName: originalName,
		CacheName:    uuid.NewString() + "/" + previewPrefix + filename,
		Preview:      preview,
		data:         data,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.uploads {
		if existing.Filename == filename {
			m.uploads[i] = upload
			return upload, nil
		}
	}
	m.uploads = append(m.uploads, upload)
	return upload, nil
}

// AddDownloaded records images fetched from the remote repository so previews
// can inline them.
func (m *Memory) AddDownloaded(imgs ...post.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, img := range imgs {
		replaced := false
		for i, existing := range m.downloaded {
			if existing.Filename == img.Filename {
				m.downloaded[i] = img
				replaced = true
				break
			}
		}
		if !replaced {
			m.downloaded = append(m.downloaded, img)
		}
	}
}

// Uploads returns the pending uploads in upload order.
func (m *Memory) Uploads() []Upload {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Upload(nil), m.uploads...)
}

// DownloadedImages returns the images fetched from the remote repository.
func (m *Memory) DownloadedImages() []post.Image {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]post.Image(nil), m.downloaded...)
}

// PreviewByCacheName finds the upload whose CacheName equals name.
func (m *Memory) PreviewByCacheName(name string) (Upload, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.uploads {
		if u.CacheName == name {
			return u, true
		}
	}
	return Upload{}, false
}

// Clear releases every upload and downloaded image.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.uploads = nil
	m.downloaded = nil
	m.mu.Unlock()
}

// renderPreview decodes data and re-encodes it as a JPEG no wider than
// maxPreviewWidth.
func renderPreview(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxPreviewWidth {
		newH := h * maxPreviewWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxPreviewWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
