package asset

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	qrcode "github.com/skip2/go-qrcode"
)

// Manager caches decoded assets so every path loads and decodes exactly
// once per movie, no matter how many nodes reference it.
type Manager struct {
	loader Loader

	mu     sync.Mutex
	images map[string]image.Image
	blobs  map[string][]byte
}

// NewManager wraps a Loader with caching.
func NewManager(loader Loader) *Manager {
	return &Manager{
		loader: loader,
		images: make(map[string]image.Image),
		blobs:  make(map[string][]byte),
	}
}

// LoadBlob loads raw bytes, caching by path.
func (m *Manager) LoadBlob(path string) ([]byte, error) {
	m.mu.Lock()
	if blob, ok := m.blobs[path]; ok {
		m.mu.Unlock()
		return blob, nil
	}
	m.mu.Unlock()

	data, err := m.loader.LoadBytes(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.blobs[path] = data
	m.mu.Unlock()
	return data, nil
}

// LoadImage loads and decodes an image source, caching by path. PNG and
// JPEG decode directly; "document.pdf#3" rasterizes page 3 of a PDF.
func (m *Manager) LoadImage(path string) (image.Image, error) {
	m.mu.Lock()
	if img, ok := m.images[path]; ok {
		m.mu.Unlock()
		return img, nil
	}
	m.mu.Unlock()

	img, err := m.decodeImage(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.images[path] = img
	m.mu.Unlock()
	return img, nil
}

func (m *Manager) decodeImage(path string) (image.Image, error) {
	file, page := splitPageRef(path)

	data, err := m.loader.LoadBytes(file)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(file), ".pdf") {
		return renderPDFPage(data, page)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", file, err)
	}
	return img, nil
}

// splitPageRef splits "doc.pdf#3" into ("doc.pdf", 3). Paths without a
// page fragment get page 0.
func splitPageRef(path string) (string, int) {
	idx := strings.LastIndex(path, "#")
	if idx < 0 {
		return path, 0
	}
	page, err := strconv.Atoi(path[idx+1:])
	if err != nil || page < 0 {
		return path, 0
	}
	return path[:idx], page
}

func renderPDFPage(data []byte, page int) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if page >= doc.NumPage() {
		return nil, fmt.Errorf("pdf page %d out of range (%d pages)", page, doc.NumPage())
	}
	img, err := doc.Image(page)
	if err != nil {
		return nil, fmt.Errorf("render pdf page %d: %w", page, err)
	}
	return img, nil
}

// GenerateQR renders a QR code image for data at the given pixel size.
// QR nodes call this once at load time.
func GenerateQR(data string, size int) (image.Image, error) {
	if size <= 0 {
		size = 256
	}
	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("generate qr for %q: %w", data, err)
	}
	return code.Image(size), nil
}
