package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// AssetHeader is the lightweight view of one image file, used for listing
// operations so the full record does not have to be loaded.
type AssetHeader struct {
	Path      string    // absolute path, the asset's identity
	Name      string    // base filename
	Format    string    // "png", "jpeg", "gif", "bmp", "webp"
	SizeBytes int64
	ModTime   time.Time
	Width     int
	Height    int
	Checksum  string // sha256 of file content, hex

	// Cached record summary
	Rating int
	Tags   []string
	Model  string // generation model, if known

	PHash string // perceptual hash, hex; empty when not computed
}

// Asset is one image file together with its embedded metadata record
type Asset struct {
	Header AssetHeader
	Record Record
}

// supportedFormats maps file extensions to canonical format names
var supportedFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".webp": "webp",
}

// FormatForPath returns the canonical format name for a file path, or ""
// when the extension is not a supported image format
func FormatForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return supportedFormats[ext]
}

// IsSupportedPath checks whether a path points to a supported image format
func IsSupportedPath(path string) bool {
	return FormatForPath(path) != ""
}

// IsWritableFormat reports whether metadata can be embedded for a format.
// Read-only formats are still scanned for dimensions and listed.
func IsWritableFormat(format string) bool {
	return format == "png" || format == "jpeg"
}

// SizeMB returns the file size in megabytes
func (h *AssetHeader) SizeMB() float64 {
	return float64(h.SizeBytes) / (1024 * 1024)
}

// AspectRatio returns width/height, or 0 for unknown dimensions
func (h *AssetHeader) AspectRatio() float64 {
	if h.Height <= 0 {
		return 0
	}
	return float64(h.Width) / float64(h.Height)
}

// Dimensions returns "WxH" for display, or "-" when unknown
func (h *AssetHeader) Dimensions() string {
	if h.Width <= 0 || h.Height <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", h.Width, h.Height)
}

// HasTag checks if the cached tag set contains a tag
func (h *AssetHeader) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// GetTagsString returns tags as a comma-separated string
func (h *AssetHeader) GetTagsString() string {
	if len(h.Tags) == 0 {
		return "-"
	}
	return strings.Join(h.Tags, ", ")
}

// GetDisplayDate returns a human-readable modification date
func (h *AssetHeader) GetDisplayDate() string {
	return h.ModTime.Format("Jan 02, 2006")
}
