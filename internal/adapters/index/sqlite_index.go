package index

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/pxvault/px/internal/core/domain"
)

// assetRow is the index table schema. The row caches what the embedded
// record says so queries never have to open image files; a scan rebuilds
// it from scratch at any time.
type assetRow struct {
	Path      string `gorm:"primaryKey"`
	Name      string `gorm:"index"`
	Format    string `gorm:"size:8"`
	SizeBytes int64
	ModTime   int64
	Width     int
	Height    int
	Checksum  string `gorm:"index;size:64"`

	Rating int            `gorm:"index"`
	Tags   datatypes.JSON `gorm:"type:json"`
	Fields datatypes.JSON `gorm:"type:json"`
	Model  string         `gorm:"index"`
	PHash  string         `gorm:"size:16"`

	UpdatedAt time.Time
}

func (assetRow) TableName() string {
	return "assets"
}

// SQLiteIndex implements the Index port on an embedded SQLite database
type SQLiteIndex struct {
	db *gorm.DB
}

// Open opens (or creates) the index database at path and migrates the
// schema
func Open(path string) (*SQLiteIndex, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	if err := db.AutoMigrate(&assetRow{}); err != nil {
		return nil, fmt.Errorf("migrating index schema: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Close releases the underlying database connection
func (s *SQLiteIndex) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Upsert adds or refreshes an asset row
func (s *SQLiteIndex) Upsert(ctx context.Context, asset domain.Asset) error {
	row, err := rowFromAsset(asset)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

// Get retrieves an indexed asset by path
func (s *SQLiteIndex) Get(ctx context.Context, path string) (*domain.Asset, error) {
	var row assetRow
	if err := s.db.WithContext(ctx).First(&row, "path = ?", path).Error; err != nil {
		return nil, fmt.Errorf("asset not indexed: %s", path)
	}
	asset, err := row.toAsset()
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// ListHeaders returns all indexed asset headers
func (s *SQLiteIndex) ListHeaders(ctx context.Context) ([]domain.AssetHeader, error) {
	var rows []assetRow
	if err := s.db.WithContext(ctx).Order("path").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing index: %w", err)
	}
	return headersFromRows(rows)
}

// FindByTag returns headers of assets carrying the tag
func (s *SQLiteIndex) FindByTag(ctx context.Context, tag string) ([]domain.AssetHeader, error) {
	var rows []assetRow
	err := s.db.WithContext(ctx).
		Where(datatypes.JSONArrayQuery("tags").Contains(domain.NormalizeTag(tag))).
		Order("path").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying by tag: %w", err)
	}
	return headersFromRows(rows)
}

// Remove deletes the row for path
func (s *SQLiteIndex) Remove(ctx context.Context, path string) error {
	return s.db.WithContext(ctx).Delete(&assetRow{}, "path = ?", path).Error
}

// Prune deletes rows whose path is not in keep
func (s *SQLiteIndex) Prune(ctx context.Context, keep map[string]bool) (int, error) {
	var paths []string
	if err := s.db.WithContext(ctx).Model(&assetRow{}).Pluck("path", &paths).Error; err != nil {
		return 0, fmt.Errorf("listing index paths: %w", err)
	}

	var stale []string
	for _, p := range paths {
		if !keep[p] {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).Delete(&assetRow{}, "path IN ?", stale).Error; err != nil {
		return 0, fmt.Errorf("pruning index: %w", err)
	}
	return len(stale), nil
}

// Hashes returns path -> perceptual hash for every row that has one
func (s *SQLiteIndex) Hashes(ctx context.Context) (map[string]string, error) {
	var rows []assetRow
	err := s.db.WithContext(ctx).
		Select("path", "p_hash").
		Where("p_hash <> ''").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing hashes: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Path] = r.PHash
	}
	return out, nil
}

// Count returns the number of indexed assets
func (s *SQLiteIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&assetRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting index: %w", err)
	}
	return n, nil
}

func rowFromAsset(asset domain.Asset) (assetRow, error) {
	tags, err := json.Marshal(asset.Record.SortedTags())
	if err != nil {
		return assetRow{}, fmt.Errorf("encoding tags: %w", err)
	}
	fields, err := json.Marshal(asset.Record.Fields)
	if err != nil {
		return assetRow{}, fmt.Errorf("encoding fields: %w", err)
	}

	model := ""
	if asset.Record.Generation != nil {
		model = asset.Record.Generation.Model
	}

	return assetRow{
		Path:      asset.Header.Path,
		Name:      asset.Header.Name,
		Format:    asset.Header.Format,
		SizeBytes: asset.Header.SizeBytes,
		ModTime:   asset.Header.ModTime.Unix(),
		Width:     asset.Header.Width,
		Height:    asset.Header.Height,
		Checksum:  asset.Header.Checksum,
		Rating:    asset.Record.Rating,
		Tags:      datatypes.JSON(tags),
		Fields:    datatypes.JSON(fields),
		Model:     model,
		PHash:     asset.Header.PHash,
	}, nil
}

func (r assetRow) header() (domain.AssetHeader, error) {
	var tags []string
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &tags); err != nil {
			return domain.AssetHeader{}, fmt.Errorf("decoding tags for %s: %w", r.Path, err)
		}
	}
	return domain.AssetHeader{
		Path:      r.Path,
		Name:      r.Name,
		Format:    r.Format,
		SizeBytes: r.SizeBytes,
		ModTime:   time.Unix(r.ModTime, 0),
		Width:     r.Width,
		Height:    r.Height,
		Checksum:  r.Checksum,
		Rating:    r.Rating,
		Tags:      tags,
		Model:     r.Model,
		PHash:     r.PHash,
	}, nil
}

func (r assetRow) toAsset() (*domain.Asset, error) {
	header, err := r.header()
	if err != nil {
		return nil, err
	}

	record := domain.NewRecord()
	record.Tags = append(record.Tags, header.Tags...)
	record.Rating = r.Rating
	if len(r.Fields) > 0 {
		if err := json.Unmarshal(r.Fields, &record.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields for %s: %w", r.Path, err)
		}
	}

	return &domain.Asset{Header: header, Record: *record}, nil
}

func headersFromRows(rows []assetRow) ([]domain.AssetHeader, error) {
	headers := make([]domain.AssetHeader, 0, len(rows))
	for _, r := range rows {
		h, err := r.header()
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}
