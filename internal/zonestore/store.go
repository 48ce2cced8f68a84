// Package zonestore persists the zone polygon for the zone server.
package zonestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store loads and saves the single zone polygon. Load returns a nil polygon
// when nothing is stored.
type Store interface {
	Load(ctx context.Context) (types.Polygon, error)
	Save(ctx context.Context, poly types.Polygon) error
	Delete(ctx context.Context) error
	Close() error
}

// document is the persisted shape.
type document struct {
	PolygonPoints types.Polygon `json:"polygon_points"`
}

func encode(poly types.Polygon) ([]byte, error) {
	return json.MarshalIndent(document{PolygonPoints: poly}, "", "  ")
}

func decode(data []byte) (types.Polygon, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode zone document: %w", err)
	}
	if !doc.PolygonPoints.Defined() {
		return nil, nil
	}
	return doc.PolygonPoints, nil
}

// FileStore keeps the polygon in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore stores the polygon at path (e.g. polygon_zone.json).
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (types.Polygon, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	poly, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return poly, nil
}

// Save writes through a temp file and rename so readers never see a partial file.
func (s *FileStore) Save(ctx context.Context, poly types.Polygon) error {
	data, err := encode(poly)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".zone-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	logger.Debug("ZoneStore", "saved %d vertices to %s", len(poly), s.path)
	return nil
}

// Delete removes the file; a missing file is not an error.
func (s *FileStore) Delete(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
