package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"RiskPulse/internal/domain/models"
	applogger "RiskPulse/pkg/logger"
)

// FilePriceStore persists per-asset baseline and incremental price series as
// JSON files under dir/prices. Everything here is a best-effort cache: a
// missing file loads as nil, a corrupt file is deleted and also loads as nil.
type FilePriceStore struct {
	dir    string
	logger *applogger.Logger
}

// NewFilePriceStore creates the store rooted at dir.
func NewFilePriceStore(dir string, l *applogger.Logger) (*FilePriceStore, error) {
	root := filepath.Join(dir, "prices")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create price store dir: %w", err)
	}
	return &FilePriceStore{dir: root, logger: l}, nil
}

func (s *FilePriceStore) Baseline(assetID string) (*models.PriceSeries, error) {
	return s.load(s.path(assetID, "baseline"))
}

func (s *FilePriceStore) SaveBaseline(series *models.PriceSeries) error {
	return s.save(s.path(series.AssetID, "baseline"), series)
}

func (s *FilePriceStore) Incremental(assetID string) (*models.PriceSeries, error) {
	return s.load(s.path(assetID, "incremental"))
}

func (s *FilePriceStore) SaveIncremental(series *models.PriceSeries) error {
	return s.save(s.path(series.AssetID, "incremental"), series)
}

func (s *FilePriceStore) Delete(assetID string) error {
	_ = os.Remove(s.path(assetID, "baseline"))
	_ = os.Remove(s.path(assetID, "incremental"))
	return nil
}

func (s *FilePriceStore) load(path string) (*models.PriceSeries, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read price file: %w", err)
	}

	var series models.PriceSeries
	if err := json.Unmarshal(b, &series); err != nil {
		if s.logger != nil {
			s.logger.Warn("corrupt price file removed",
				applogger.String("path", path),
				applogger.Error(err),
			)
		}
		_ = os.Remove(path)
		return nil, nil
	}
	return &series, nil
}

func (s *FilePriceStore) save(path string, series *models.PriceSeries) error {
	b, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("marshal price series: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write price file: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *FilePriceStore) path(assetID, kind string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", assetID, kind))
}
