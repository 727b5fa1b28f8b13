package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"RiskPulse/internal/domain/models"
	applogger "RiskPulse/pkg/logger"
)

// FileMetricsStore persists per-asset confidence metrics as JSON files under
// dir/confidence, with the same missing/corrupt semantics as the price store.
type FileMetricsStore struct {
	dir    string
	logger *applogger.Logger
}

// NewFileMetricsStore creates the store rooted at dir.
func NewFileMetricsStore(dir string, l *applogger.Logger) (*FileMetricsStore, error) {
	root := filepath.Join(dir, "confidence")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create metrics store dir: %w", err)
	}
	return &FileMetricsStore{dir: root, logger: l}, nil
}

func (s *FileMetricsStore) Load(assetID string) (*models.ConfidenceMetrics, error) {
	path := s.path(assetID)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metrics file: %w", err)
	}

	var metrics models.ConfidenceMetrics
	if err := json.Unmarshal(b, &metrics); err != nil {
		if s.logger != nil {
			s.logger.Warn("corrupt metrics file removed",
				applogger.String("path", path),
				applogger.Error(err),
			)
		}
		_ = os.Remove(path)
		return nil, nil
	}
	return &metrics, nil
}

func (s *FileMetricsStore) Save(metrics *models.ConfidenceMetrics) error {
	b, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	path := s.path(metrics.AssetID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *FileMetricsStore) Delete(assetID string) error {
	_ = os.Remove(s.path(assetID))
	return nil
}

func (s *FileMetricsStore) path(assetID string) string {
	return filepath.Join(s.dir, assetID+".json")
}
