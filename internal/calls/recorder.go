// Package calls keeps raw provider responses for offline inspection.
// Records are written once and never read back by the collector.
package calls

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"termgraph/pkg/logger"

	"go.uber.org/zap"
)

// Recorder writes call records into one batch directory per run
type Recorder struct {
	batchDir string
	logger   *zap.Logger
}

// NewRecorder creates a recorder whose batch directory is <dir>/<started in unix ms>
func NewRecorder(dir string, started time.Time) *Recorder {
	return &Recorder{
		batchDir: filepath.Join(dir, strconv.FormatInt(started.UnixMilli(), 10)),
		logger:   logger.Named("calls"),
	}
}

// BatchDir returns the directory of this run's records
func (r *Recorder) BatchDir() string {
	return r.batchDir
}

// Record stores the raw response of provider/model as <batch>/<provider>-<model>.json
func (r *Recorder) Record(provider, model string, raw []byte) error {
	if err := os.MkdirAll(r.batchDir, 0o755); err != nil {
		return fmt.Errorf("failed to create call batch directory: %w", err)
	}
	name := provider + "-" + strings.NewReplacer("/", "_", `\`, "_").Replace(model) + ".json"
	if err := os.WriteFile(filepath.Join(r.batchDir, name), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write call record: %w", err)
	}
	r.logger.Debug("Call recorded",
		zap.String("provider", provider),
		logger.Model(model),
		zap.Int("bytes", len(raw)),
	)
	return nil
}
