package terms

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "termgraph/pkg/errors"
	"termgraph/pkg/logger"

	"go.uber.org/zap"
)

// Store persists one term map per model as <dir>/<escaped model>.json.
// Model ids are path escaped, so gateway ids such as "ollama/llama3" map to one file.
type Store struct {
	dir    string
	root   string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir. root seeds maps of models with no usable file.
func NewStore(dir, root string) *Store {
	return &Store{
		dir:    dir,
		root:   root,
		logger: logger.Named("terms"),
	}
}

// Dir returns the directory holding the term files
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing model
func (s *Store) Path(model string) (string, error) {
	name, err := fileName(model)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+".json"), nil
}

func fileName(model string) (string, error) {
	if model == "" || model == "." || model == ".." {
		return "", apperrors.NewStoreInvalidModel(model)
	}
	name := url.PathEscape(model)
	// dot files are temp files and skipped by List
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return name, nil
}

// Load reads the map of model. A missing, unreadable, corrupt or empty file
// yields a fresh map holding only the root term.
func (s *Store) Load(model string) (*Map, error) {
	path, err := s.Path(model)
	if err != nil {
		return nil, err
	}

	m, err := s.read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Term store unreadable, reseeding",
				logger.Model(model),
				zap.Error(apperrors.NewStoreReadFailed(path, err)),
			)
		}
		return NewMap(s.root), nil
	}
	if m.Len() == 0 {
		s.logger.Warn("Term store empty, reseeding", logger.Model(model))
		return NewMap(s.root), nil
	}
	return m, nil
}

// Exists reports whether model has a term file
func (s *Store) Exists(model string) bool {
	path, err := s.Path(model)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (s *Store) read(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Map{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	if m.entries == nil {
		return nil, fmt.Errorf("no term object in file")
	}
	return m, nil
}

// Save replaces the file of model with the full map.
// The map is written to a temp file in the same directory, synced, then renamed into place.
func (s *Store) Save(model string, m *Map) error {
	name, err := fileName(model)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, name+".json")

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return apperrors.NewStoreWriteFailed(path, err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return apperrors.NewStoreWriteFailed(path, fmt.Errorf("failed to marshal terms: %w", err))
	}

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*.json")
	if err != nil {
		return apperrors.NewStoreWriteFailed(path, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return apperrors.NewStoreWriteFailed(path, err)
	}
	if err := tmpFile.Sync(); err != nil {
		return apperrors.NewStoreWriteFailed(path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return apperrors.NewStoreWriteFailed(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return apperrors.NewStoreWriteFailed(path, err)
	}

	s.logger.Debug("Term store saved",
		logger.Model(model),
		zap.Int("terms", m.Len()),
	)
	return nil
}

// List returns the models that have a term file, sorted by name
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list term stores: %w", err)
	}

	models := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		model, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.logger.Warn("Skipping term file with undecodable name", zap.String("file", name))
			continue
		}
		models = append(models, model)
	}
	sort.Strings(models)
	return models, nil
}
