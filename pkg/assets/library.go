package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/denysvitali/photowall-server/internal/models"
	"github.com/denysvitali/photowall-server/pkg/config"
)

// ErrNotFound is returned by Scan when an alias directory does not exist.
var ErrNotFound = errors.New("asset directory not found")

// Library lists the files stored under the asset root
type Library struct {
	root         string
	defaultAlias string
	extensions   map[string][]string
	logger       *logrus.Logger
	tracer       trace.Tracer
}

// New creates a new asset library from the configuration
func New(cfg *config.Config, logger *logrus.Logger) *Library {
	return &Library{
		root:         cfg.AssetRoot(),
		defaultAlias: cfg.Assets.DefaultDir,
		extensions:   cfg.Assets.Extensions,
		logger:       logger,
		tracer:       otel.Tracer("photowall-server"),
	}
}

// Root returns the asset root directory
func (l *Library) Root() string {
	return l.root
}

// Dir resolves an alias to its directory. An empty alias selects the
// default one.
func (l *Library) Dir(alias string) string {
	if alias == "" {
		alias = l.defaultAlias
	}
	return filepath.Join(l.root, alias)
}

// List returns the sorted names of the regular files directly inside the
// alias directory, creating the directory first if it does not exist.
func (l *Library) List(ctx context.Context, alias string) (models.FileListing, error) {
	_, span := l.tracer.Start(ctx, "list_files")
	defer span.End()

	if alias == "" {
		alias = l.defaultAlias
	}
	dir := l.Dir(alias)
	span.SetAttributes(
		attribute.String("alias", alias),
		attribute.String("path", dir),
	)

	if err := os.MkdirAll(dir, 0755); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create asset directory %s: %w", dir, err)
	}

	files, err := readFiles(dir, l.extensions[alias])
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(files)))
	l.logger.WithFields(logrus.Fields{
		"alias": alias,
		"count": len(files),
	}).Debug("Listed asset directory")

	return files, nil
}

// Scan lists an alias directory without creating it. It returns
// ErrNotFound if the directory is missing. A nil extensions slice keeps
// every regular file.
func (l *Library) Scan(ctx context.Context, alias string, extensions []string) (models.FileListing, error) {
	_, span := l.tracer.Start(ctx, "scan_files")
	defer span.End()

	dir := l.Dir(alias)
	span.SetAttributes(attribute.String("path", dir))

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return models.FileListing{}, fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	return readFiles(dir, extensions)
}

// readFiles reads dir and keeps regular files (symlinks followed) whose
// extension is in extensions, if any are given.
func readFiles(dir string, extensions []string) (models.FileListing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset directory %s: %w", dir, err)
	}

	files := models.FileListing{}
	for _, entry := range entries {
		name := entry.Name()
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			// Dangling symlink or entry removed since ReadDir
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if len(extensions) > 0 && !hasExtension(name, extensions) {
			continue
		}
		files = append(files, name)
	}

	sort.Strings(files)
	return files, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, candidate := range extensions {
		if strings.ToLower(candidate) == ext {
			return true
		}
	}
	return false
}
