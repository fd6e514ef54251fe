package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/denysvitali/photowall-server/internal/models"
)

// Format selects how a manifest is rendered
type Format string

const (
	FormatJS   Format = "js"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJS, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown manifest format %q (want js, json or yaml)", s)
	}
}

// DefaultScanExtensions are the media types picked up by the scan command
// when no extensions are configured for an alias.
var DefaultScanExtensions = map[string][]string{
	"photos": {".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"},
	"music":  {".mp3", ".wav", ".ogg", ".m4a", ".flac"},
}

// ScanResult is the outcome of scanning one alias
type ScanResult struct {
	Alias   string
	Files   models.FileListing
	Missing bool
}

// ScanAll scans every alias in order. filters maps an alias to the
// extensions it keeps; aliases without an entry keep every file.
func (l *Library) ScanAll(ctx context.Context, aliases []string, filters map[string][]string) ([]ScanResult, error) {
	results := make([]ScanResult, 0, len(aliases))
	for _, alias := range aliases {
		files, err := l.Scan(ctx, alias, filters[alias])
		switch {
		case errors.Is(err, ErrNotFound):
			l.logger.Warnf("Asset directory not found: %s", l.Dir(alias))
			results = append(results, ScanResult{Alias: alias, Files: models.FileListing{}, Missing: true})
		case err != nil:
			return nil, fmt.Errorf("failed to scan %s: %w", alias, err)
		default:
			results = append(results, ScanResult{Alias: alias, Files: files})
		}
	}
	return results, nil
}

// Manifest collects scan results into a manifest
func Manifest(results []ScanResult) models.Manifest {
	m := make(models.Manifest, len(results))
	for _, r := range results {
		m[r.Alias] = r.Files
	}
	return m
}

// WriteManifest renders the scan results in the given format. urlPrefix is
// the slash separated path under which the asset root is served, used by
// the js format to build file URLs.
func WriteManifest(w io.Writer, format Format, urlPrefix string, results []ScanResult) error {
	switch format {
	case FormatJS:
		return writeJS(w, urlPrefix, results)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Manifest(results))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(Manifest(results)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown manifest format %q", format)
	}
}

func writeJS(w io.Writer, urlPrefix string, results []ScanResult) error {
	var b strings.Builder

	b.WriteString("// Generated by photowall scan. Do not edit.\n\n")
	b.WriteString("const FILE_LIST = {\n")
	for i, r := range results {
		fmt.Fprintf(&b, "    %s: [\n", jsQuote(r.Alias))
		for j, name := range r.Files {
			b.WriteString("        " + jsQuote(name))
			if j < len(r.Files)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString("    ]")
		if i < len(results)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("};\n\n")

	for _, r := range results {
		key := jsQuote(r.Alias)
		prefix := jsQuote(path.Join(urlPrefix, r.Alias) + "/")
		fmt.Fprintf(&b, "FILE_LIST[%s] = FILE_LIST[%s].map(file => %s + file);\n", key, key, prefix)
	}

	b.WriteString("\nif (typeof module !== 'undefined' && module.exports) {\n")
	b.WriteString("    module.exports = FILE_LIST;\n")
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

func jsQuote(s string) string {
	return "'" + jsEscaper.Replace(s) + "'"
}
