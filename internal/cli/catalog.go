package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
)

// DefaultPatterns is used when sync gets no arguments.
var DefaultPatterns = []string{"catalog/**/*.json", "catalog/**/*.{yaml,yml}"}

// ExpandGlobs resolves doublestar patterns to absolute file paths,
// sorted and without duplicates. Directories are skipped.
func ExpandGlobs(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", m, err)
			}
			if info, err := os.Stat(abs); err != nil || info.IsDir() {
				continue
			}
			out = append(out, abs)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// MatchesAny reports whether path matches one of the patterns.
// Relative patterns are resolved against the working directory.
func MatchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if !filepath.IsAbs(p) {
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
		}
		if ok, err := doublestar.PathMatch(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

// catalogFile is the wrapped layout: {"rows": [...]}.
type catalogFile struct {
	Rows []map[string]any `json:"rows" yaml:"rows"`
}

// LoadCatalog reads a JSON or YAML export of catalog rows and maps every row
// to an item. Rows that fail validation are returned as failures, not errors.
func LoadCatalog(path string, defaults catalog.RowDefaults) ([]catalog.Item, []batch.Failure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	records, err := decodeRecords(path, data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}

	items := make([]catalog.Item, 0, len(records))
	var rejected []batch.Failure
	for i, rec := range records {
		row := toRow(rec)
		it, err := catalog.FromRow(row, defaults)
		if err != nil {
			id := row["id"]
			if id == "" {
				id = fmt.Sprintf("%s#%d", filepath.Base(path), i+1)
			}
			rejected = append(rejected, batch.Failure{ID: id, Err: err})
			continue
		}
		items = append(items, it)
	}
	return items, rejected, nil
}

func decodeRecords(path string, data []byte) ([]map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if data[0] == '[' {
			var recs []map[string]any
			if err := json.Unmarshal(data, &recs); err != nil {
				return nil, err
			}
			return recs, nil
		}
		var f catalogFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f.Rows, nil
	case ".yaml", ".yml":
		var recs []map[string]any
		if err := yaml.Unmarshal(data, &recs); err == nil {
			return recs, nil
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f.Rows, nil
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
}

// toRow flattens decoded values into sheet cells.
func toRow(rec map[string]any) catalog.Row {
	row := make(catalog.Row, len(rec))
	for k, v := range rec {
		if s := cell(v); s != "" {
			row[k] = s
		}
	}
	return row
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			if s := cell(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(x)
	}
}
