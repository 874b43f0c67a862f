// Package archive exports and imports the catalog as JSON lines, YAML or
// Parquet.
package archive

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flyerscan/prestations/internal/models"
)

type Format string

const (
	FormatJSONL   Format = "jsonl"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jsonl", ".json":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported file format: %s (supported: .jsonl, .yaml, .parquet)", ext)
	}
}

// ParseFormat accepts a format name as given on the command line.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSONL, FormatYAML, FormatParquet:
		return f, nil
	case "json":
		return FormatJSONL, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want jsonl, yaml or parquet)", name)
	}
}

// Document is the YAML export layout.
type Document struct {
	ExportedAt  string              `yaml:"exportedat"`
	Count       int                 `yaml:"count"`
	Prestations []models.Prestation `yaml:"prestations"`
}

func Write(w io.Writer, f Format, records []models.Prestation) error {
	switch f {
	case FormatJSONL:
		return writeJSONL(w, records)
	case FormatYAML:
		return writeYAML(w, records)
	case FormatParquet:
		return writeParquet(w, records)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

func Read(r io.Reader, f Format) ([]models.Prestation, error) {
	switch f {
	case FormatJSONL:
		return readJSONL(r)
	case FormatYAML:
		return readYAML(r)
	case FormatParquet:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet data: %w", err)
		}
		return readParquet(bytes.NewReader(data), int64(len(data)))
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

// WriteFile exports to path in the format named by its extension.
func WriteFile(path string, records []models.Prestation) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(out, f, records); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	slog.Info("Exported catalog", "path", path, "format", f, "count", len(records))
	return nil
}

// ReadFile imports from path in the format named by its extension.
func ReadFile(path string) ([]models.Prestation, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if f == FormatParquet {
		info, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		return readParquet(file, info.Size())
	}
	return Read(file, f)
}

func writeJSONL(w io.Writer, records []models.Prestation) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, p := range records {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to encode %s: %w", p.ID, err)
		}
	}
	return bw.Flush()
}

// readJSONL reads one record per line. A whole exported JSON array is
// accepted too.
func readJSONL(r io.Reader) ([]models.Prestation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSONL: %w", err)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var all []models.Prestation
		if err := json.Unmarshal(trimmed, &all); err != nil {
			return nil, fmt.Errorf("failed to parse JSON array: %w", err)
		}
		if all == nil {
			all = []models.Prestation{}
		}
		return all, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	records := []models.Prestation{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var p models.Prestation
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL: %w", err)
	}
	return records, nil
}

func writeYAML(w io.Writer, records []models.Prestation) error {
	doc := Document{
		ExportedAt:  time.Now().Format(time.RFC3339),
		Count:       len(records),
		Prestations: records,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func readYAML(r io.Reader) ([]models.Prestation, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []models.Prestation{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Prestations == nil {
		return []models.Prestation{}, nil
	}
	for i := range doc.Prestations {
		if len(doc.Prestations[i].Photos) == 0 {
			doc.Prestations[i].Photos = nil
		}
	}
	return doc.Prestations, nil
}
