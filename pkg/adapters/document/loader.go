// Package document loads state-chart definitions from SCXML and YAML files.
package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
)

// Format identifies a definition encoding.
type Format string

const (
	FormatSCXML Format = "scxml"
	FormatYAML  Format = "yaml"
)

// DetectFormat picks the format from the file extension, falling back to
// sniffing the content for a leading '<'.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".scxml", ".xml":
		return FormatSCXML
	case ".yaml", ".yml":
		return FormatYAML
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("<")) {
		return FormatSCXML
	}
	return FormatYAML
}

// Parse decodes data in the given format.
func Parse(format Format, data []byte) (*domain.Definition, error) {
	switch format {
	case FormatSCXML:
		return ParseSCXML(bytes.NewReader(data))
	case FormatYAML:
		return ParseYAML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}
}

// Loader reads definitions from the filesystem.
type Loader struct{}

// NewLoader creates a filesystem loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ ports.DefinitionLoader = (*Loader)(nil)

// Load reads the definition at path. Relative data sources are resolved
// against the directory of the definition file.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}

	def, err := Parse(DetectFormat(path, data), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definition %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range def.Data {
		if src := def.Data[i].Src; src != "" && !filepath.IsAbs(src) {
			def.Data[i].Src = filepath.Join(dir, src)
		}
	}
	def.Source = path
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}
