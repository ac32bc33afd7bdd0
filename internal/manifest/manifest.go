// Package manifest resolves genome import manifests to dataset file paths.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

// ErrInvalid is returned for manifests that cannot be resolved.
var ErrInvalid = errors.New("invalid manifest")

// Dataset names consumed by the stats report.
const (
	GFF3      = "gff3"
	SeqRegion = "seq_region"
)

// Kind distinguishes the two shapes of a manifest entry.
type Kind int

const (
	// SingleFile entries look like {"file": "<path>"}.
	SingleFile Kind = iota
	// MultiFile entries map sub-names to {"file": "<path>"}.
	MultiFile
)

func (k Kind) String() string {
	if k == MultiFile {
		return "multi-file"
	}
	return "single-file"
}

// DatasetRef is a resolved manifest entry.
type DatasetRef struct {
	Kind  Kind
	Path  string            // set for SingleFile
	Files map[string]string // set for MultiFile
}

// Manifest maps dataset names to resolved file locations.
type Manifest struct {
	Path     string
	Datasets map[string]DatasetRef
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Names returns the dataset names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Datasets))
	for name := range m.Datasets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// File returns the path of a single-file dataset. The bool is false if the
// dataset is absent; an error is returned if it is a multi-file dataset.
func (m *Manifest) File(name string) (string, bool, error) {
	ref, ok := m.Datasets[name]
	if !ok {
		return "", false, nil
	}
	if ref.Kind != SingleFile {
		return "", true, fmt.Errorf("%w: dataset %q is %s", ErrInvalid, name, ref.Kind)
	}
	return ref.Path, true, nil
}

// Load reads the manifest at path and resolves every file reference against
// the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(path, data)
}

// Parse resolves manifest content as if it had been read from path.
func Parse(path string, data []byte) (*Manifest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	m := &Manifest{Path: path, Datasets: make(map[string]DatasetRef, len(raw))}
	root := m.Dir()

	for name, value := range raw {
		entry, ok := decodeObject(value)
		if !ok {
			return nil, fmt.Errorf("%w: dataset %q is not an object", ErrInvalid, name)
		}

		if fileValue, ok := entry["file"]; ok {
			file, err := decodeFile(name, fileValue)
			if err != nil {
				return nil, err
			}
			m.Datasets[name] = DatasetRef{Kind: SingleFile, Path: resolve(root, file)}
			continue
		}

		files := make(map[string]string)
		for sub, subValue := range entry {
			subEntry, ok := decodeObject(subValue)
			if !ok {
				continue
			}
			fileValue, ok := subEntry["file"]
			if !ok {
				continue
			}
			file, err := decodeFile(name+"."+sub, fileValue)
			if err != nil {
				return nil, err
			}
			files[sub] = resolve(root, file)
		}
		m.Datasets[name] = DatasetRef{Kind: MultiFile, Files: files}
	}

	return m, nil
}

func decodeObject(value json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := strings.TrimSpace(string(value))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func decodeFile(name string, value json.RawMessage) (string, error) {
	var file string
	if err := json.Unmarshal(value, &file); err != nil || file == "" {
		return "", fmt.Errorf("%w: dataset %q has no usable file name", ErrInvalid, name)
	}
	return file, nil
}

// resolve joins a manifest-relative file name to the manifest directory.
// Absolute names are kept as they are.
func resolve(root, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(root, file)
}
