package roadmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

// CanonicalStore reads canonical roadmaps from dir/<job_key>.{json,yaml,yml}.
// Every Load reads the file again, so edits apply to the next request.
type CanonicalStore struct {
	Dir string
}

// Load returns the canonical roadmap for job. A missing file yields an error
// wrapping engine.ErrNotFound.
func (s CanonicalStore) Load(job string) (*Roadmap, error) {
	key := engine.NormalizeJobKey(job)
	if key == "" {
		return nil, fmt.Errorf("roadmap: empty job: %w", engine.ErrNotFound)
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(s.Dir, key+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("roadmap: read %s: %w", path, err)
		}
		return decodeRoadmap(data, ext)
	}
	return nil, fmt.Errorf("roadmap file for job %q not found: %w", job, engine.ErrNotFound)
}

// LoadFile reads a single roadmap file; the format follows its extension.
func LoadFile(path string) (*Roadmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeRoadmap(data, filepath.Ext(path))
}

func decodeRoadmap(data []byte, ext string) (*Roadmap, error) {
	var r Roadmap
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("roadmap: decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("roadmap: decode json: %w", err)
		}
	}
	return &r, nil
}
