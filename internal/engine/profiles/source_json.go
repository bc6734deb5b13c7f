package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSONFileSource reads a JSON array of raw profile records from disk.
type JSONFileSource struct {
	Path string
}

func (s JSONFileSource) Name() string { return "json:" + s.Path }

func (s JSONFileSource) Load(_ context.Context) ([]Raw, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	var records []Raw
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return records, nil
}
