package roadmap

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

const yamlRoadmap = `career_id: data_engineer
career_name: Data Engineer
stages:
  - id: s1
    name: Basics
    recommended_semesters: 2
    areas:
      - id: a1
        name: Storage
        items:
          - id: de-001
            title: SQL
            tags: [sql, databases]
            estimated_hours: 12.5
            order_index: 1
`

func TestCanonicalStore_JSON(t *testing.T) {
	dir := t.TempDir()
	data, err := json.Marshal(sampleRoadmap())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "machine_learning.json"), data, 0o644))

	r, err := CanonicalStore{Dir: dir}.Load("Machine Learning")
	require.NoError(t, err)
	assert.Equal(t, sampleRoadmap(), r)
}

func TestCanonicalStore_YAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data_engineer.yaml"), []byte(yamlRoadmap), 0o644))

	r, err := CanonicalStore{Dir: dir}.Load("data engineer")
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", r.CareerName)
	require.Len(t, r.Stages, 1)
	assert.Equal(t, "2", r.Stages[0].RecommendedSemesters.String())
	it := r.Stages[0].Areas[0].Items[0]
	assert.Equal(t, "de-001", it.ID)
	assert.Equal(t, []string{"sql", "databases"}, it.Tags)
	assert.InDelta(t, 12.5, it.EstimatedHours, 1e-9)
}

func TestCanonicalStore_NotFound(t *testing.T) {
	_, err := CanonicalStore{Dir: t.TempDir()}.Load("astronaut")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrNotFound))
	assert.Contains(t, err.Error(), "astronaut")

	_, err = CanonicalStore{Dir: t.TempDir()}.Load("")
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

func TestCanonicalStore_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ml.json"), []byte(`{"stages": [`), 0o644))

	_, err := CanonicalStore{Dir: dir}.Load("ml")
	require.Error(t, err)
	assert.False(t, errors.Is(err, engine.ErrNotFound))
}
