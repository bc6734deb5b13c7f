package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_roadmap/internal/engine/roadmap"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRepairCommand(t *testing.T) {
	out, stderr, err := execute(t, "Here you go:\n```json\n{\"stages\": [],}\n```", "repair")
	require.NoError(t, err)
	assert.Contains(t, stderr, "stage: fenced_extracted")
	assert.JSONEq(t, `{"stages": []}`, out)
}

func TestRepairCommandFails(t *testing.T) {
	_, stderr, err := execute(t, "no json here", "repair")
	require.Error(t, err)
	assert.Contains(t, stderr, "stage: failed")
}

func TestFlattenCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "ml.yaml")
	require.NoError(t, os.WriteFile(in, []byte(`career_id: ml
career_name: Machine Learning
stages:
  - id: s1
    name: Foundations
    areas:
      - id: a1
        name: Math
        items:
          - id: ml-001
            title: Linear algebra
`), 0o644))
	out := filepath.Join(dir, "ml_flat.csv")

	flattenOut = ""
	t.Cleanup(func() { flattenOut = "" })
	_, _, err := execute(t, "", "flatten", in, "-o", out)
	require.NoError(t, err)

	docs, err := roadmap.ReadCorpusFile(out)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ml-001", docs[0].DocID)
	assert.Equal(t, "s1", docs[0].StageID)
	assert.Nil(t, docs[0].Embedding)
}

func TestEmbedOutput(t *testing.T) {
	t.Setenv("EMBEDDINGS_DIR", "/srv/emb")
	embedJob, embedOut = "", ""
	t.Cleanup(func() { embedJob, embedOut = "", "" })

	got, err := embedOutput("corpus/machine_learning_flat.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/emb", "machine_learning_embeddings.csv"), got)

	embedJob = "Data Engineer"
	got, err = embedOutput("x.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/emb", "data_engineer_embeddings.csv"), got)

	embedOut = "out.csv"
	got, err = embedOutput("x.csv")
	require.NoError(t, err)
	assert.Equal(t, "out.csv", got)
}
