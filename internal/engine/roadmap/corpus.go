package roadmap

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var corpusColumns = []string{"doc_id", "career_id", "stage_id", "area_id", "text"}

// ReadCorpus parses a corpus CSV (optionally BOM-prefixed). Columns are found
// by header name; the embedding column is optional so flattened files read too.
func ReadCorpus(r io.Reader) ([]Document, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(3); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("corpus: empty file")
		}
		return nil, fmt.Errorf("corpus: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, name := range []string{"doc_id", "text"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("corpus: missing column %q", name)
		}
	}

	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var docs []Document
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
		d := Document{
			DocID:    get(rec, "doc_id"),
			CareerID: get(rec, "career_id"),
			StageID:  get(rec, "stage_id"),
			AreaID:   get(rec, "area_id"),
			Text:     get(rec, "text"),
		}
		if raw := strings.TrimSpace(get(rec, "embedding")); raw != "" {
			if err := json.Unmarshal([]byte(raw), &d.Embedding); err != nil {
				return nil, fmt.Errorf("corpus: row %d (%s): bad embedding: %w", line, d.DocID, err)
			}
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// ReadCorpusFile reads a corpus CSV from disk.
func ReadCorpusFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCorpus(f)
}

// WriteCorpus writes docs as a BOM-prefixed CSV. The embedding column is
// included when withEmbedding is set and holds a bracketed number list.
func WriteCorpus(w io.Writer, docs []Document, withEmbedding bool) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := corpusColumns
	if withEmbedding {
		header = append(append([]string(nil), corpusColumns...), "embedding")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range docs {
		rec := []string{d.DocID, d.CareerID, d.StageID, d.AreaID, d.Text}
		if withEmbedding {
			rec = append(rec, formatVector(d.Embedding))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCorpusFile writes the corpus to path, replacing it atomically.
func WriteCorpusFile(path string, docs []Document, withEmbedding bool) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := WriteCorpus(f, docs, withEmbedding); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
