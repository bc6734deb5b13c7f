package roadmap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
)

// Document is one precomputed corpus row.
type Document struct {
	DocID     string
	CareerID  string
	StageID   string
	AreaID    string
	Text      string
	Embedding []float64
}

// Hit is a document with its similarity to the query.
type Hit struct {
	Document
	Score float64
}

// Cosine returns the cosine similarity of a and b. Zero-norm vectors and
// vectors of different length have similarity 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	// Components are divided by each vector's largest magnitude first so the
	// squared sums neither overflow nor underflow for extreme values.
	sa, sb := maxAbs(a), maxAbs(b)
	if sa == 0 || sb == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := a[i]/sa, b[i]/sb
		dot += x * y
		na += x * x
		nb += y * y
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(sim) {
		// NaN or infinite components
		return 0
	}
	// rounding can push parallel vectors just past ±1
	return math.Max(-1, math.Min(1, sim))
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if ax := math.Abs(x); ax > m || math.IsNaN(x) {
			m = ax
		}
	}
	return m
}

// Collection is one job's corpus. Immutable after construction.
type Collection struct {
	Job  string
	docs []Document
}

// NewCollection builds a collection, keeping the first row of any repeated doc_id.
func NewCollection(job string, docs []Document) *Collection {
	seen := make(map[string]bool, len(docs))
	kept := make([]Document, 0, len(docs))
	for _, d := range docs {
		if seen[d.DocID] {
			slog.Warn("index: duplicate doc_id dropped", slog.String("job", job), slog.String("doc_id", d.DocID))
			continue
		}
		seen[d.DocID] = true
		kept = append(kept, d)
	}
	return &Collection{Job: job, docs: kept}
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.docs)
}

// TopK returns the k most similar documents, best first. Ties keep corpus
// order; k is clamped to the collection size and k <= 0 yields no hits.
func (c *Collection) TopK(query []float64, k int) []Hit {
	if c == nil || k <= 0 {
		return []Hit{}
	}
	hits := make([]Hit, len(c.docs))
	for i, d := range c.docs {
		hits[i] = Hit{Document: d, Score: Cosine(query, d.Embedding)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

// IndexSet lazily loads one Collection per job from dir/<job_key>_embeddings.csv
// and keeps it for the life of the process.
type IndexSet struct {
	dir   string
	mu    sync.RWMutex
	cols  map[string]*Collection
	group singleflight.Group
}

func NewIndexSet(dir string) *IndexSet {
	return &IndexSet{dir: dir, cols: map[string]*Collection{}}
}

// CorpusPath returns the embeddings file for a job.
func CorpusPath(dir, job string) string {
	return filepath.Join(dir, engine.NormalizeJobKey(job)+"_embeddings.csv")
}

// Get returns the job's collection, loading it on first use. A job without a
// corpus file yields an error wrapping engine.ErrNotFound; failed loads are retried
// on the next call.
func (s *IndexSet) Get(ctx context.Context, job string) (*Collection, error) {
	key := engine.NormalizeJobKey(job)
	if key == "" {
		return nil, fmt.Errorf("index: empty job: %w", engine.ErrNotFound)
	}

	s.mu.RLock()
	col, ok := s.cols[key]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		s.mu.RLock()
		col, ok := s.cols[key]
		s.mu.RUnlock()
		if ok {
			return col, nil
		}
		col, err := s.load(key)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cols[key] = col
		s.mu.Unlock()
		return col, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Collection), nil
	}
}

func (s *IndexSet) load(key string) (*Collection, error) {
	path := CorpusPath(s.dir, key)
	docs, err := ReadCorpusFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("index: no corpus for %q: %w", key, engine.ErrNotFound)
		}
		return nil, fmt.Errorf("index: load %s: %w", path, err)
	}
	col := NewCollection(key, docs)
	slog.Info("index: corpus loaded", slog.String("job", key), slog.Int("docs", col.Len()))
	return col, nil
}

// Preload loads the given jobs concurrently. Missing corpora are logged and skipped;
// any other failure is returned.
func (s *IndexSet) Preload(ctx context.Context, jobs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, job := range jobs {
		g.Go(func() error {
			_, err := s.Get(gctx, job)
			if errors.Is(err, engine.ErrNotFound) {
				slog.Warn("index: preload skipped", slog.String("job", job), slog.Any("error", err))
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// Jobs lists the job keys currently loaded.
func (s *IndexSet) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.cols))
	for k := range s.cols {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
