package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_roadmap/internal/engine"
	"github.com/anatolykoptev/go_roadmap/internal/engine/roadmap"
)

var (
	embedJob string
	embedOut string
)

var embedCmd = &cobra.Command{
	Use:   "embed <flat-csv>",
	Short: "Add embeddings to a flat corpus CSV and write <job>_embeddings.csv",
	Long: `Reads a corpus produced by "flatten", embeds every row with the CLOVA
embedding API (paced by PACE_MODE) and writes the embeddings CSV the server loads.
The output file is locked while the run is in progress and replaced atomically at the end;
any failed call aborts the run without touching the existing file.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVar(&embedJob, "job", "", "job name; the output goes to EMBEDDINGS_DIR/<job_key>_embeddings.csv")
	embedCmd.Flags().StringVarP(&embedOut, "out", "o", "", "output path (overrides --job)")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	out, err := embedOutput(args[0])
	if err != nil {
		return err
	}

	docs, err := roadmap.ReadCorpusFile(args[0])
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	lock := flock.New(out + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", out, err)
	}
	if !locked {
		return fmt.Errorf("another embed run is writing %s", out)
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := engine.Config{
		PaceMode: env.Str("PACE_MODE", "random"),
		PaceMin:  env.Duration("PACE_MIN", 300*time.Millisecond),
		PaceMax:  env.Duration("PACE_MAX", 700*time.Millisecond),
		PaceRPS:  env.Float("PACE_RPS", 2),
	}
	client := engine.NewClovaClient(
		env.Str("CLOVA_BASE_URL", "https://clovastudio.stream.ntruss.com"),
		env.Str("NCP_API_KEY", ""),
		env.Duration("EMBEDDING_TIMEOUT", 60*time.Second),
	)
	client.WithRetry(engine.DefaultRetryConfig)
	embedder := roadmap.NewEmbedder(client, env.Str("EMBEDDING_PATH", "/v1/api-tools/embedding/v2"), engine.NewPacer(c))

	start := time.Now()
	for i := range docs {
		vec, err := embedder.Embed(ctx, docs[i].Text)
		if err != nil {
			return fmt.Errorf("row %d (%s): %w", i+1, docs[i].DocID, err)
		}
		docs[i].Embedding = vec
		fmt.Fprintf(cmd.ErrOrStderr(), "\r%d/%d", i+1, len(docs))
	}
	fmt.Fprintln(cmd.ErrOrStderr())

	if err := roadmap.WriteCorpusFile(out, docs, true); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d embeddings to %s in %s\n", len(docs), out, time.Since(start).Round(time.Second))
	return nil
}

// embedOutput resolves the destination; without flags the job is taken from
// the input name ("machine_learning_flat.csv" → machine_learning).
func embedOutput(in string) (string, error) {
	if embedOut != "" {
		return embedOut, nil
	}
	job := embedJob
	if job == "" {
		job = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)), "_flat")
	}
	if engine.NormalizeJobKey(job) == "" {
		return "", fmt.Errorf("cannot derive a job name from %s; pass --job or --out", in)
	}
	dir := env.Str("EMBEDDINGS_DIR", filepath.Join(env.Str("DATA_DIR", "./data"), "embeddings"))
	return roadmap.CorpusPath(dir, job), nil
}
