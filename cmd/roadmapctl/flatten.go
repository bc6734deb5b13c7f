package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_roadmap/internal/engine/roadmap"
)

var flattenOut string

var flattenCmd = &cobra.Command{
	Use:   "flatten <roadmap-file>...",
	Short: "Render canonical roadmaps into the flat corpus CSV (no embeddings)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFlatten,
}

func init() {
	flattenCmd.Flags().StringVarP(&flattenOut, "out", "o", "", "output CSV (default stdout)")
	rootCmd.AddCommand(flattenCmd)
}

func runFlatten(cmd *cobra.Command, args []string) error {
	var docs []roadmap.Document
	for _, path := range args {
		r, err := roadmap.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		docs = append(docs, roadmap.Flatten(r)...)
	}

	if flattenOut != "" {
		if err := roadmap.WriteCorpusFile(flattenOut, docs, false); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d items to %s\n", len(docs), flattenOut)
		return nil
	}
	return roadmap.WriteCorpus(cmd.OutOrStdout(), docs, false)
}
