package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_roadmap/internal/engine/roadmap"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Run the model-output repair chain on stdin",
	Long: `Reads a raw chat answer from stdin, prints the recovered JSON object to stdout
and the stage that recovered it to stderr. Exits non-zero when nothing could be recovered.`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, _ []string) error {
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return err
	}
	rep := roadmap.Repair(string(raw))
	fmt.Fprintf(cmd.ErrOrStderr(), "stage: %s\n", rep.State)
	if !rep.OK() {
		return errors.New("no JSON object could be recovered")
	}
	if cand, ok := roadmap.ParseCandidate(rep.Value); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "candidate items: %d\n", cand.Len())
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rep.Value)
}
