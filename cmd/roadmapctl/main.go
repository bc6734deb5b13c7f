// Command roadmapctl builds the retrieval corpus offline and debugs model output.
//
//	roadmapctl flatten data/roadmaps/machine_learning.json -o machine_learning_flat.csv
//	roadmapctl embed machine_learning_flat.csv --job "machine learning"
//	roadmapctl repair < answer.txt
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "roadmapctl",
	Short:        "Corpus and repair tooling for go_roadmap",
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
