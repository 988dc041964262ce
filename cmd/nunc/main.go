// Command nunc updates regulatory documents with a described change, either
// once from the command line or as an HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is replaced at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "nunc",
	Short: "Regulatory document updater",
	Long: `NUNC harmonizes a DOCX document with a described regulatory change,
reports the differences and writes the updated document.

Available commands:
  update  - Update a single document and exit
  serve   - Start the HTTP service (JSON API and web app)
  version - Print the version`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
