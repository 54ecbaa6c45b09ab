// ABOUTME: Root command and global flags for the pageintel CLI
// ABOUTME: Page, capture, and window options are shared by every subcommand

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flag variables.
var (
	flagPage     string
	flagPageURL  string
	flagCapture  string
	flagWindowID string
)

var rootCmd = &cobra.Command{
	Use:   "pageintel",
	Short: "Ask questions about web pages with cited answers",
	Long: `pageintel extracts the readable content of a page, queries the
intelligence backend about it, and ties every claim in the answer back
to the exact block of the page it came from.

Examples:
  pageintel ask "What does this page say about batching?" --page article.html
  pageintel ask --visual --page article.html
  pageintel select --rect 100,100,300,200 --page article.html
  pageintel ingest https://example.com/docs --crawl
  pageintel sites list`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPage, "page", "", "Page to operate on: a local HTML file or an http(s) URL")
	rootCmd.PersistentFlags().StringVar(&flagPageURL, "page-url", "", "Document URL reported for a local HTML file")
	rootCmd.PersistentFlags().StringVar(&flagCapture, "capture", "", "Raster image standing in for the visible tab (overrides CAPTURE_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&flagWindowID, "window", "window-1", "Window identifier used for captures")
}
