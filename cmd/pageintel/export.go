// ABOUTME: export command downloading an indexed site's content
// ABOUTME: Writes the backend's export blob to a file or stdout

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagExportFormat string
	flagExportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <site-url>",
	Short: "Export an indexed site's content",
	Long: `Export downloads everything the backend indexed for a site, as JSON
or plain text.

Examples:
  pageintel export https://example.com/docs --format json --out docs.json
  pageintel export https://example.com/docs --format text`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&flagExportFormat, "format", "json", "Export format: json or text")
	exportCmd.Flags().StringVar(&flagExportOut, "out", "", "File to write to (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	data, err := a.backend.Export(context.Background(), args[0], flagExportFormat)
	if err != nil {
		return err
	}

	if flagExportOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flagExportOut, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s (%d bytes)\n", flagExportOut, len(data))
	return nil
}
