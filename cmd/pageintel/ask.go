// ABOUTME: ask command answering questions about the loaded page
// ABOUTME: Streams tokens to stdout and prints resolved citations

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pageintel/core/domain"
)

var (
	flagVisual      bool
	flagBackendMode string
	flagHighlight   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the page",
	Long: `Ask queries the backend about the loaded page. Text questions run
against the extracted content blocks and come back with citations;
--visual sends a capture of the page instead and needs no question
(the default prompt asks for a layout description).

Examples:
  pageintel ask "What does this page say about batching?" --page article.html
  pageintel ask --visual --page article.html --capture screen.png
  pageintel ask --visual "What chart is shown?" --capture screen.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVar(&flagVisual, "visual", false, "Analyze a capture of the page instead of its text")
	askCmd.Flags().StringVar(&flagBackendMode, "backend-mode", "", "Override the backend's image analysis mode")
	askCmd.Flags().BoolVar(&flagHighlight, "highlight", false, "Highlight each cited block on the page after answering")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := ""
	if len(args) == 1 {
		question = args[0]
	}
	if question == "" && !flagVisual {
		return fmt.Errorf("a question is required unless --visual is set")
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()

	if flagVisual {
		answer, err := a.panel.AskVisual(ctx, question, flagWindowID, nil, flagBackendMode)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, answer)
		return nil
	}

	if flagPage == "" {
		return fmt.Errorf("a text question needs a page: set --page")
	}

	answer, err := a.panel.Ask(ctx, question, func(token string) {
		fmt.Fprint(os.Stdout, token)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout)

	if answer.Failed {
		return fmt.Errorf("backend error: %s", answer.Text)
	}
	if answer.LowQuality {
		fmt.Fprintln(os.Stderr, "warning: the page extracted below the quality threshold; the answer may rest on thin content")
	}

	printCitations(a, ctx, answer.Citations)
	return nil
}

func printCitations(a *app, ctx context.Context, citations []domain.Citation) {
	if len(citations) == 0 {
		return
	}

	fmt.Fprintln(os.Stdout, "\nSources:")
	for _, c := range citations {
		if block, ok := a.panel.ResolveCitation(c); ok {
			fmt.Fprintf(os.Stdout, "  [%s] %s\n", c.BlockID, snippet(block.Text))
		} else {
			fmt.Fprintf(os.Stdout, "  [%s] (no longer on the page)\n", c.BlockID)
		}
		if flagHighlight {
			a.panel.HighlightCitation(ctx, c.BlockID)
		}
	}
}

func snippet(text string) string {
	const max = 100
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
