// ABOUTME: select command cropping a page region and optionally asking about it
// ABOUTME: Drives the real overlay state machine with a scripted drag

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pageintel/core/selection"
)

var (
	flagRect       string
	flagSelectAsk  string
	flagCropOut    string
	flagWindowSize string
	flagDPR        float64
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select a page region, crop it out of a capture, and optionally ask about it",
	Long: `Select runs the region-selection overlay with a drag described by
--rect, crops the confirmed region out of the capture source, and
writes the crop. With --ask the crop is sent to the backend as a
visual question.

Examples:
  pageintel select --rect 100,100,300,200 --page article.html --capture screen.png --out crop.jpg
  pageintel select --rect 100,100,300,200 --capture screen.png --ask "What is in this table?"`,
	RunE: runSelect,
}

func init() {
	rootCmd.AddCommand(selectCmd)

	selectCmd.Flags().StringVar(&flagRect, "rect", "", "Region to select as x,y,width,height in page pixels (required)")
	selectCmd.Flags().StringVar(&flagSelectAsk, "ask", "", "Question to ask about the cropped region")
	selectCmd.Flags().StringVar(&flagCropOut, "out", "", "File to write the cropped JPEG to")
	selectCmd.Flags().StringVar(&flagWindowSize, "window-size", "1280x800", "Viewport size as WIDTHxHEIGHT")
	selectCmd.Flags().Float64Var(&flagDPR, "dpr", 1, "Device pixel ratio reported with the selection")
	selectCmd.MarkFlagRequired("rect")
}

func runSelect(cmd *cobra.Command, args []string) error {
	if flagPage == "" {
		return fmt.Errorf("select needs a page: set --page")
	}
	x, y, w, h, err := parseRect(flagRect)
	if err != nil {
		return err
	}
	if w < selection.MinDimension || h < selection.MinDimension {
		return fmt.Errorf("region too small: both dimensions must be at least %d pixels", selection.MinDimension)
	}
	width, height, err := parseWindowSize(flagWindowSize)
	if err != nil {
		return err
	}

	surface := newDragSurface(x, y, w, h, width, height, flagDPR)

	a, err := newApp(surface)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()

	result, err := a.panel.CropRegion(ctx, flagWindowID)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintln(os.Stdout, "selection cancelled")
		return nil
	}

	fmt.Fprintf(os.Stdout, "cropped %dx%d region, accent #%02x%02x%02x\n",
		result.Width, result.Height, result.Accent.R, result.Accent.G, result.Accent.B)

	if flagCropOut != "" {
		if err := os.WriteFile(flagCropOut, result.Image, 0644); err != nil {
			return fmt.Errorf("writing crop: %w", err)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", flagCropOut)
	}

	if flagSelectAsk != "" {
		answer, err := a.panel.AskVisual(ctx, flagSelectAsk, flagWindowID, result.Image, flagBackendMode)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, answer)
	}
	return nil
}

func parseRect(s string) (x, y, w, h float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("invalid --rect %q: want x,y,width,height", s)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid --rect %q: %w", s, err)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

func parseWindowSize(s string) (width, height float64, err error) {
	parts := strings.Split(s, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid --window-size %q: want WIDTHxHEIGHT", s)
	}
	width, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, err
	}
	height, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

// dragSurface feeds the overlay one scripted drag and confirm.
type dragSurface struct {
	events              chan selection.Event
	width, height, dpr  float64
}

func newDragSurface(x, y, w, h, width, height, dpr float64) *dragSurface {
	events := make(chan selection.Event, 5)
	events <- selection.Event{Kind: selection.EventPointerDown, X: x, Y: y}
	events <- selection.Event{Kind: selection.EventPointerMove, X: x + w, Y: y + h}
	events <- selection.Event{Kind: selection.EventPointerUp}
	events <- selection.Event{Kind: selection.EventConfirm}
	// Backstop: if the drag was discarded the confirm is ignored, and
	// this resolves the overlay as cancelled instead of hanging.
	events <- selection.Event{Kind: selection.EventCancel}
	return &dragSurface{events: events, width: width, height: height, dpr: dpr}
}

func (s *dragSurface) Show()                     {}
func (s *dragSurface) UpdateBox(selection.Box)   {}
func (s *dragSurface) HideBox()                  {}
func (s *dragSurface) ShowToolbar(selection.Box) {}
func (s *dragSurface) HideToolbar()              {}
func (s *dragSurface) Teardown()                 {}
func (s *dragSurface) Metrics() (float64, float64, float64) {
	return s.width, s.height, s.dpr
}
func (s *dragSurface) Events() <-chan selection.Event { return s.events }
