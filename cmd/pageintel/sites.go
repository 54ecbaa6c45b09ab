// ABOUTME: sites command listing and deleting indexed sites
// ABOUTME: Talks to the backend directly; the list is briefly cached

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage the backend's indexed sites",
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed sites",
	Args:  cobra.NoArgs,
	RunE:  runSitesList,
}

var sitesDeleteCmd = &cobra.Command{
	Use:   "delete <site-id>",
	Short: "Remove one indexed site",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitesDelete,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
	sitesCmd.AddCommand(sitesListCmd)
	sitesCmd.AddCommand(sitesDeleteCmd)
}

func runSitesList(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	sites, err := a.backend.Sites(context.Background())
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		fmt.Fprintln(os.Stdout, "no sites indexed")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tURL\tTITLE\tCHUNKS")
	for _, s := range sites {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.URL, s.Title, s.ChunkCount)
	}
	return w.Flush()
}

func runSitesDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.backend.DeleteSite(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "deleted %s\n", args[0])
	return nil
}
