package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/discover"
	"github.com/DarlingtonDeveloper/CanvasBabel/link"
)

var (
	discoverBase   string
	discoverSector bool
)

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringVar(&discoverBase, "base", "http://localhost:8080/", "Base URL for the share link")
	discoverCmd.Flags().BoolVar(&discoverSector, "sector", false, "Print the full sector id")
}

var discoverCmd = &cobra.Command{
	Use:   "discover <image>",
	Short: "Find where an image lives in the library",
	Long: `Reads an image file and prints the sector and index it is found at.
The same file always lands on the same slot.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	up, err := readImage(args[0])
	if err != nil {
		return err
	}
	slot := discover.Upload(up)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found in sector %s, canvas %d (%s)\n", address.ShortSector(slot.Sector), slot.Index, up.MIME)
	if discoverSector {
		fmt.Fprintln(out, slot.Sector)
	}
	u, err := link.URL(discoverBase, link.ViewRequest{Sector: slot.Sector, Index: slot.Index, Content: up.DataURL})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, u)
	return nil
}
