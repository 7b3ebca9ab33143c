package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
)

var sectorShort bool

func init() {
	rootCmd.AddCommand(sectorCmd)
	sectorCmd.AddCommand(sectorRandomCmd)
	sectorCmd.AddCommand(sectorCheckCmd)

	sectorRandomCmd.Flags().BoolVar(&sectorShort, "short", false, "Also print the abbreviated form")
}

var sectorCmd = &cobra.Command{
	Use:   "sector",
	Short: "Generate and validate sector ids",
}

var sectorRandomCmd = &cobra.Command{
	Use:   "random",
	Short: "Print a fresh random sector id",
	Args:  cobra.NoArgs,
	RunE:  runSectorRandom,
}

var sectorCheckCmd = &cobra.Command{
	Use:   "check <sector>",
	Short: "Validate a sector id",
	Args:  cobra.ExactArgs(1),
	RunE:  runSectorCheck,
}

func runSectorRandom(cmd *cobra.Command, args []string) error {
	sector, err := address.NewSector()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sector)
	if sectorShort {
		fmt.Fprintln(cmd.OutOrStdout(), address.ShortSector(sector))
	}
	return nil
}

func runSectorCheck(cmd *cobra.Command, args []string) error {
	sector, err := readSectorArg(cmd, args[0])
	if err != nil {
		return err
	}
	if err := address.ValidateSector(sector); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", address.ShortSector(sector))
	return nil
}
