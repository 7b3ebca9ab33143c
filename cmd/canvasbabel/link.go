package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/intake"
	"github.com/DarlingtonDeveloper/CanvasBabel/link"
)

var (
	linkBase  string
	linkImage string
)

func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.AddCommand(linkEncodeCmd)
	linkCmd.AddCommand(linkDecodeCmd)

	linkEncodeCmd.Flags().StringVar(&linkBase, "base", "http://localhost:8080/", "Base URL")
	linkEncodeCmd.Flags().StringVar(&linkImage, "image", "", "Embed this image file as uploaded content")
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Build and read shareable links",
}

var linkEncodeCmd = &cobra.Command{
	Use:   "encode <sector> <index>",
	Short: "Print the share link for a slot",
	Args:  cobra.ExactArgs(2),
	RunE:  runLinkEncode,
}

var linkDecodeCmd = &cobra.Command{
	Use:   "decode <url>",
	Short: "Print the slot a share link points at",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkDecode,
}

func runLinkEncode(cmd *cobra.Command, args []string) error {
	slot, err := slotArgs(cmd, args)
	if err != nil {
		return err
	}
	req := link.ViewRequest{Sector: slot.Sector, Index: slot.Index}
	if linkImage != "" {
		up, err := readImage(linkImage)
		if err != nil {
			return err
		}
		req.Content = up.DataURL
	}
	u, err := link.URL(linkBase, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), u)
	return nil
}

func runLinkDecode(cmd *cobra.Command, args []string) error {
	req, err := link.Parse(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sector %s\n", address.ShortSector(req.Sector))
	fmt.Fprintf(out, "canvas %d\n", req.Index)
	if req.Uploaded() {
		typ, raw, err := intake.ParseDataURL(req.Content)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "uploaded %s, %d bytes\n", typ, len(raw))
	}
	fmt.Fprintln(out, req.Slot().Key())
	return nil
}
