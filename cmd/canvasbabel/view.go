package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/link"
	"github.com/DarlingtonDeveloper/CanvasBabel/session"
)

var (
	viewLink   string
	viewBase   string
	viewDB     string
	viewToggle bool
	viewSave   string
)

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringVar(&viewLink, "link", "", "Open a share link instead of <sector> <index>")
	viewCmd.Flags().StringVar(&viewBase, "base", "http://localhost:8080/", "Base URL for the share link")
	viewCmd.Flags().StringVar(&viewDB, "db", "", "SQLite database path (default ~/.canvasbabel/bookmarks.db)")
	viewCmd.Flags().BoolVar(&viewToggle, "toggle", false, "Add or remove the canvas from bookmarks")
	viewCmd.Flags().StringVar(&viewSave, "save", "", "Save the canvas into this directory")
}

var viewCmd = &cobra.Command{
	Use:   "view [<sector> <index>]",
	Short: "Open a canvas: bookmark it, share it, save it",
	Long: `Opens one canvas the way the gallery viewer does and prints its share
link and bookmark state. Uploaded canvases are opened from their link.

Example:
  canvasbabel view @sector.txt 42 --toggle
  canvasbabel view --link 'http://localhost:8080/?sector=...&canvas=7' --save .`,
	Args: func(cmd *cobra.Command, args []string) error {
		if viewLink != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	store, err := openBookmarks(viewDB)
	if err != nil {
		return err
	}
	defer store.Close()

	sess := session.New(store)
	defer sess.Close()

	if viewLink != "" {
		req, err := link.Parse(viewLink)
		if err != nil {
			return err
		}
		err = sess.OpenLink(req)
		if err != nil {
			return err
		}
	} else {
		slot, err := slotArgs(cmd, args)
		if err != nil {
			return err
		}
		if err := sess.Open(session.View{Slot: slot}); err != nil {
			return err
		}
	}

	ctx := cmdContext(cmd)
	out := cmd.OutOrStdout()
	v := sess.Active

	kind := "procedural"
	if v.Uploaded {
		kind = "uploaded"
	}
	fmt.Fprintf(out, "Canvas %d of %s (%s)\n", v.Slot.Index, address.ShortSector(v.Slot.Sector), kind)

	if viewToggle {
		_, on, err := sess.ToggleBookmark(ctx)
		if err != nil {
			return err
		}
		if on {
			fmt.Fprintln(out, "Bookmarked")
		} else {
			fmt.Fprintln(out, "Bookmark removed")
		}
	} else {
		on, err := sess.IsBookmarked(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "bookmarked: %t\n", on)
	}

	shareURL, err := sess.ShareLink(viewBase)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, shareURL)

	if viewSave != "" {
		dl, err := sess.Download()
		if err != nil {
			return err
		}
		info, err := os.Stat(viewSave)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return errors.New("--save must be a directory")
		}
		path := filepath.Join(viewSave, dl.Filename)
		if err := os.WriteFile(path, dl.Body, 0o644); err != nil {
			return fmt.Errorf("save canvas: %w", err)
		}
		fmt.Fprintf(out, "Saved %s\n", path)
	}
	return nil
}
