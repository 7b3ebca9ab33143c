package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/bookmarks"
	"github.com/DarlingtonDeveloper/CanvasBabel/config"
)

var bookmarkDB string

func init() {
	rootCmd.AddCommand(bookmarkCmd)
	bookmarkCmd.AddCommand(bookmarkListCmd)
	bookmarkCmd.AddCommand(bookmarkAddCmd)
	bookmarkCmd.AddCommand(bookmarkRmCmd)

	bookmarkCmd.PersistentFlags().StringVar(&bookmarkDB, "db", "", "SQLite database path (default ~/.canvasbabel/bookmarks.db)")
}

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage saved canvases",
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runBookmarkList,
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add <sector> <index>",
	Short: "Bookmark a procedural canvas",
	Args:  cobra.ExactArgs(2),
	RunE:  runBookmarkAdd,
}

var bookmarkRmCmd = &cobra.Command{
	Use:   "rm <sector> <index>",
	Short: "Remove a bookmark",
	Args:  cobra.ExactArgs(2),
	RunE:  runBookmarkRm,
}

// openBookmarks opens the SQLite store at path, or the default location.
func openBookmarks(path string) (*bookmarks.SQLiteStore, error) {
	if path == "" {
		path = config.DefaultDBPath()
	}
	return bookmarks.OpenSQLite(path)
}

func runBookmarkList(cmd *cobra.Command, args []string) error {
	store, err := openBookmarks(bookmarkDB)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmdContext(cmd))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SECTOR\tCANVAS\tKIND\tSAVED")
	for _, e := range list {
		kind := "procedural"
		if e.Uploaded {
			kind = "uploaded"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", address.ShortSector(e.Sector), e.Index, kind, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runBookmarkAdd(cmd *cobra.Command, args []string) error {
	slot, err := slotArgs(cmd, args)
	if err != nil {
		return err
	}
	store, err := openBookmarks(bookmarkDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Put(cmdContext(cmd), bookmarks.NewEntry(slot, "")); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Bookmarked canvas %d of %s\n", slot.Index, address.ShortSector(slot.Sector))
	return nil
}

func runBookmarkRm(cmd *cobra.Command, args []string) error {
	slot, err := slotArgs(cmd, args)
	if err != nil {
		return err
	}
	store, err := openBookmarks(bookmarkDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmdContext(cmd), slot.Key()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed canvas %d of %s\n", slot.Index, address.ShortSector(slot.Sector))
	return nil
}

// cmdContext returns the command's context, which is nil when RunE is
// called directly.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
