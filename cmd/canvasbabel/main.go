// Command canvasbabel browses, renders, and serves the procedural canvas
// library.
package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DarlingtonDeveloper/CanvasBabel/intake"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "canvasbabel",
	Short: "A library of every procedural canvas",
	Long: `CanvasBabel addresses an effectively unbounded space of procedural
images. Every canvas lives at a sector (1024 characters of 0-9a-f) and an
index (0-999), and renders identically everywhere.

Sector arguments accept the id itself, "-" for stdin, or "@file".`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// readSectorArg resolves a sector argument: the literal id, "-" for stdin,
// or "@path" for a file. Surrounding whitespace is dropped.
func readSectorArg(cmd *cobra.Command, arg string) (string, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", fmt.Errorf("read sector file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return strings.TrimSpace(arg), nil
	}
}

// readImage reads an image file for discovery. The extension stands in for
// the declared type, which is how SVG files are recognised.
func readImage(path string) (intake.Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return intake.Upload{}, err
	}
	defer f.Close()

	up, err := intake.Read(f, mime.TypeByExtension(filepath.Ext(path)), intake.DefaultLimit)
	if err != nil {
		return intake.Upload{}, fmt.Errorf("%s: %w", path, err)
	}
	return up, nil
}
