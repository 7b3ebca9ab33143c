package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/bookmarks"
	"github.com/DarlingtonDeveloper/CanvasBabel/config"
	"github.com/DarlingtonDeveloper/CanvasBabel/discover"
	"github.com/DarlingtonDeveloper/CanvasBabel/intake"
	"github.com/DarlingtonDeveloper/CanvasBabel/link"
	"github.com/DarlingtonDeveloper/CanvasBabel/synth"
)

var sectorA = strings.Repeat("a", address.SectorLength)

// run invokes fn against cmd with captured stdout.
func run(t *testing.T, cmd *cobra.Command, fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	err := fn(cmd, args)
	return out.String(), err
}

func TestSectorRandom(t *testing.T) {
	sectorShort = true
	defer func() { sectorShort = false }()

	out, err := run(t, sectorRandomCmd, runSectorRandom)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if err := address.ValidateSector(lines[0]); err != nil {
		t.Errorf("random sector invalid: %v", err)
	}
	if lines[1] != address.ShortSector(lines[0]) {
		t.Errorf("short form = %q", lines[1])
	}
}

func TestSectorCheck(t *testing.T) {
	if _, err := run(t, sectorCheckCmd, runSectorCheck, sectorA); err != nil {
		t.Errorf("valid sector rejected: %v", err)
	}
	if _, err := run(t, sectorCheckCmd, runSectorCheck, sectorA[1:]); !errors.Is(err, address.ErrInvalidSector) {
		t.Errorf("expected ErrInvalidSector, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "sector.txt")
	os.WriteFile(path, []byte(sectorA+"\n"), 0644)
	if _, err := run(t, sectorCheckCmd, runSectorCheck, "@"+path); err != nil {
		t.Errorf("@file sector rejected: %v", err)
	}

	var out bytes.Buffer
	sectorCheckCmd.SetOut(&out)
	sectorCheckCmd.SetIn(strings.NewReader("  " + sectorA + "\n"))
	if err := runSectorCheck(sectorCheckCmd, []string{"-"}); err != nil {
		t.Errorf("stdin sector rejected: %v", err)
	}
}

func TestKeyAndDescribe(t *testing.T) {
	out, err := run(t, keyCmd, runKey, sectorA, "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "seed 5936232266146735") || !strings.HasPrefix(out, "sector-aaaa") {
		t.Errorf("unexpected key output %q", out)
	}

	out, err = run(t, describeCmd, runDescribe, sectorA, "0")
	if err != nil {
		t.Fatal(err)
	}
	d := synth.Synthesize(5936232266146735)
	for _, want := range []string{"hsl(242, 70%, 10%)", d.Background.Hex(), "turbulence", "scale:       15"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, keyCmd, runKey, sectorA, "1000"); !errors.Is(err, address.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if _, err := run(t, keyCmd, runKey, sectorA, "12abc"); !errors.Is(err, address.ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestSVG(t *testing.T) {
	out, err := run(t, svgCmd, runSVG, sectorA, "0")
	if err != nil {
		t.Fatal(err)
	}
	if out != synth.Synthesize(5936232266146735).SVG() {
		t.Error("stdout svg should match synthesis")
	}

	svgOutput = filepath.Join(t.TempDir(), "c.svg")
	defer func() { svgOutput = "" }()
	if _, err := run(t, svgCmd, runSVG, sectorA, "0"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(svgOutput)
	if err != nil || string(data) != out {
		t.Errorf("file svg differs from stdout svg (err=%v)", err)
	}
}

func TestDiscoverAndLinkDecode(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "pixel.gif")
	os.WriteFile(img, []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;"), 0644)

	out, err := run(t, discoverCmd, runDiscover, img)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.Contains(lines[0], "image/gif") {
		t.Errorf("unexpected discover output %q", out)
	}
	shareURL := lines[len(lines)-1]
	req, err := link.Parse(shareURL)
	if err != nil || !req.Uploaded() {
		t.Fatalf("discover link should carry the upload: %v", err)
	}

	again, _ := run(t, discoverCmd, runDiscover, img)
	if again != out {
		t.Error("discovery should be deterministic")
	}

	out, err = run(t, linkDecodeCmd, runLinkDecode, shareURL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "uploaded image/gif") || !strings.Contains(out, req.Slot().Key()) {
		t.Errorf("unexpected decode output %q", out)
	}

	txt := filepath.Join(dir, "notes.txt")
	os.WriteFile(txt, []byte("hello"), 0644)
	if _, err := run(t, discoverCmd, runDiscover, txt); err == nil {
		t.Error("text file should be rejected")
	}
}

func TestLinkEncode(t *testing.T) {
	linkBase = "https://babel.example/view"
	defer func() { linkBase = "http://localhost:8080/" }()

	out, err := run(t, linkEncodeCmd, runLinkEncode, sectorA, "12")
	if err != nil {
		t.Fatal(err)
	}
	req, err := link.Parse(strings.TrimSpace(out))
	if err != nil {
		t.Fatal(err)
	}
	if req.Sector != sectorA || req.Index != 12 || req.Uploaded() {
		t.Errorf("unexpected round trip %+v", req)
	}
}

func TestBookmarkCommands(t *testing.T) {
	bookmarkDB = filepath.Join(t.TempDir(), "b.db")
	defer func() { bookmarkDB = "" }()

	out, err := run(t, bookmarkListCmd, runBookmarkList)
	if err != nil || !strings.Contains(out, "No bookmarks") {
		t.Fatalf("empty list: %q %v", out, err)
	}

	if _, err := run(t, bookmarkAddCmd, runBookmarkAdd, sectorA, "5"); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, bookmarkListCmd, runBookmarkList)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, address.ShortSector(sectorA)) || !strings.Contains(out, "procedural") {
		t.Errorf("unexpected list %q", out)
	}

	if _, err := run(t, bookmarkRmCmd, runBookmarkRm, sectorA, "5"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, bookmarkRmCmd, runBookmarkRm, sectorA, "5"); !errors.Is(err, bookmarks.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestServeSettings(t *testing.T) {
	for _, env := range []string{config.EnvPort, config.EnvStore, config.EnvDBPath, config.EnvAPIToken, config.EnvBaseURL} {
		t.Setenv(env, "")
	}
	servePort, serveStore, serveDB = 9090, "memory", ""
	defer func() { servePort, serveStore, serveDB = 0, "", "" }()

	cfg, err := serveSettings()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 || cfg.Store.Driver != "memory" {
		t.Errorf("flags not applied: %+v", cfg)
	}

	serveStore = "postgres"
	if _, err := serveSettings(); err == nil {
		t.Error("unknown store should fail validation")
	}
}

func TestDiscoverSVG(t *testing.T) {
	dir := t.TempDir()
	svg := synth.Synthesize(42).SVG()
	path := filepath.Join(dir, "canvas.svg")
	os.WriteFile(path, []byte(svg), 0644)

	out, err := run(t, discoverCmd, runDiscover, path)
	if err != nil {
		t.Fatalf("svg should be accepted: %v", err)
	}
	if !strings.Contains(out, "image/svg+xml") {
		t.Errorf("unexpected output %q", out)
	}

	// Same slot as an upload declared image/svg+xml, which is what the
	// HTTP API receives.
	up, err := intake.Accept([]byte(svg), "image/svg+xml")
	if err != nil {
		t.Fatal(err)
	}
	slot := discover.Upload(up)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	req, err := link.Parse(lines[len(lines)-1])
	if err != nil {
		t.Fatal(err)
	}
	if req.Slot() != slot {
		t.Error("CLI and API discovery should agree for SVG")
	}

	linkImage = path
	defer func() { linkImage = "" }()
	out, err = run(t, linkEncodeCmd, runLinkEncode, sectorA, "3")
	if err != nil {
		t.Fatalf("link encode with svg image: %v", err)
	}
	req, err = link.Parse(strings.TrimSpace(out))
	if err != nil || req.Content != up.DataURL {
		t.Errorf("embedded content mismatch (err=%v)", err)
	}
}

func TestView(t *testing.T) {
	dir := t.TempDir()
	viewDB = filepath.Join(dir, "b.db")
	viewToggle = true
	defer func() { viewDB, viewToggle, viewSave, viewLink = "", false, "", "" }()

	out, err := run(t, viewCmd, runView, sectorA, "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(procedural)") || !strings.Contains(out, "Bookmarked") {
		t.Errorf("unexpected toggle output %q", out)
	}

	viewToggle = false
	viewSave = dir
	out, err = run(t, viewCmd, runView, sectorA, "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bookmarked: true") {
		t.Errorf("bookmark should persist across runs: %q", out)
	}
	saved, err := os.ReadFile(filepath.Join(dir, "sector-aaaaaaaaaaaaa.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(saved) != synth.Synthesize(5936232266146735).SVG() {
		t.Error("saved svg should match synthesis")
	}

	gif := []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00;")
	up, err := intake.Accept(gif, "")
	if err != nil {
		t.Fatal(err)
	}
	slot := discover.Upload(up)
	viewLink, err = link.URL("http://localhost:8080/", link.ViewRequest{Sector: slot.Sector, Index: slot.Index, Content: up.DataURL})
	if err != nil {
		t.Fatal(err)
	}
	out, err = run(t, viewCmd, runView)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(uploaded)") || !strings.Contains(out, "bookmarked: false") {
		t.Errorf("unexpected uploaded output %q", out)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "found-sector-*.gif"))
	if len(matches) != 1 {
		t.Fatalf("expected one saved upload, got %v", matches)
	}
	if data, _ := os.ReadFile(matches[0]); !bytes.Equal(data, gif) {
		t.Error("saved upload should be the original bytes")
	}

	viewLink = "http://localhost:8080/?sector=abc&canvas=1"
	if _, err := run(t, viewCmd, runView); !errors.Is(err, address.ErrInvalidSector) {
		t.Errorf("expected ErrInvalidSector, got %v", err)
	}
}
