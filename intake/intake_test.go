package intake

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// 1x1 transparent GIF.
var gif = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestAcceptImage(t *testing.T) {
	up, err := Accept(gif, "")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if up.MIME != "image/gif" {
		t.Errorf("MIME = %s, want image/gif", up.MIME)
	}
	if !strings.HasPrefix(up.DataURL, "data:image/gif;base64,R0lGODlh") {
		t.Errorf("unexpected data URL prefix: %.40s", up.DataURL)
	}

	up, err = Accept(pngHeader, "application/octet-stream")
	if err != nil {
		t.Fatalf("Accept png: %v", err)
	}
	if up.MIME != "image/png" {
		t.Errorf("MIME = %s, want image/png", up.MIME)
	}
}

func TestRejectNonImage(t *testing.T) {
	_, err := Accept([]byte("hello, plain text"), "text/plain")
	if !errors.Is(err, ErrUnsupportedContent) {
		t.Errorf("expected ErrUnsupportedContent, got %v", err)
	}
	if _, err := Accept(nil, "image/png"); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestSVGNeedsDeclaredType(t *testing.T) {
	svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	if _, err := Sniff(svg, ""); !errors.Is(err, ErrUnsupportedContent) {
		t.Errorf("undeclared svg should be rejected, got %v", err)
	}
	typ, err := Sniff(svg, "image/svg+xml")
	if err != nil || typ != "image/svg+xml" {
		t.Errorf("Sniff = %q, %v", typ, err)
	}
}

func TestReadLimit(t *testing.T) {
	if _, err := Read(bytes.NewReader(gif), "", int64(len(gif))); err != nil {
		t.Fatalf("Read at limit: %v", err)
	}
	if _, err := Read(bytes.NewReader(gif), "", int64(len(gif)-1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	u := DataURL("image/gif", gif)
	typ, raw, err := ParseDataURL(u)
	if err != nil {
		t.Fatalf("ParseDataURL: %v", err)
	}
	if typ != "image/gif" || !bytes.Equal(raw, gif) {
		t.Errorf("round trip mismatch: %s, %d bytes", typ, len(raw))
	}

	for _, bad := range []string{"", "image/gif;base64,AA==", "data:image/gif,AA", "data:image/gif;base64,***"} {
		if _, _, err := ParseDataURL(bad); !errors.Is(err, ErrInvalidDataURL) {
			t.Errorf("ParseDataURL(%q): expected ErrInvalidDataURL, got %v", bad, err)
		}
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"image/png":            ".png",
		"image/jpeg":           ".jpg",
		"image/gif; charset=x": ".gif",
		"image/svg+xml":        ".svg",
	}
	for in, want := range cases {
		if got := Extension(in); got != want {
			t.Errorf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}
