// Package intake accepts uploaded image bytes and puts them in the one
// encoding the rest of the system hashes and links: a base64 data URL,
// "data:<mime>;base64,<payload>".
package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// DefaultLimit caps uploads read through Read.
const DefaultLimit = 10 << 20

var (
	ErrUnsupportedContent = errors.New("unsupported content: not an image")
	ErrTooLarge           = errors.New("upload too large")
	ErrEmpty              = errors.New("empty upload")
	ErrInvalidDataURL     = errors.New("invalid data URL")
)

// Upload is an accepted image payload.
type Upload struct {
	MIME    string
	Raw     []byte
	DataURL string
}

// Read consumes r up to limit bytes and accepts it if it is an image. The
// declared type (e.g. a multipart part's Content-Type) is only consulted for
// formats byte sniffing cannot recognise, such as SVG.
func Read(r io.Reader, declared string, limit int64) (Upload, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > limit {
		return Upload{}, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, limit)
	}
	return Accept(raw, declared)
}

// Accept validates raw as an image and encodes it.
func Accept(raw []byte, declared string) (Upload, error) {
	typ, err := Sniff(raw, declared)
	if err != nil {
		return Upload{}, err
	}
	return Upload{MIME: typ, Raw: raw, DataURL: DataURL(typ, raw)}, nil
}

// Sniff returns the image media type of raw, or ErrUnsupportedContent.
func Sniff(raw []byte, declared string) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmpty
	}
	sniffed := baseType(http.DetectContentType(raw))
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}

	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.HasPrefix(baseType(declared), "image/") && bytes.Contains(head, []byte("<svg")) {
		return "image/svg+xml", nil
	}
	return "", fmt.Errorf("%w (detected %s)", ErrUnsupportedContent, sniffed)
}

// DataURL encodes raw as a base64 data URL.
func DataURL(mediaType string, raw []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// ParseDataURL decodes a base64 data URL produced by DataURL.
func ParseDataURL(s string) (mediaType string, raw []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}
	mediaType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("%w: not base64 encoded", ErrInvalidDataURL)
	}
	raw, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mediaType, raw, nil
}

// Extension returns a file extension (with dot) for an image media type.
func Extension(mediaType string) string {
	switch baseType(mediaType) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/svg+xml":
		return ".svg"
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	return ".png"
}

func baseType(t string) string {
	if t == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(t, ";", 2)[0]))
	}
	return mt
}
