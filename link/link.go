// Package link encodes a viewing request as flat query parameters and back.
// A link carries the sector and canvas index, plus the uploaded content when
// the slot shows an upload. Procedural links omit content to stay short.
package link

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
)

// Query parameter names.
const (
	ParamSector = "sector"
	ParamCanvas = "canvas"
	ParamData   = "data"
)

var ErrMissingParam = errors.New("missing link parameter")

// ViewRequest asks to view one slot, either procedurally or with uploaded
// content in place of the synthesized image.
type ViewRequest struct {
	Sector  string `json:"sector"`
	Index   int    `json:"index"`
	Content string `json:"content,omitempty"`
}

// Uploaded reports whether the request shows uploaded content.
func (v ViewRequest) Uploaded() bool {
	return v.Content != ""
}

// Slot returns the requested coordinate.
func (v ViewRequest) Slot() address.Slot {
	return address.Slot{Sector: v.Sector, Index: v.Index}
}

// Encode writes v as query parameters.
func Encode(v ViewRequest) url.Values {
	q := url.Values{}
	q.Set(ParamSector, v.Sector)
	q.Set(ParamCanvas, strconv.Itoa(v.Index))
	if v.Uploaded() {
		q.Set(ParamData, v.Content)
	}
	return q
}

// Decode reads a request from query parameters. Sector and canvas are
// required and validated; errors wrap address.ErrInvalidSector,
// address.ErrInvalidIndex or ErrMissingParam.
func Decode(q url.Values) (ViewRequest, error) {
	sector := q.Get(ParamSector)
	if sector == "" {
		return ViewRequest{}, fmt.Errorf("%w: %s", ErrMissingParam, ParamSector)
	}
	canvas := q.Get(ParamCanvas)
	if canvas == "" {
		return ViewRequest{}, fmt.Errorf("%w: %s", ErrMissingParam, ParamCanvas)
	}
	if err := address.ValidateSector(sector); err != nil {
		return ViewRequest{}, err
	}
	index, err := address.ParseIndex(canvas)
	if err != nil {
		return ViewRequest{}, err
	}
	if err := address.ValidateIndex(index); err != nil {
		return ViewRequest{}, err
	}
	return ViewRequest{Sector: sector, Index: index, Content: q.Get(ParamData)}, nil
}

// URL builds a shareable link on base. Any query already on base is
// replaced.
func URL(base string, v ViewRequest) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.RawQuery = Encode(v).Encode()
	u.Fragment = ""
	return u.String(), nil
}

// Parse decodes a full link.
func Parse(raw string) (ViewRequest, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ViewRequest{}, fmt.Errorf("parse link: %w", err)
	}
	return Decode(u.Query())
}
