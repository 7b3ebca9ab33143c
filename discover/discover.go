// Package discover gives arbitrary content a stable coordinate in the
// address space. The same content always lands on the same slot, where it
// is shown in place of the procedural image that would otherwise be there.
package discover

import (
	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/hashid"
	"github.com/DarlingtonDeveloper/CanvasBabel/intake"
	"github.com/DarlingtonDeveloper/CanvasBabel/prng"
)

// Discover derives a slot from content, normally an image data URL. The
// content digest seeds a stream; 1024 draws pick the sector characters and
// one more picks the index.
func Discover(content string) address.Slot {
	r := prng.New(hashid.DigestString(content))
	return address.Slot{
		Sector: address.RandomSector(r, address.SectorLength),
		Index:  r.Intn(address.SlotsPerSector),
	}
}

// Upload discovers the slot for an accepted upload.
func Upload(up intake.Upload) address.Slot {
	return Discover(up.DataURL)
}
