package lump

import (
	"math"

	"github.com/pkg/errors"
)

// Reject is the REJECT lump: an N by N bit matrix over sectors. A set bit at
// (from, to) tells the engine a monster in sector from can never see sector to.
type Reject struct {
	// SectorCount is N. Decode infers it from the lump size when zero.
	SectorCount int
	bits        []bool
}

// NewReject returns an all-clear table for n sectors.
func NewReject(n int) *Reject {
	return &Reject{SectorCount: n, bits: make([]bool, n*n)}
}

// DecodeReject decodes a REJECT lump for n sectors, or infers n when it is zero.
func DecodeReject(n int, data []byte) (*Reject, error) {
	r := &Reject{SectorCount: n}
	if err := r.Decode(Doom, data); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reject) index(from, to int) (int, bool) {
	n := r.SectorCount
	if from < 0 || from >= n || to < 0 || to >= n {
		return 0, false
	}
	return from*n + to, true
}

// Rejected reports whether sector from is blocked from seeing sector to. It
// never modifies r, so a decoded table can be shared between goroutines.
func (r *Reject) Rejected(from, to int) bool {
	i, ok := r.index(from, to)
	return ok && i < len(r.bits) && r.bits[i]
}

// SetRejected sets the bit for (from, to). Out of range pairs are ignored.
func (r *Reject) SetRejected(from, to int, rejected bool) {
	i, ok := r.index(from, to)
	if !ok {
		return
	}
	if n := r.SectorCount * r.SectorCount; len(r.bits) < n {
		r.bits = append(r.bits, make([]bool, n-len(r.bits))...)
	}
	r.bits[i] = rejected
}

// Formats returns every format.
func (r *Reject) Formats() FormatSet {
	return AllFormats
}

// Check fails for a negative sector count, or one lowered after bits were set.
func (r *Reject) Check(f Format) error {
	c := newChecker(f, r.Formats())
	if r.SectorCount < 0 {
		c.fail("sector count", "negative count %d", r.SectorCount)
	} else if len(r.bits) > r.SectorCount*r.SectorCount {
		c.fail("sector count", "%d bits do not fit %d sectors", len(r.bits), r.SectorCount)
	}
	return c.err
}

// Encode packs the matrix row by row, least significant bit first, padded to
// a whole byte.
func (r *Reject) Encode(f Format) ([]byte, error) {
	if err := r.Check(f); err != nil {
		return nil, err
	}
	var w BitWriter
	n := r.SectorCount
	for i := 0; i < n*n; i++ {
		w.WriteBit(i < len(r.bits) && r.bits[i])
	}
	return w.Bytes(), nil
}

// Decode unpacks the matrix. Bytes past the matrix are ignored.
func (r *Reject) Decode(f Format, data []byte) error {
	n := r.SectorCount
	if n == 0 {
		n = int(math.Sqrt(float64(8 * len(data))))
		for n > 0 && (n*n+7)/8 > len(data) {
			n--
		}
	}
	if (n*n+7)/8 > len(data) {
		return errors.Wrapf(ErrTruncated, "REJECT of %d bytes for %d sectors", len(data), n)
	}

	reader := NewBitReader(data)
	bits := make([]bool, n*n)
	for i := range bits {
		set, err := reader.ReadBit()
		if err != nil {
			return err
		}
		bits[i] = set
	}
	logger.Printf("Read Reject table: %v sectors", n)

	r.SectorCount = n
	r.bits = bits
	return nil
}
