package lump

// BitWriter packs bits least significant first into bytes.
type BitWriter struct {
	buf  []byte
	bits int
}

// WriteBit appends one bit.
func (w *BitWriter) WriteBit(set bool) {
	if w.bits%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if set {
		w.buf[w.bits/8] |= 1 << (w.bits % 8)
	}
	w.bits++
}

// WriteBits appends the n low bits of v, lowest first.
func (w *BitWriter) WriteBits(v uint64, n int) {
	for i := 0; i < n; i++ {
		w.WriteBit(v&(1<<i) != 0)
	}
}

// Len returns the number of bits written.
func (w *BitWriter) Len() int {
	return w.bits
}

// Bytes returns the packed bits, zero padded to a byte boundary.
func (w *BitWriter) Bytes() []byte {
	return w.buf
}

// BitReader reads bits least significant first.
type BitReader struct {
	data []byte
	bits int
}

// NewBitReader returns a reader over data.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// ReadBit returns the next bit.
func (r *BitReader) ReadBit() (bool, error) {
	if r.bits >= len(r.data)*8 {
		return false, ErrTruncated
	}
	set := r.data[r.bits/8]&(1<<(r.bits%8)) != 0
	r.bits++
	return set, nil
}

// ReadBits returns the next n bits as an integer, first bit lowest.
func (r *BitReader) ReadBits(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		set, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if set {
			v |= 1 << i
		}
	}
	return v, nil
}

// Align skips to the next byte boundary.
func (r *BitReader) Align() {
	r.bits = (r.bits + 7) &^ 7
}

// Remaining returns the number of unread bits.
func (r *BitReader) Remaining() int {
	return len(r.data)*8 - r.bits
}
