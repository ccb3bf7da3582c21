package lump

// flag names one boolean attribute of a record.
type flag[T any] struct {
	name string
	ptr  func(*T) *bool
}

// bitFlag stores a flag in one bit. Inverted flags are true when the bit is
// clear.
type bitFlag[T any] struct {
	flag[T]
	mask   uint16
	invert bool
}

// modeFlags stores a group of mutually exclusive flags as a small integer.
// modes[v] is the flag set when the field holds v; nil entries set none.
// When no flag of the group is set the field is written as zero.
type modeFlags[T any] struct {
	mask  uint16
	shift uint
	modes []*flag[T]
}

// flagLayout is the flags word of one record type in one format.
type flagLayout[T any] struct {
	bits  []bitFlag[T]
	modes []modeFlags[T]
}

func (l flagLayout[T]) has(f *flag[T]) bool {
	for _, b := range l.bits {
		if b.name == f.name {
			return true
		}
	}
	for _, m := range l.modes {
		for _, mf := range m.modes {
			if mf != nil && mf.name == f.name {
				return true
			}
		}
	}
	return false
}

// check fails for flags set on v that the layout has no room for, and for
// more than one flag set within a mode group.
func (l flagLayout[T]) check(c *checker, all []*flag[T], v *T) {
	for _, f := range all {
		if *f.ptr(v) && !l.has(f) {
			c.fail(f.name, "flag has no bit in this layout")
		}
	}
	for _, m := range l.modes {
		var set *flag[T]
		for _, mf := range m.modes {
			if mf == nil || !*mf.ptr(v) || mf == set {
				continue
			}
			if set != nil {
				c.fail(mf.name, "conflicts with %s", set.name)
				break
			}
			set = mf
		}
	}
}

func (l flagLayout[T]) pack(v *T) uint16 {
	var word uint16
	for _, b := range l.bits {
		if *b.ptr(v) != b.invert {
			word |= b.mask
		}
	}
	for _, m := range l.modes {
		for value, mf := range m.modes {
			if mf != nil && *mf.ptr(v) {
				word |= uint16(value) << m.shift & m.mask
				break
			}
		}
	}
	return word
}

// unpack clears every flag in all, then sets those stored in word. Bits the
// layout does not know are dropped.
func (l flagLayout[T]) unpack(word uint16, all []*flag[T], v *T) {
	for _, f := range all {
		*f.ptr(v) = false
	}
	for _, b := range l.bits {
		*b.ptr(v) = (word&b.mask != 0) != b.invert
	}
	for _, m := range l.modes {
		value := int(word&m.mask) >> m.shift
		if value < len(m.modes) && m.modes[value] != nil {
			*m.modes[value].ptr(v) = true
		}
	}
}

func bit[T any](f *flag[T], mask uint16) bitFlag[T] {
	return bitFlag[T]{flag: *f, mask: mask}
}

func invertedBit[T any](f *flag[T], mask uint16) bitFlag[T] {
	return bitFlag[T]{flag: *f, mask: mask, invert: true}
}
