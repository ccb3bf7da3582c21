package wad

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend builds an empty archive for a test and reloads it from its
// serialized form.
type backend struct {
	name   string
	create func(t *testing.T) Archive
	reload func(t *testing.T, a Archive) Archive
}

func backends() []backend {
	file := func(opts ...Option) func(t *testing.T) Archive {
		return func(t *testing.T) Archive {
			f, err := Create(filepath.Join(t.TempDir(), "test.wad"), PWAD, opts...)
			require.NoError(t, err)
			t.Cleanup(func() { f.Close() })
			return f
		}
	}
	reloadFile := func(t *testing.T, a Archive) Archive {
		f := a.(*File)
		require.NoError(t, f.Close())
		g, err := Open(f.Path())
		require.NoError(t, err)
		t.Cleanup(func() { g.Close() })
		return g
	}
	return []backend{
		{"file", file(), reloadFile},
		{"file-atomic", file(WithAtomicCommit()), reloadFile},
		{
			"buffer",
			func(t *testing.T) Archive { return NewBuffer(PWAD) },
			func(t *testing.T, a Archive) Archive {
				raw, err := a.(*Buffer).Bytes()
				require.NoError(t, err)
				b, err := ReadBuffer(bytes.NewReader(raw))
				require.NoError(t, err)
				return b
			},
		},
	}
}

func payload(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = seed + byte(i)
	}
	return data
}

func TestDeleteRenumbersLaterEntries(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			linedefs, sidedefs := payload(42, 1), payload(90, 7)
			require.NoError(t, a.Append("LINEDEFS", linedefs))
			require.NoError(t, a.Append("SIDEDEFS", sidedefs))

			before, ok := a.EntryNamed("SIDEDEFS", 0)
			require.True(t, ok)
			require.NoError(t, a.DeleteAt(0))

			after, ok := a.EntryNamed("SIDEDEFS", 0)
			require.True(t, ok)
			assert.Equal(t, before.Offset-42, after.Offset)
			data, err := a.DataNamed("SIDEDEFS")
			require.NoError(t, err)
			assert.Equal(t, sidedefs, data)

			a = be.reload(t, a)
			data, err = a.DataNamed("sidedefs")
			require.NoError(t, err)
			assert.Equal(t, sidedefs, data)
			assert.Equal(t, 1, a.Len())
		})
	}
}

func TestRoundTripIncludingEmptyPayload(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			contents := map[string][]byte{
				"EMPTY":   {},
				"ONE":     {0xFF},
				"PLAYPAL": payload(768, 3),
			}
			require.NoError(t, a.Append("EMPTY", contents["EMPTY"]))
			require.NoError(t, a.Append("PLAYPAL", contents["PLAYPAL"]))
			require.NoError(t, a.InsertAt(1, "ONE", contents["ONE"]))

			verify := func(a Archive) {
				for name, want := range contents {
					got, err := a.DataNamed(name)
					require.NoError(t, err)
					assert.Equal(t, want, got, name)
				}
				assert.Equal(t, []string{"EMPTY", "ONE", "PLAYPAL"}, names(a))
			}
			verify(a)
			verify(be.reload(t, a))
		})
	}
}

func TestNameLookups(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			require.NoError(t, a.AppendMarker("map01"))
			require.NoError(t, a.Append("things", payload(10, 0)))
			require.NoError(t, a.AppendMarker("MAP02"))
			require.NoError(t, a.Append("THINGS", payload(20, 0)))
			require.NoError(t, a.AppendMarker("MAP03"))
			require.NoError(t, a.Append("Things", payload(30, 0)))

			assert.Equal(t, 1, a.IndexOf("THINGS", 0))
			assert.Equal(t, 3, a.IndexOf("things", 2))
			assert.Equal(t, -1, a.IndexOf("THINGS", 6))
			assert.Equal(t, 5, a.LastIndexOf("THINGS"))
			assert.Equal(t, -1, a.LastIndexOf("SECTORS"))

			e, ok := a.EntryNamed("THINGS", 0)
			require.True(t, ok)
			assert.Equal(t, 10, e.Size)
			e, ok = a.LastEntryNamed("things")
			require.True(t, ok)
			assert.Equal(t, 30, e.Size)
			e, ok = a.NthEntryNamed("THINGS", 1)
			require.True(t, ok)
			assert.Equal(t, 20, e.Size)
			_, ok = a.NthEntryNamed("THINGS", 3)
			assert.False(t, ok)
			_, ok = a.EntryNamed("MAP04", 0)
			assert.False(t, ok)

			all := a.EntriesNamed("THINGS")
			require.Len(t, all, 3)
			assert.Equal(t, []int{10, 20, 30}, []int{all[0].Size, all[1].Size, all[2].Size})

			// queries are coerced like stored names
			assert.Equal(t, 0, a.IndexOf("map01 extra", 0))
			_, err := a.DataNamed("NOPE")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestNameCoercionOnEveryPath(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			require.NoError(t, a.Append("texture1.lmp", payload(4, 0)))
			require.NoError(t, a.InsertAt(0, "pnames list", payload(4, 0)))
			require.NoError(t, a.AppendMarker("f_start!"))
			require.NoError(t, a.Append("spare", nil))
			require.NoError(t, a.RenameAt(3, "f_end?"))
			assert.Equal(t, []string{"PNAMES", "TEXTURE1", "F_START", "F_END"}, names(a))

			entries := a.Entries()
			entries[0].Name = "pnames2 x"
			require.NoError(t, a.ReplaceDirectory(entries))
			assert.Equal(t, "PNAMES2", names(a)[0])

			assert.Equal(t, names(a), names(be.reload(t, a)))
		})
	}
}

func TestMarkerOffsetIsAppendPosition(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			require.NoError(t, a.Append("A", payload(5, 0)))
			require.NoError(t, a.AppendMarker("S_START"))
			e, err := a.EntryAt(1)
			require.NoError(t, err)
			assert.True(t, e.IsMarker())
			assert.Equal(t, headerSize+5, e.Offset)
			data, err := a.Data(1)
			require.NoError(t, err)
			assert.Empty(t, data)
		})
	}
}

func TestIndexErrors(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			require.NoError(t, a.Append("A", payload(5, 0)))

			_, err := a.EntryAt(1)
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
			_, err = a.Data(-1)
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
			assert.ErrorIs(t, a.InsertAt(2, "B", nil), ErrIndexOutOfRange)
			assert.ErrorIs(t, a.DeleteAt(1), ErrIndexOutOfRange)
			assert.ErrorIs(t, a.ReplaceAt(5, nil), ErrIndexOutOfRange)
			assert.ErrorIs(t, a.RenameAt(-3, "X"), ErrIndexOutOfRange)
			assert.Equal(t, 1, a.Len())

			var ie *IndexError
			require.ErrorAs(t, a.DeleteAt(9), &ie)
			assert.Equal(t, 9, ie.Index)
			assert.Equal(t, 1, ie.Len)
		})
	}
}

func TestMapRangeClamps(t *testing.T) {
	b := NewBuffer(IWAD)
	for i := range 5 {
		require.NoError(t, b.Append(fmt.Sprintf("L%d", i), payload(i, 0)))
	}
	assert.Len(t, b.MapRange(0, 3), 3)
	assert.Len(t, b.MapRange(3, 100), 2)
	assert.Len(t, b.MapRange(5, 1), 0)
	assert.Len(t, b.MapRange(9, 1), 0)
	assert.Len(t, b.MapRange(-2, 1), 1)
	assert.Len(t, b.MapRange(1, -1), 0)
	assert.Len(t, b.MapRange(1, math.MaxInt), 4)
	assert.Len(t, b.MapRange(math.MaxInt, math.MaxInt), 0)
	assert.Equal(t, "L3", b.MapRange(3, 1)[0].Name)
}

func TestReplaceAtKeepsNameAndMovesLaterEntries(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			require.NoError(t, a.Append("A", payload(10, 0)))
			require.NoError(t, a.Append("B", payload(10, 1)))
			require.NoError(t, a.Append("C", payload(10, 2)))

			require.NoError(t, a.ReplaceAt(1, payload(25, 9)))
			e, err := a.EntryAt(1)
			require.NoError(t, err)
			assert.Equal(t, "B", e.Name)
			assert.Equal(t, 25, e.Size)
			c, err := a.EntryAt(2)
			require.NoError(t, err)
			assert.Equal(t, headerSize+35, c.Offset)

			require.NoError(t, a.ReplaceAt(1, nil))
			c, err = a.EntryAt(2)
			require.NoError(t, err)
			assert.Equal(t, headerSize+10, c.Offset)
			data, err := a.Data(2)
			require.NoError(t, err)
			assert.Equal(t, payload(10, 2), data)
		})
	}
}

func TestReplaceDirectoryReordersEntries(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			require.NoError(t, a.Append("A", payload(3, 0)))
			require.NoError(t, a.Append("B", payload(4, 1)))
			require.NoError(t, a.Append("C", payload(5, 2)))

			entries := a.Entries()
			entries[0], entries[2] = entries[2], entries[0]
			require.NoError(t, a.ReplaceDirectory(entries))
			assert.Equal(t, []string{"C", "B", "A"}, names(a))

			// later mutations must still see consistent data
			require.NoError(t, a.Append("D", payload(6, 3)))
			require.NoError(t, a.DeleteAt(1))
			a = be.reload(t, a)
			assert.Equal(t, []string{"C", "A", "D"}, names(a))
			for name, want := range map[string][]byte{"A": payload(3, 0), "C": payload(5, 2), "D": payload(6, 3)} {
				got, err := a.DataNamed(name)
				require.NoError(t, err)
				assert.Equal(t, want, got, name)
			}

			bad := a.Entries()
			bad[0].Offset = 1 << 20
			assert.Error(t, a.ReplaceDirectory(bad))
		})
	}
}

func TestReturnedDataIsACopy(t *testing.T) {
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			a := be.create(t)
			original := payload(8, 0)
			require.NoError(t, a.Append("A", original))
			original[0] = 0xAA

			data, err := a.Data(0)
			require.NoError(t, err)
			assert.Equal(t, payload(8, 0), data)
			data[1] = 0xBB

			again, err := a.Data(0)
			require.NoError(t, err)
			assert.Equal(t, payload(8, 0), again)
		})
	}
}

// TestOffsetsMatchRecomputedLayout drives random mutation sequences and checks
// after every step that offsets equal the prefix sums of the sizes, that every
// payload is intact and that delete followed by append restores the total size.
func TestOffsetsMatchRecomputedLayout(t *testing.T) {
	type lump struct {
		name string
		data []byte
	}
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(1993))
			a := be.create(t)
			var model []lump

			check := func(a Archive) {
				t.Helper()
				require.Equal(t, len(model), a.Len())
				entries := a.Entries()
				want := make([]Entry, len(entries))
				copy(want, entries)
				layout(want)
				for i, e := range entries {
					assert.Equal(t, model[i].name, e.Name)
					assert.Equal(t, len(model[i].data), e.Size)
					assert.Equal(t, want[i].Offset, e.Offset, "entry %d offset", i)
					data, err := a.Data(i)
					require.NoError(t, err)
					assert.Equal(t, model[i].data, data, "entry %d data", i)
				}
			}

			for step := range 60 {
				name := fmt.Sprintf("L%d", step)
				data := payload(rng.Intn(40), byte(step))
				switch op := rng.Intn(5); {
				case op == 0 || len(model) == 0:
					require.NoError(t, a.Append(name, data))
					model = append(model, lump{name, data})
				case op == 1:
					i := rng.Intn(len(model) + 1)
					require.NoError(t, a.InsertAt(i, name, data))
					model = append(model[:i], append([]lump{{name, data}}, model[i:]...)...)
				case op == 2:
					i := rng.Intn(len(model))
					require.NoError(t, a.ReplaceAt(i, data))
					model[i].data = data
				case op == 3:
					i := rng.Intn(len(model))
					removed := model[i]
					total := totalSize(a)
					require.NoError(t, a.DeleteAt(i))
					model = append(model[:i], model[i+1:]...)
					require.NoError(t, a.Append(removed.name, removed.data))
					model = append(model, removed)
					assert.Equal(t, total, totalSize(a))
				default:
					i := rng.Intn(len(model))
					require.NoError(t, a.DeleteAt(i))
					model = append(model[:i], model[i+1:]...)
				}
				check(a)
			}
			check(be.reload(t, a))
		})
	}
}

func TestOpenRejectsMalformedArchives(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return path
	}
	valid, err := func() ([]byte, error) {
		b := NewBuffer(IWAD)
		if err := b.Append("A", payload(4, 0)); err != nil {
			return nil, err
		}
		return b.Bytes()
	}()
	require.NoError(t, err)

	badMagic := bytes.Clone(valid)
	copy(badMagic, "ZWAD")
	truncatedDir := valid[:len(valid)-3]
	badEntry := bytes.Clone(valid)
	badEntry[len(badEntry)-12] = 0xFF // size of the only record

	for name, data := range map[string][]byte{
		"short.wad":     valid[:8],
		"magic.wad":     badMagic,
		"truncated.wad": truncatedDir,
		"entry.wad":     badEntry,
	} {
		t.Run(name, func(t *testing.T) {
			path := write(name, data)
			var fe *FormatError
			_, err := Open(path)
			assert.ErrorAs(t, err, &fe)
			_, err = OpenBuffer(path)
			assert.ErrorAs(t, err, &fe)
			_, err = OpenListing(path)
			assert.ErrorAs(t, err, &fe)
		})
	}

	f, err := Open(write("valid.wad", valid))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, IWAD, f.Kind())
}

func TestFileCompactsForeignLayout(t *testing.T) {
	// Directory first, payloads in reverse order and one shared range.
	var raw bytes.Buffer
	a, b := payload(6, 1), payload(9, 2)
	hdr, err := marshalHeader(PWAD, 3, headerSize)
	require.NoError(t, err)
	raw.Write(hdr)
	dataStart := headerSize + 3*recordSize
	dir, err := marshalDirectory([]Entry{
		{Name: "A", Offset: dataStart + len(b), Size: len(a)},
		{Name: "B", Offset: dataStart, Size: len(b)},
		{Name: "ALIAS", Offset: dataStart, Size: len(b)},
	})
	require.NoError(t, err)
	raw.Write(dir)
	raw.Write(b)
	raw.Write(a)

	path := filepath.Join(t.TempDir(), "foreign.wad")
	require.NoError(t, os.WriteFile(path, raw.Bytes(), 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.DataNamed("A")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	require.NoError(t, f.Append("C", payload(3, 3)))
	assert.True(t, contiguous(f.Entries()))
	for name, want := range map[string][]byte{"A": a, "B": b, "ALIAS": b, "C": payload(3, 3)} {
		got, err := f.DataNamed(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestFileSetKindAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kind.wad")
	f, err := Create(path, PWAD)
	require.NoError(t, err)
	require.NoError(t, f.Append("A", payload(2, 0)))
	require.NoError(t, f.SetKind(IWAD))
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Append("B", nil), ErrClosed)
	_, err = f.Data(0)
	assert.ErrorIs(t, err, ErrClosed)

	l, err := OpenListing(path)
	require.NoError(t, err)
	assert.Equal(t, IWAD, l.Kind())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "IWAD", string(raw[:4]))
}

func TestBufferSave(t *testing.T) {
	b := NewBuffer(IWAD)
	require.NoError(t, b.Append("PLAYPAL", payload(768, 0)))
	require.NoError(t, b.AppendMarker("F_START"))
	require.NoError(t, b.AppendMarker("F_END"))
	path := filepath.Join(t.TempDir(), "saved.wad")
	require.NoError(t, b.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "IWAD", string(raw[:4]))
	assert.Len(t, raw, headerSize+768+3*recordSize)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, b.Entries(), f.Entries())
}

func names(a Archive) []string {
	var result []string
	for _, e := range a.Entries() {
		result = append(result, e.Name)
	}
	return result
}

func totalSize(a Archive) int {
	total := 0
	for _, e := range a.Entries() {
		total += e.Size
	}
	return total
}
