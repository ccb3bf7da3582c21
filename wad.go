// Package wad provides access to Doom's data archives also known as WAD files.
// The file format is documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html
//
// An archive is a 12 byte header, a data region holding the lump payloads and a
// directory of 16 byte records naming each lump and locating it in the file. Three
// backends share the same directory semantics: File mutates an archive on disk,
// Buffer keeps everything in memory until it is saved, and Listing only knows the
// directory.
package wad

import (
	"bytes"
	"strings"
)

// Kind selects the header tag of an archive. It has no influence on the layout.
type Kind int

const (
	IWAD Kind = iota // Internal WAD, a game's main data file
	PWAD             // Patch WAD, loaded on top of an IWAD
)

// String returns the four character header tag.
func (k Kind) String() string {
	if k == IWAD {
		return "IWAD"
	}
	return "PWAD"
}

// ParseKind converts a header tag into a Kind.
func ParseKind(tag string) (Kind, bool) {
	switch strings.ToUpper(tag) {
	case "IWAD":
		return IWAD, true
	case "PWAD":
		return PWAD, true
	}
	return PWAD, false
}

const (
	headerSize = 12
	recordSize = 16
	nameSize   = 8
)

type binHeader struct {
	Magic        [4]byte
	NumLumps     uint32
	InfoTableOfs uint32
}

type binLumpInfo struct {
	Filepos uint32
	Size    uint32
	Name    String8
}

// Entry is one directory record: a named byte range of the archive. Offset is
// measured from the start of the file.
type Entry struct {
	Name   string
	Offset int
	Size   int
}

// IsMarker reports whether the entry is a zero length bookmark such as F_START.
func (e Entry) IsMarker() bool {
	return e.Size == 0
}

// end returns the first byte position after the entry.
func (e Entry) end() int {
	return e.Offset + e.Size
}

// WAD eight-character string type. Null-terminated for short strings.
type String8 [8]byte

// String converts String8 to string. Trailing spaces are dropped too, some
// tools pad names with them.
func (s String8) String() string {
	i := bytes.IndexByte(s[:], 0)
	if i == -1 {
		i = len(s)
	}
	return string(bytes.TrimRight(s[0:i], " "))
}

// newString8 stores name space padded.
func newString8(name string) String8 {
	s := String8{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	copy(s[:], name)
	return s
}

// Archive is the directory and data surface shared by all backends.
type Archive interface {
	Kind() Kind
	Len() int
	Entries() []Entry
	EntryAt(i int) (Entry, error)
	EntryNamed(name string, from int) (Entry, bool)
	LastEntryNamed(name string) (Entry, bool)
	NthEntryNamed(name string, n int) (Entry, bool)
	EntriesNamed(name string) []Entry
	IndexOf(name string, from int) int
	LastIndexOf(name string) int
	MapRange(start, count int) []Entry

	Data(i int) ([]byte, error)
	DataNamed(name string) ([]byte, error)
	DataOf(e Entry) ([]byte, error)

	Append(name string, data []byte) error
	InsertAt(i int, name string, data []byte) error
	AppendMarker(name string) error
	ReplaceAt(i int, data []byte) error
	RenameAt(i int, name string) error
	DeleteAt(i int) error
	ReplaceDirectory(entries []Entry) error

	Close() error
}

var (
	_ Archive = (*File)(nil)
	_ Archive = (*Buffer)(nil)
	_ Archive = (*Listing)(nil)
)
