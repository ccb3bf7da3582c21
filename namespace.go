package wad

import (
	"sort"
	"strings"
)

// Directory is the lookup surface of an archive, implemented by every backend.
type Directory interface {
	Len() int
	Entries() []Entry
	IndexOf(name string, from int) int
}

// Namespace returns the entries strictly between the first start marker and
// the next end marker, e.g. F_START and F_END. Nested markers are returned as
// entries too. ok is false if either marker is missing.
func Namespace(d Directory, start, end string) (entries []Entry, ok bool) {
	first := d.IndexOf(start, 0)
	if first < 0 {
		return nil, false
	}
	last := d.IndexOf(end, first+1)
	if last < 0 {
		return nil, false
	}
	return d.Entries()[first+1 : last], true
}

// MapNames returns the sorted names of map header entries: the entry right
// before a THINGS lump (binary maps) or a TEXTMAP lump (UDMF maps).
func MapNames(d Directory) []string {
	entries := d.Entries()
	seen := map[string]bool{}
	result := []string{}
	for i := 1; i < len(entries); i++ {
		if !sameName(entries[i].Name, "THINGS") && !sameName(entries[i].Name, "TEXTMAP") {
			continue
		}
		name := entries[i-1].Name
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

// MapEntries returns the entries of the map called name: the header entry and
// the lumps that follow it up to the next map header or non-map lump.
func MapEntries(d Directory, name string) ([]Entry, bool) {
	i := d.IndexOf(name, 0)
	if i < 0 {
		return nil, false
	}
	entries := d.Entries()
	j := i + 1
	for ; j < len(entries); j++ {
		if !mapLumps[strings.ToUpper(entries[j].Name)] {
			break
		}
		if sameName(entries[j].Name, "ENDMAP") {
			j++
			break
		}
	}
	return entries[i:j], true
}

var mapLumps = map[string]bool{
	"THINGS": true, "LINEDEFS": true, "SIDEDEFS": true, "VERTEXES": true,
	"SEGS": true, "SSECTORS": true, "NODES": true, "SECTORS": true,
	"REJECT": true, "BLOCKMAP": true, "BEHAVIOR": true, "SCRIPTS": true,
	"TEXTMAP": true, "ZNODES": true, "DIALOGUE": true, "ENDMAP": true,
	"GL_VERT": true, "GL_SEGS": true, "GL_SSECT": true, "GL_NODES": true, "GL_PVS": true,
}
