package lump

import (
	"bytes"
	"encoding/binary"
	"math"
)

// NoSide is the sidedef index of a missing side.
const NoSide = -1

type binLine struct {
	VertexStart, VertexEnd uint16
	Flags                  uint16
	Type                   uint16
	SectorTag              uint16
	SideR, SideL           uint16
}

type binHexenLine struct {
	VertexStart, VertexEnd uint16
	Flags                  uint16
	Special                uint8
	Args                   [5]uint8
	SideR, SideL           uint16
}

const (
	lineSize      = 14
	hexenLineSize = 16
)

// Linedef is one entry of a LINEDEFS lump.
type Linedef struct {
	V1Num, V2Num       int
	SideRNum, SideLNum int // NoSide when absent
	Special            int // Line type in Doom and Strife, action special in Hexen
	SectorTagNum       int // Doom and Strife only
	Args               [5]int

	BlockPlayerAndMonsters bool
	BlockMonsters          bool
	TwoSided               bool
	UpperTextureUnpegged   bool
	LowerTextureUnpegged   bool
	Secret                 bool
	BlocksSound            bool
	NeverMap               bool
	AlwaysMap              bool

	PassUse bool // Boom

	// Hexen
	Repeatable      bool
	PlayerCross     bool
	PlayerUse       bool
	MonsterCross    bool
	Impact          bool
	PlayerPush      bool
	ProjectileCross bool
	MonsterActivate bool
	BlockEverything bool

	// Strife
	JumpOver      bool
	BlockFloaters bool
	Translucent   bool
	Translucent75 bool
}

func lineFlag(name string, ptr func(*Linedef) *bool) *flag[Linedef] {
	return &flag[Linedef]{name: name, ptr: ptr}
}

var (
	lineBlock           = lineFlag("block players and monsters", func(l *Linedef) *bool { return &l.BlockPlayerAndMonsters })
	lineBlockMonsters   = lineFlag("block monsters", func(l *Linedef) *bool { return &l.BlockMonsters })
	lineTwoSided        = lineFlag("two sided", func(l *Linedef) *bool { return &l.TwoSided })
	lineUpperUnpegged   = lineFlag("upper texture unpegged", func(l *Linedef) *bool { return &l.UpperTextureUnpegged })
	lineLowerUnpegged   = lineFlag("lower texture unpegged", func(l *Linedef) *bool { return &l.LowerTextureUnpegged })
	lineSecret          = lineFlag("secret", func(l *Linedef) *bool { return &l.Secret })
	lineBlocksSound     = lineFlag("blocks sound", func(l *Linedef) *bool { return &l.BlocksSound })
	lineNeverMap        = lineFlag("never map", func(l *Linedef) *bool { return &l.NeverMap })
	lineAlwaysMap       = lineFlag("always map", func(l *Linedef) *bool { return &l.AlwaysMap })
	linePassUse         = lineFlag("pass use", func(l *Linedef) *bool { return &l.PassUse })
	lineRepeatable      = lineFlag("repeatable", func(l *Linedef) *bool { return &l.Repeatable })
	linePlayerCross     = lineFlag("player cross", func(l *Linedef) *bool { return &l.PlayerCross })
	linePlayerUse       = lineFlag("player use", func(l *Linedef) *bool { return &l.PlayerUse })
	lineMonsterCross    = lineFlag("monster cross", func(l *Linedef) *bool { return &l.MonsterCross })
	lineImpact          = lineFlag("impact", func(l *Linedef) *bool { return &l.Impact })
	linePlayerPush      = lineFlag("player push", func(l *Linedef) *bool { return &l.PlayerPush })
	lineProjectileCross = lineFlag("projectile cross", func(l *Linedef) *bool { return &l.ProjectileCross })
	lineMonsterActivate = lineFlag("monster activate", func(l *Linedef) *bool { return &l.MonsterActivate })
	lineBlockEverything = lineFlag("block everything", func(l *Linedef) *bool { return &l.BlockEverything })
	lineJumpOver        = lineFlag("jump over", func(l *Linedef) *bool { return &l.JumpOver })
	lineBlockFloaters   = lineFlag("block floaters", func(l *Linedef) *bool { return &l.BlockFloaters })
	lineTranslucent     = lineFlag("translucent", func(l *Linedef) *bool { return &l.Translucent })
	lineTranslucent75   = lineFlag("translucent 75", func(l *Linedef) *bool { return &l.Translucent75 })

	allLineFlags = []*flag[Linedef]{
		lineBlock, lineBlockMonsters, lineTwoSided, lineUpperUnpegged, lineLowerUnpegged,
		lineSecret, lineBlocksSound, lineNeverMap, lineAlwaysMap, linePassUse,
		lineRepeatable, linePlayerCross, linePlayerUse, lineMonsterCross, lineImpact,
		linePlayerPush, lineProjectileCross, lineMonsterActivate, lineBlockEverything,
		lineJumpOver, lineBlockFloaters, lineTranslucent, lineTranslucent75,
	}

	// The low nine bits mean the same in every format
	commonLineBits = []bitFlag[Linedef]{
		bit(lineBlock, 0x0001),
		bit(lineBlockMonsters, 0x0002),
		bit(lineTwoSided, 0x0004),
		bit(lineUpperUnpegged, 0x0008),
		bit(lineLowerUnpegged, 0x0010),
		bit(lineSecret, 0x0020),
		bit(lineBlocksSound, 0x0040),
		bit(lineNeverMap, 0x0080),
		bit(lineAlwaysMap, 0x0100),
	}

	lineLayouts = map[Format]flagLayout[Linedef]{
		Doom: {
			bits: append(commonLineBits[:len(commonLineBits):len(commonLineBits)],
				bit(linePassUse, 0x0200),
			),
		},
		Hexen: {
			bits: append(commonLineBits[:len(commonLineBits):len(commonLineBits)],
				bit(lineRepeatable, 0x0200),
				bit(lineMonsterActivate, 0x2000),
				bit(lineBlockEverything, 0x8000),
			),
			modes: []modeFlags[Linedef]{{
				mask:  0x1C00,
				shift: 10,
				modes: []*flag[Linedef]{
					linePlayerCross, linePlayerUse, lineMonsterCross,
					lineImpact, linePlayerPush, lineProjectileCross,
				},
			}},
		},
		Strife: {
			bits: append(commonLineBits[:len(commonLineBits):len(commonLineBits)],
				bit(lineJumpOver, 0x0200),
				bit(lineBlockFloaters, 0x0400),
			),
			modes: []modeFlags[Linedef]{{
				mask:  0x1800,
				shift: 11,
				// Both bits set is read as the stronger translucency
				modes: []*flag[Linedef]{nil, lineTranslucent, lineTranslucent75, lineTranslucent75},
			}},
		},
	}
)

// Formats returns every format.
func (l *Linedef) Formats() FormatSet {
	return AllFormats
}

// Size returns the record size in f.
func (l *Linedef) Size(f Format) int {
	if f == Hexen {
		return hexenLineSize
	}
	return lineSize
}

func sideIndex(c *checker, field string, side int) {
	if side != NoSide {
		inRange(c, field, side, 0, math.MaxUint16-1)
	}
}

func sideWord(side int) uint16 {
	if side == NoSide {
		return 0xFFFF
	}
	return uint16(side)
}

func wordSide(w uint16) int {
	if w == 0xFFFF {
		return NoSide
	}
	return int(w)
}

// Check reports fields the layout of f cannot hold.
func (l *Linedef) Check(f Format) error {
	c := newChecker(f, l.Formats())
	inRange(c, "start vertex", l.V1Num, 0, math.MaxUint16)
	inRange(c, "end vertex", l.V2Num, 0, math.MaxUint16)
	sideIndex(c, "right side", l.SideRNum)
	sideIndex(c, "left side", l.SideLNum)
	if f == Hexen {
		inRange(c, "special", l.Special, 0, math.MaxUint8)
		zero(c, "sector tag", l.SectorTagNum)
		for _, a := range l.Args {
			inRange(c, "args", a, 0, math.MaxUint8)
		}
	} else {
		inRange(c, "special", l.Special, 0, math.MaxUint16)
		inRange(c, "sector tag", l.SectorTagNum, 0, math.MaxUint16)
		zero(c, "args", l.Args)
	}
	if layout, ok := lineLayouts[f]; ok {
		layout.check(c, allLineFlags, l)
	}
	return c.err
}

// Encode returns the linedef record in layout f.
func (l *Linedef) Encode(f Format) ([]byte, error) {
	if err := l.Check(f); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, l.Size(f)))
	flags := lineLayouts[f].pack(l)
	var record any
	if f == Hexen {
		hl := binHexenLine{
			VertexStart: uint16(l.V1Num),
			VertexEnd:   uint16(l.V2Num),
			Flags:       flags,
			Special:     uint8(l.Special),
			SideR:       sideWord(l.SideRNum),
			SideL:       sideWord(l.SideLNum),
		}
		for i, a := range l.Args {
			hl.Args[i] = uint8(a)
		}
		record = &hl
	} else {
		record = &binLine{
			VertexStart: uint16(l.V1Num),
			VertexEnd:   uint16(l.V2Num),
			Flags:       flags,
			Type:        uint16(l.Special),
			SectorTag:   uint16(l.SectorTagNum),
			SideR:       sideWord(l.SideRNum),
			SideL:       sideWord(l.SideLNum),
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads one linedef record in layout f.
func (l *Linedef) Decode(f Format, data []byte) error {
	if err := requireLen(data, l.Size(f), "linedef"); err != nil {
		return err
	}
	reader := bytes.NewReader(data)
	var flags uint16
	if f == Hexen {
		var hl binHexenLine
		if err := binary.Read(reader, binary.LittleEndian, &hl); err != nil {
			return err
		}
		*l = Linedef{
			V1Num:    int(hl.VertexStart),
			V2Num:    int(hl.VertexEnd),
			SideRNum: wordSide(hl.SideR),
			SideLNum: wordSide(hl.SideL),
			Special:  int(hl.Special),
		}
		for i, a := range hl.Args {
			l.Args[i] = int(a)
		}
		flags = hl.Flags
	} else {
		var bl binLine
		if err := binary.Read(reader, binary.LittleEndian, &bl); err != nil {
			return err
		}
		*l = Linedef{
			V1Num:        int(bl.VertexStart),
			V2Num:        int(bl.VertexEnd),
			SideRNum:     wordSide(bl.SideR),
			SideLNum:     wordSide(bl.SideL),
			Special:      int(bl.Type),
			SectorTagNum: int(bl.SectorTag),
		}
		flags = bl.Flags
	}
	lineLayouts[f].unpack(flags, allLineFlags, l)
	return nil
}
