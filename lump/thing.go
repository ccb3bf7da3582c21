package lump

import (
	"bytes"
	"encoding/binary"
	"math"
)

type binThing struct {
	X       int16
	Y       int16
	Angle   int16
	Type    uint16
	Options uint16
}

type binHexenThing struct {
	TID     int16
	X, Y, Z int16
	Angle   int16
	Type    uint16
	Options uint16
	Special uint8
	Args    [5]uint8
}

const (
	thingSize      = 10
	hexenThingSize = 20
)

// Thing is one entry of a THINGS lump. The zero value appears in every game
// mode; flags that remove a thing from a mode are phrased as negations.
type Thing struct {
	TID     int // Hexen only
	X, Y    int
	Z       int // Height above the floor, Hexen only
	Angle   int // Degrees
	Type    int
	Special int    // Hexen only
	Args    [5]int // Hexen only

	Skill1and2      bool
	Skill3          bool
	Skill4and5      bool
	Ambush          bool
	MultiplayerOnly bool
	NotDeathmatch   bool // Boom and Hexen
	NotCoop         bool // Boom and Hexen
	Friendly        bool // MBF and Strife

	// Hexen
	Dormant bool
	Fighter bool
	Cleric  bool
	Mage    bool

	// Strife
	Standing    bool
	Translucent bool
	Invisible   bool
}

func thingFlag(name string, ptr func(*Thing) *bool) *flag[Thing] {
	return &flag[Thing]{name: name, ptr: ptr}
}

var (
	thingSkill1and2      = thingFlag("skill 1 and 2", func(t *Thing) *bool { return &t.Skill1and2 })
	thingSkill3          = thingFlag("skill 3", func(t *Thing) *bool { return &t.Skill3 })
	thingSkill4and5      = thingFlag("skill 4 and 5", func(t *Thing) *bool { return &t.Skill4and5 })
	thingAmbush          = thingFlag("ambush", func(t *Thing) *bool { return &t.Ambush })
	thingMultiplayerOnly = thingFlag("multiplayer only", func(t *Thing) *bool { return &t.MultiplayerOnly })
	thingNotDeathmatch   = thingFlag("not deathmatch", func(t *Thing) *bool { return &t.NotDeathmatch })
	thingNotCoop         = thingFlag("not coop", func(t *Thing) *bool { return &t.NotCoop })
	thingFriendly        = thingFlag("friendly", func(t *Thing) *bool { return &t.Friendly })
	thingDormant         = thingFlag("dormant", func(t *Thing) *bool { return &t.Dormant })
	thingFighter         = thingFlag("fighter", func(t *Thing) *bool { return &t.Fighter })
	thingCleric          = thingFlag("cleric", func(t *Thing) *bool { return &t.Cleric })
	thingMage            = thingFlag("mage", func(t *Thing) *bool { return &t.Mage })
	thingStanding        = thingFlag("standing", func(t *Thing) *bool { return &t.Standing })
	thingTranslucent     = thingFlag("translucent", func(t *Thing) *bool { return &t.Translucent })
	thingInvisible       = thingFlag("invisible", func(t *Thing) *bool { return &t.Invisible })

	allThingFlags = []*flag[Thing]{
		thingSkill1and2, thingSkill3, thingSkill4and5, thingAmbush, thingMultiplayerOnly,
		thingNotDeathmatch, thingNotCoop, thingFriendly, thingDormant, thingFighter,
		thingCleric, thingMage, thingStanding, thingTranslucent, thingInvisible,
	}

	thingLayouts = map[Format]flagLayout[Thing]{
		Doom: {bits: []bitFlag[Thing]{
			bit(thingSkill1and2, 0x0001),
			bit(thingSkill3, 0x0002),
			bit(thingSkill4and5, 0x0004),
			bit(thingAmbush, 0x0008),
			bit(thingMultiplayerOnly, 0x0010),
			bit(thingNotDeathmatch, 0x0020),
			bit(thingNotCoop, 0x0040),
			bit(thingFriendly, 0x0080),
		}},
		Hexen: {bits: []bitFlag[Thing]{
			bit(thingSkill1and2, 0x0001),
			bit(thingSkill3, 0x0002),
			bit(thingSkill4and5, 0x0004),
			bit(thingAmbush, 0x0008),
			bit(thingDormant, 0x0010),
			bit(thingFighter, 0x0020),
			bit(thingCleric, 0x0040),
			bit(thingMage, 0x0080),
			// Hexen stores the modes a thing appears in
			invertedBit(thingMultiplayerOnly, 0x0100),
			invertedBit(thingNotCoop, 0x0200),
			invertedBit(thingNotDeathmatch, 0x0400),
		}},
		Strife: {bits: []bitFlag[Thing]{
			bit(thingSkill1and2, 0x0001),
			bit(thingSkill3, 0x0002),
			bit(thingSkill4and5, 0x0004),
			bit(thingStanding, 0x0008),
			bit(thingMultiplayerOnly, 0x0010),
			bit(thingAmbush, 0x0020),
			bit(thingFriendly, 0x0040),
			bit(thingTranslucent, 0x0100),
			bit(thingInvisible, 0x0200),
		}},
	}
)

// Formats returns every format.
func (t *Thing) Formats() FormatSet {
	return AllFormats
}

// Size returns the record size in f.
func (t *Thing) Size(f Format) int {
	if f == Hexen {
		return hexenThingSize
	}
	return thingSize
}

// Check reports fields the layout of f cannot hold.
func (t *Thing) Check(f Format) error {
	c := newChecker(f, t.Formats())
	inRange(c, "x", t.X, math.MinInt16, math.MaxInt16)
	inRange(c, "y", t.Y, math.MinInt16, math.MaxInt16)
	inRange(c, "angle", t.Angle, math.MinInt16, math.MaxInt16)
	inRange(c, "type", t.Type, 0, math.MaxUint16)
	if f == Hexen {
		inRange(c, "tid", t.TID, math.MinInt16, math.MaxInt16)
		inRange(c, "z", t.Z, math.MinInt16, math.MaxInt16)
		inRange(c, "special", t.Special, 0, math.MaxUint8)
		for _, a := range t.Args {
			inRange(c, "args", a, 0, math.MaxUint8)
		}
	} else {
		zero(c, "tid", t.TID)
		zero(c, "z", t.Z)
		zero(c, "special", t.Special)
		zero(c, "args", t.Args)
	}
	if layout, ok := thingLayouts[f]; ok {
		layout.check(c, allThingFlags, t)
	}
	return c.err
}

// Encode returns the thing record in layout f.
func (t *Thing) Encode(f Format) ([]byte, error) {
	if err := t.Check(f); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, t.Size(f)))
	options := thingLayouts[f].pack(t)
	var record any
	if f == Hexen {
		ht := binHexenThing{
			TID:     int16(t.TID),
			X:       int16(t.X),
			Y:       int16(t.Y),
			Z:       int16(t.Z),
			Angle:   int16(t.Angle),
			Type:    uint16(t.Type),
			Options: options,
			Special: uint8(t.Special),
		}
		for i, a := range t.Args {
			ht.Args[i] = uint8(a)
		}
		record = &ht
	} else {
		record = &binThing{
			X:       int16(t.X),
			Y:       int16(t.Y),
			Angle:   int16(t.Angle),
			Type:    uint16(t.Type),
			Options: options,
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads one thing record in layout f.
func (t *Thing) Decode(f Format, data []byte) error {
	if err := requireLen(data, t.Size(f), "thing"); err != nil {
		return err
	}
	reader := bytes.NewReader(data)
	var options uint16
	if f == Hexen {
		var ht binHexenThing
		if err := binary.Read(reader, binary.LittleEndian, &ht); err != nil {
			return err
		}
		*t = Thing{
			TID:     int(ht.TID),
			X:       int(ht.X),
			Y:       int(ht.Y),
			Z:       int(ht.Z),
			Angle:   int(ht.Angle),
			Type:    int(ht.Type),
			Special: int(ht.Special),
		}
		for i, a := range ht.Args {
			t.Args[i] = int(a)
		}
		options = ht.Options
	} else {
		var bt binThing
		if err := binary.Read(reader, binary.LittleEndian, &bt); err != nil {
			return err
		}
		*t = Thing{
			X:     int(bt.X),
			Y:     int(bt.Y),
			Angle: int(bt.Angle),
			Type:  int(bt.Type),
		}
		options = bt.Options
	}
	thingLayouts[f].unpack(options, allThingFlags, t)
	return nil
}
