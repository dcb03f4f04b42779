package client

import (
	"fmt"
	"sort"

	"github.com/jxsl13/q3api/compression"
	"github.com/jxsl13/q3api/protocol"
)

// PlayerState is the local player's state within one snapshot. Fields is
// indexed by position in protocol.PlayerStateFields; integer fields are
// stored as their exact value, float fields as the decoded float.
type PlayerState struct {
	Fields     [len(protocol.PlayerStateFields)]float64
	Stats      [16]int32
	Persistant [16]int32
	Ammo       [16]int32
	Powerups   [16]int32
}

// EntityState is one entity's state within a snapshot. Entity numbers
// range 0..1022; 1023 is the wire sentinel and never appears here.
type EntityState struct {
	Number int32
	Fields [len(protocol.EntityStateFields)]float64
}

// Snapshot is one server tick's worth of world state. It is immutable
// once decoded; consumers must not modify it.
type Snapshot struct {
	Sequence   uint32
	ServerTime uint32
	DeltaNum   uint8
	SnapFlags  uint8
	AreaMask   []byte

	PlayerState PlayerState
	// Entities is ordered by ascending entity number.
	Entities []EntityState
}

// field positions resolved once at startup; the schemas are fixed
var (
	psOrigin     = playerFieldIndex("origin[0]")
	psVelocity   = playerFieldIndex("velocity[0]")
	psViewangles = playerFieldIndex("viewangles[0]")
	psClientNum  = playerFieldIndex("clientNum")
	psWeapon     = playerFieldIndex("weapon")

	esPosBase    = entityFieldIndex("pos.trBase[0]")
	esEType      = entityFieldIndex("eType")
	esClientNum  = entityFieldIndex("clientNum")
	esWeapon     = entityFieldIndex("weapon")
	esEventField = entityFieldIndex("event")
)

func playerFieldIndex(name string) int {
	for i, f := range protocol.PlayerStateFields {
		if f.Name == name {
			return i
		}
	}
	panic("unknown player state field " + name)
}

func entityFieldIndex(name string) int {
	for i, f := range protocol.EntityStateFields {
		if f.Name == name {
			return i
		}
	}
	panic("unknown entity state field " + name)
}

// Origin returns the player position. The components do not occupy
// adjacent schema slots; the wire order interleaves them.
func (ps *PlayerState) Origin() [3]float64 {
	return [3]float64{
		ps.Fields[psOrigin],
		ps.Fields[playerFieldCache.origin1],
		ps.Fields[playerFieldCache.origin2],
	}
}

func (ps *PlayerState) Velocity() [3]float64 {
	return [3]float64{
		ps.Fields[psVelocity],
		ps.Fields[playerFieldCache.velocity1],
		ps.Fields[playerFieldCache.velocity2],
	}
}

// ViewAngles returns pitch, yaw, roll in degrees.
func (ps *PlayerState) ViewAngles() [3]float64 {
	return [3]float64{
		ps.Fields[psViewangles],
		ps.Fields[playerFieldCache.viewangles1],
		ps.Fields[playerFieldCache.viewangles2],
	}
}

func (ps *PlayerState) Health() int32 {
	return ps.Stats[protocol.StatHealth]
}

func (ps *PlayerState) Armor() int32 {
	return ps.Stats[protocol.StatArmor]
}

func (ps *PlayerState) Weapon() int32 {
	return int32(ps.Fields[psWeapon])
}

func (ps *PlayerState) ClientNum() int32 {
	return int32(ps.Fields[psClientNum])
}

var playerFieldCache = struct {
	origin1, origin2         int
	velocity1, velocity2     int
	viewangles1, viewangles2 int
}{
	origin1:     playerFieldIndex("origin[1]"),
	origin2:     playerFieldIndex("origin[2]"),
	velocity1:   playerFieldIndex("velocity[1]"),
	velocity2:   playerFieldIndex("velocity[2]"),
	viewangles1: playerFieldIndex("viewangles[1]"),
	viewangles2: playerFieldIndex("viewangles[2]"),
}

var entityFieldCache = struct {
	posBase1, posBase2 int
}{
	posBase1: entityFieldIndex("pos.trBase[1]"),
	posBase2: entityFieldIndex("pos.trBase[2]"),
}

// Origin returns the entity position (trajectory base).
func (es *EntityState) Origin() [3]float64 {
	return [3]float64{
		es.Fields[esPosBase],
		es.Fields[entityFieldCache.posBase1],
		es.Fields[entityFieldCache.posBase2],
	}
}

func (es *EntityState) Type() int32 {
	return int32(es.Fields[esEType])
}

func (es *EntityState) IsPlayer() bool {
	return es.Type() == protocol.ETPlayer
}

func (es *EntityState) ClientNum() int32 {
	return int32(es.Fields[esClientNum])
}

func (es *EntityState) Weapon() int32 {
	return int32(es.Fields[esWeapon])
}

func (es *EntityState) Event() int32 {
	return int32(es.Fields[esEventField])
}

// Entity looks up an entity by number, nil if it is not in the snapshot.
func (s *Snapshot) Entity(number int32) *EntityState {
	i := sort.Search(len(s.Entities), func(i int) bool {
		return s.Entities[i].Number >= number
	})
	if i < len(s.Entities) && s.Entities[i].Number == number {
		return &s.Entities[i]
	}
	return nil
}

// Players returns all player entities of the snapshot.
func (s *Snapshot) Players() []EntityState {
	var out []EntityState
	for _, es := range s.Entities {
		if es.IsPlayer() {
			out = append(out, es)
		}
	}
	return out
}

// readDeltaPlayerState decodes a player state delta against base
// (nil means an all-zero base). Wire form: an 8 bit changed-field count,
// per field a changed bit; changed float fields carry only an
// int-or-float selector, changed integer fields the value directly.
// An arrays-changed bit then gates the four independently flagged
// array sections.
func readDeltaPlayerState(r *compression.Reader, base *PlayerState) (PlayerState, error) {
	var ps PlayerState
	if base != nil {
		ps = *base
	}

	lastField, err := r.ReadByte()
	if err != nil {
		return ps, err
	}
	if int(lastField) > len(protocol.PlayerStateFields) {
		return ps, fmt.Errorf("%w: player state fields %d > %d",
			ErrFieldCountOutOfRange, lastField, len(protocol.PlayerStateFields))
	}

	for i := 0; i < int(lastField); i++ {
		changed, err := r.ReadBit()
		if err != nil {
			return ps, err
		}
		if changed == 0 {
			continue
		}

		field := protocol.PlayerStateFields[i]
		if field.Bits == 0 {
			fullFloat, err := r.ReadBit()
			if err != nil {
				return ps, err
			}
			if fullFloat != 0 {
				v, err := r.ReadFloat()
				if err != nil {
					return ps, err
				}
				ps.Fields[i] = float64(v)
			} else {
				v, err := r.ReadFloatInt()
				if err != nil {
					return ps, err
				}
				ps.Fields[i] = float64(v)
			}
		} else {
			v, err := r.ReadBits(field.Bits)
			if err != nil {
				return ps, err
			}
			ps.Fields[i] = float64(v)
		}
	}

	arraysChanged, err := r.ReadBit()
	if err != nil {
		return ps, err
	}
	if arraysChanged == 0 {
		return ps, nil
	}

	if err := readPlayerArray(r, ps.Stats[:], 16); err != nil {
		return ps, err
	}
	if err := readPlayerArray(r, ps.Persistant[:], 16); err != nil {
		return ps, err
	}
	if err := readPlayerArray(r, ps.Ammo[:], 16); err != nil {
		return ps, err
	}
	if err := readPlayerArray(r, ps.Powerups[:], 32); err != nil {
		return ps, err
	}
	return ps, nil
}

// readPlayerArray reads one optionally present array section: a changed
// bit, a 16 bit index bitmask and one value per set bit. Indices whose
// bit is clear keep their previous value.
func readPlayerArray(r *compression.Reader, dst []int32, valueBits int) error {
	changed, err := r.ReadBit()
	if err != nil {
		return err
	}
	if changed == 0 {
		return nil
	}

	mask, err := r.ReadBits(16)
	if err != nil {
		return err
	}
	for i := 0; i < 16; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		v, err := r.ReadBits(valueBits)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// readDeltaEntity decodes one entity delta against base (nil means an
// all-zero base). Wire form: a remove bit, a changed bit, then an 8 bit
// changed-field count and per field a changed bit; changed fields of
// both kinds carry an is-not-zero bit, zero values encode no further
// bits. Float values are either the biased small-integer form or a raw
// 32 bit IEEE float.
func readDeltaEntity(r *compression.Reader, base *EntityState, number int32) (es EntityState, removed bool, err error) {
	if base != nil {
		es = *base
	}
	es.Number = number

	remove, err := r.ReadBit()
	if err != nil {
		return es, false, err
	}
	if remove != 0 {
		return es, true, nil
	}

	changed, err := r.ReadBit()
	if err != nil {
		return es, false, err
	}
	if changed == 0 {
		return es, false, nil
	}

	lastField, err := r.ReadByte()
	if err != nil {
		return es, false, err
	}
	if int(lastField) > len(protocol.EntityStateFields) {
		return es, false, fmt.Errorf("%w: entity fields %d > %d",
			ErrFieldCountOutOfRange, lastField, len(protocol.EntityStateFields))
	}

	for i := 0; i < int(lastField); i++ {
		fieldChanged, err := r.ReadBit()
		if err != nil {
			return es, false, err
		}
		if fieldChanged == 0 {
			continue
		}

		field := protocol.EntityStateFields[i]
		if field.Bits == 0 {
			notZero, err := r.ReadBit()
			if err != nil {
				return es, false, err
			}
			if notZero == 0 {
				es.Fields[i] = 0
				continue
			}
			fullFloat, err := r.ReadBit()
			if err != nil {
				return es, false, err
			}
			if fullFloat != 0 {
				v, err := r.ReadFloat()
				if err != nil {
					return es, false, err
				}
				es.Fields[i] = float64(v)
			} else {
				v, err := r.ReadFloatInt()
				if err != nil {
					return es, false, err
				}
				es.Fields[i] = float64(v)
			}
		} else {
			notZero, err := r.ReadBit()
			if err != nil {
				return es, false, err
			}
			if notZero == 0 {
				es.Fields[i] = 0
				continue
			}
			v, err := r.ReadBits(field.Bits)
			if err != nil {
				return es, false, err
			}
			es.Fields[i] = float64(v)
		}
	}

	return es, false, nil
}
