package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jxsl13/q3api/compression"
	"github.com/jxsl13/q3api/protocol"
)

// writeFloatAsInt emits a changed float field in the small-integer form.
func writeFloatAsInt(w *compression.Writer, value int32) {
	w.WriteBit(0) // not a full float
	w.WriteFloatInt(value)
}

func TestDeltaPlayerStateFromZeroBase(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	w := compression.NewWriter()
	w.WriteByte(4) // fields 0..3 covered

	// commandTime (32 bit int)
	w.WriteBit(1)
	w.WriteBits(123456, 32)
	// origin[0] (float, small integer form)
	w.WriteBit(1)
	w.WriteBit(0)
	w.WriteFloatInt(320)
	// origin[1] (float, raw form)
	w.WriteBit(1)
	w.WriteBit(1)
	w.WriteFloat(1.5)
	// bobCycle unchanged
	w.WriteBit(0)

	w.WriteBit(0) // no arrays

	r := compression.NewReader(w.Bytes())
	ps, err := readDeltaPlayerState(r, nil)
	require.NoError(err)

	require.Equal(float64(123456), ps.Fields[0])
	require.Equal(float64(320), ps.Fields[1])
	require.InDelta(1.5, ps.Fields[2], 1e-9)
	require.Equal(float64(0), ps.Fields[3])
}

func TestDeltaPlayerStateRetainsBase(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	var base PlayerState
	base.Fields[0] = 999
	base.Fields[1] = -64
	base.Stats[protocol.StatHealth] = 100

	w := compression.NewWriter()
	w.WriteByte(2)
	w.WriteBit(0) // commandTime unchanged
	w.WriteBit(1) // origin[0] changed
	writeFloatAsInt(w, 512)
	w.WriteBit(0) // no arrays

	r := compression.NewReader(w.Bytes())
	ps, err := readDeltaPlayerState(r, &base)
	require.NoError(err)

	require.Equal(float64(999), ps.Fields[0], "unchanged field keeps base value")
	require.Equal(float64(512), ps.Fields[1])
	require.Equal(int32(100), ps.Health(), "arrays keep base values")
}

func TestDeltaPlayerStateArrays(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	var base PlayerState
	base.Stats[protocol.StatHealth] = 100
	base.Stats[protocol.StatArmor] = 50
	base.Ammo[2] = 30

	w := compression.NewWriter()
	w.WriteByte(0) // no scalar fields
	w.WriteBit(1)  // arrays present

	// stats: only health changes
	w.WriteBit(1)
	w.WriteBits(1<<protocol.StatHealth, 16)
	w.WriteBits(75, 16)
	// persistant unchanged
	w.WriteBit(0)
	// ammo unchanged
	w.WriteBit(0)
	// powerups: slot 1 set, 32 bit values
	w.WriteBit(1)
	w.WriteBits(1<<1, 16)
	w.WriteBits(0x1234, 32)

	r := compression.NewReader(w.Bytes())
	ps, err := readDeltaPlayerState(r, &base)
	require.NoError(err)

	require.Equal(int32(75), ps.Health())
	require.Equal(int32(50), ps.Armor(), "unmasked index keeps base value")
	require.Equal(int32(30), ps.Ammo[2])
	require.Equal(int32(0x1234), ps.Powerups[1])
}

func TestDeltaPlayerStateFieldCountBound(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	w := compression.NewWriter()
	w.WriteByte(byte(len(protocol.PlayerStateFields) + 1))

	r := compression.NewReader(w.Bytes())
	_, err := readDeltaPlayerState(r, nil)
	require.ErrorIs(err, ErrFieldCountOutOfRange)
}

func TestDeltaEntityRemove(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	w := compression.NewWriter()
	w.WriteBit(1) // remove

	r := compression.NewReader(w.Bytes())
	_, removed, err := readDeltaEntity(r, nil, 17)
	require.NoError(err)
	require.True(removed)
}

func TestDeltaEntityUnchanged(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	var base EntityState
	base.Number = 3
	base.Fields[0] = 4242

	w := compression.NewWriter()
	w.WriteBit(0) // present
	w.WriteBit(0) // no field data

	r := compression.NewReader(w.Bytes())
	es, removed, err := readDeltaEntity(r, &base, 3)
	require.NoError(err)
	require.False(removed)
	require.Equal(float64(4242), es.Fields[0])
	require.Equal(int32(3), es.Number)
}

func TestDeltaEntityZeroBit(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	var base EntityState
	base.Fields[0] = 1000 // pos.trTime, integer
	base.Fields[1] = 2.5  // pos.trBase[0], float

	w := compression.NewWriter()
	w.WriteBit(0)  // present
	w.WriteBit(1)  // has field data
	w.WriteByte(2) // fields 0..1 covered

	// pos.trTime changed to zero: no value bits follow
	w.WriteBit(1)
	w.WriteBit(0)
	// pos.trBase[0] changed to zero
	w.WriteBit(1)
	w.WriteBit(0)

	r := compression.NewReader(w.Bytes())
	es, removed, err := readDeltaEntity(r, &base, 1)
	require.NoError(err)
	require.False(removed)
	require.Equal(float64(0), es.Fields[0])
	require.Equal(float64(0), es.Fields[1])
}

func TestDeltaEntityValues(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	w := compression.NewWriter()
	w.WriteBit(0)  // present
	w.WriteBit(1)  // has field data
	w.WriteByte(2) // fields 0..1 covered

	// pos.trTime = 5000
	w.WriteBit(1)
	w.WriteBit(1)
	w.WriteBits(5000, 32)
	// pos.trBase[0] = -128 (small integer float)
	w.WriteBit(1)
	w.WriteBit(1)
	w.WriteBit(0)
	w.WriteFloatInt(-128)

	r := compression.NewReader(w.Bytes())
	es, removed, err := readDeltaEntity(r, nil, 1)
	require.NoError(err)
	require.False(removed)
	require.Equal(float64(5000), es.Fields[0])
	require.Equal(float64(-128), es.Fields[1])
}

func TestSnapshotEntityLookup(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	snap := &Snapshot{
		Entities: []EntityState{
			{Number: 1},
			{Number: 5},
			{Number: 900},
		},
	}

	require.NotNil(snap.Entity(1))
	require.NotNil(snap.Entity(5))
	require.NotNil(snap.Entity(900))
	require.Nil(snap.Entity(2))
	require.Nil(snap.Entity(1022))
}
