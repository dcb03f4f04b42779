package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAngleConversion(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	for _, angle := range []float64{0, 45, 90, 179.99, -90, -179.99, 360} {
		short := angleToShort(angle)
		require.GreaterOrEqual(short, int32(0))
		require.Less(short, int32(0x10000))
		back := shortToAngle(short)
		require.InDelta(normalizeYaw(angle), normalizeYaw(back), 0.01, "angle %f", angle)
	}
}

func TestClampPitch(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	require.Equal(89.0, clampPitch(120))
	require.Equal(-89.0, clampPitch(-100))
	require.Equal(30.0, clampPitch(30))
}

func TestMoveHolds(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	c.Move(127, 0, 0, 2)

	c.mu.Lock()
	first := c.nextUsercmd()
	second := c.nextUsercmd()
	third := c.nextUsercmd()
	c.mu.Unlock()

	require.Equal(int32(127), first.Forward)
	require.Equal(int32(127), second.Forward)
	require.Equal(int32(0), third.Forward, "hold expires after the requested frames")
}

func TestAttackHold(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	c.Attack(1)

	c.mu.Lock()
	first := c.nextUsercmd()
	second := c.nextUsercmd()
	c.mu.Unlock()

	require.Equal(int32(ButtonAttack), first.Buttons)
	require.Equal(int32(0), second.Buttons)
}

func TestSelectWeaponOneShot(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	c.SelectWeapon(5)

	c.mu.Lock()
	first := c.nextUsercmd()
	c.lastUsercmd = first
	second := c.nextUsercmd()
	c.mu.Unlock()

	require.Equal(int32(5), first.Weapon)
	require.Equal(int32(5), second.Weapon, "the selected weapon persists in later commands")
}

func TestSetViewAngles(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	c.SetViewAngles(10, 90, 0, 1)

	c.mu.Lock()
	cmd := c.nextUsercmd()
	c.mu.Unlock()

	require.InDelta(10.0, shortToAngle(cmd.Angles[0]), 0.01)
	require.InDelta(90.0, shortToAngle(cmd.Angles[1]), 0.01)
}

func TestServerTimeChaining(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	c.serverTime = 8000

	c.mu.Lock()
	cmd := c.nextUsercmd()
	c.mu.Unlock()

	require.Equal(uint32(8050), cmd.ServerTime)
}
