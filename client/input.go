package client

import (
	"math"
	"time"
)

// ButtonAttack is the fire button bit of the movement command.
const ButtonAttack = 1

const (
	defaultMoveFrames   = 8
	defaultButtonFrames = 2
	defaultViewFrames   = 8
)

// usercmd is one movement command as sent to the server.
type usercmd struct {
	ServerTime uint32
	Angles     [3]int32 // 16 bit angle units
	Forward    int32
	Right      int32
	Up         int32
	Buttons    int32
	Weapon     int32
}

// inputState holds the caller's movement intents. Intents are held for a
// number of client frames so decision loops running below the frame rate
// still produce continuous movement.
type inputState struct {
	forward, right, up                   int32
	forwardFrames, rightFrames, upFrames int
	attackFrames                         int

	aimAngles [3]float64
	aimFrames int

	pendingWeapon int32
}

// Move holds the movement axes (-127..127) for the given number of
// client frames. Zero axes leave the previous hold untouched.
func (c *Client) Move(forward, right, up int, frames int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if frames < 1 {
		frames = 1
	}
	if forward != 0 {
		c.input.forward = clampMove(forward)
		c.input.forwardFrames = maxInt(c.input.forwardFrames, frames)
	}
	if right != 0 {
		c.input.right = clampMove(right)
		c.input.rightFrames = maxInt(c.input.rightFrames, frames)
	}
	if up != 0 {
		c.input.up = clampMove(up)
		c.input.upFrames = maxInt(c.input.upFrames, frames)
	}
}

// Jump holds the up axis for a short burst.
func (c *Client) Jump() {
	c.Move(0, 0, 127, defaultButtonFrames)
}

// Attack holds the fire button for the given number of client frames.
func (c *Client) Attack(frames int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if frames < 1 {
		frames = defaultButtonFrames
	}
	c.input.attackFrames = maxInt(c.input.attackFrames, frames)
}

// SelectWeapon requests a weapon switch with the next frame.
func (c *Client) SelectWeapon(weapon int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input.pendingWeapon = int32(weapon & 0xff)
}

// SetViewAngles aims at the absolute pitch/yaw/roll (degrees) for the
// given number of client frames.
func (c *Client) SetViewAngles(pitch, yaw, roll float64, frames int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setViewAnglesLocked(pitch, yaw, roll, frames)
}

// Turn applies relative angle deltas in degrees.
func (c *Client) Turn(yawDelta, pitchDelta float64, frames int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	angles := c.currentViewAnglesLocked()
	c.setViewAnglesLocked(angles[0]+pitchDelta, angles[1]+yawDelta, angles[2], frames)
}

func (c *Client) setViewAnglesLocked(pitch, yaw, roll float64, frames int) {
	if frames < 1 {
		frames = defaultViewFrames
	}
	c.input.aimAngles = [3]float64{
		clampPitch(pitch),
		normalizeYaw(yaw),
		normalizeRoll(roll),
	}
	c.input.aimFrames = maxInt(c.input.aimFrames, frames)
}

func (c *Client) currentViewAnglesLocked() [3]float64 {
	if c.input.aimFrames > 0 {
		return c.input.aimAngles
	}
	if c.snapshot != nil {
		return c.snapshot.PlayerState.ViewAngles()
	}
	return [3]float64{
		shortToAngle(c.lastUsercmd.Angles[0]),
		shortToAngle(c.lastUsercmd.Angles[1]),
		shortToAngle(c.lastUsercmd.Angles[2]),
	}
}

// nextUsercmd builds the movement command for the current frame from the
// held intents and consumes one frame of each hold.
func (c *Client) nextUsercmd() usercmd {
	var serverTime uint32
	switch {
	case c.serverTime != 0:
		serverTime = c.serverTime + 50
	case c.lastUsercmd.ServerTime != 0:
		serverTime = c.lastUsercmd.ServerTime + 50
	default:
		serverTime = uint32(time.Now().UnixMilli())
	}

	var angles [3]int32
	if c.input.aimFrames > 0 {
		for i, a := range c.input.aimAngles {
			angles[i] = angleToShort(a)
		}
	} else if c.snapshot != nil {
		for i, a := range c.snapshot.PlayerState.ViewAngles() {
			angles[i] = angleToShort(a)
		}
	} else {
		angles = c.lastUsercmd.Angles
	}

	cmd := usercmd{
		ServerTime: serverTime,
		Angles:     angles,
		Weapon:     c.lastUsercmd.Weapon,
	}
	if c.input.forwardFrames > 0 {
		cmd.Forward = c.input.forward & 0xff
	}
	if c.input.rightFrames > 0 {
		cmd.Right = c.input.right & 0xff
	}
	if c.input.upFrames > 0 {
		cmd.Up = c.input.up & 0xff
	}
	if c.input.attackFrames > 0 {
		cmd.Buttons = ButtonAttack
	}
	if c.input.pendingWeapon != 0 {
		cmd.Weapon = c.input.pendingWeapon
	}

	c.consumeHeldInputs()
	return cmd
}

func (c *Client) consumeHeldInputs() {
	in := &c.input

	if in.forwardFrames > 0 {
		in.forwardFrames--
	}
	if in.forwardFrames == 0 {
		in.forward = 0
	}

	if in.rightFrames > 0 {
		in.rightFrames--
	}
	if in.rightFrames == 0 {
		in.right = 0
	}

	if in.upFrames > 0 {
		in.upFrames--
	}
	if in.upFrames == 0 {
		in.up = 0
	}

	if in.attackFrames > 0 {
		in.attackFrames--
	}

	if in.aimFrames > 0 {
		in.aimFrames--
	}

	// weapon switch is one shot, the server keeps the weapon state
	in.pendingWeapon = 0
}

func clampMove(v int) int32 {
	if v > 127 {
		return 127
	}
	if v < -127 {
		return -127
	}
	return int32(v)
}

func clampPitch(v float64) float64 {
	return math.Max(-89, math.Min(89, v))
}

func normalizeYaw(v float64) float64 {
	return math.Mod(math.Mod(v, 360)+360, 360)
}

func normalizeRoll(v float64) float64 {
	v = normalizeYaw(v)
	if v > 180 {
		v -= 360
	}
	return v
}

func angleToShort(angle float64) int32 {
	return int32(angle*65536/360) & 0xffff
}

func shortToAngle(v int32) float64 {
	return float64(v&0xffff) * 360 / 65536
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
