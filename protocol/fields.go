package protocol

// Field describes one entry of a delta-compressed state record.
// Bits > 0 is an unsigned integer of that width, Bits < 0 a
// sign-extended integer of width -Bits, Bits == 0 a float
// (either a raw 32 bit IEEE value or the biased FloatIntBits form).
type Field struct {
	Name string
	Bits int
}

// PlayerStateFields is the wire order of the player state record.
// The order is fixed by the protocol; decode loops index this table
// by position and never look fields up by name at runtime.
var PlayerStateFields = [...]Field{
	{"commandTime", 32},
	{"origin[0]", 0},
	{"origin[1]", 0},
	{"bobCycle", 8},
	{"velocity[0]", 0},
	{"velocity[1]", 0},
	{"viewangles[1]", 0},
	{"viewangles[0]", 0},
	{"weaponTime", -16},
	{"origin[2]", 0},
	{"velocity[2]", 0},
	{"legsTimer", 8},
	{"pm_time", -16},
	{"eventSequence", 16},
	{"torsoAnim", 8},
	{"movementDir", 4},
	{"events[0]", 8},
	{"legsAnim", 8},
	{"events[1]", 8},
	{"pm_flags", 16},
	{"groundEntityNum", GentityBits},
	{"weaponstate", 4},
	{"eFlags", 16},
	{"externalEvent", 10},
	{"gravity", 16},
	{"speed", 16},
	{"delta_angles[1]", 16},
	{"externalEventParm", 8},
	{"viewheight", -8},
	{"damageEvent", 8},
	{"damageYaw", 8},
	{"damagePitch", 8},
	{"damageCount", 8},
	{"generic1", 8},
	{"pm_type", 8},
	{"delta_angles[0]", 16},
	{"delta_angles[2]", 16},
	{"torsoTimer", 12},
	{"eventParms[0]", 8},
	{"eventParms[1]", 8},
	{"clientNum", 8},
	{"weapon", 5},
	{"viewangles[2]", 0},
	{"grapplePoint[0]", 0},
	{"grapplePoint[1]", 0},
	{"grapplePoint[2]", 0},
	{"jumppad_ent", 10},
	{"loopSound", 16},
}

// EntityStateFields is the wire order of the entity state record.
var EntityStateFields = [...]Field{
	{"pos.trTime", 32},
	{"pos.trBase[0]", 0},
	{"pos.trBase[1]", 0},
	{"pos.trDelta[0]", 0},
	{"pos.trDelta[1]", 0},
	{"pos.trBase[2]", 0},
	{"apos.trBase[1]", 0},
	{"pos.trDelta[2]", 0},
	{"apos.trBase[0]", 0},
	{"event", 10},
	{"angles2[1]", 0},
	{"eType", 8},
	{"torsoAnim", 8},
	{"eventParm", 8},
	{"legsAnim", 8},
	{"groundEntityNum", GentityBits},
	{"pos.trType", 8},
	{"eFlags", 19},
	{"otherEntityNum", GentityBits},
	{"weapon", 8},
	{"clientNum", 8},
	{"angles[1]", 0},
	{"pos.trDuration", 32},
	{"apos.trType", 8},
	{"origin[0]", 0},
	{"origin[1]", 0},
	{"origin[2]", 0},
	{"solid", 24},
	{"powerups", 16},
	{"modelindex", 8},
	{"otherEntityNum2", GentityBits},
	{"loopSound", 8},
	{"generic1", 8},
	{"origin2[2]", 0},
	{"origin2[0]", 0},
	{"origin2[1]", 0},
	{"modelindex2", 8},
	{"angles[0]", 0},
	{"time", 32},
	{"apos.trTime", 32},
	{"apos.trDuration", 32},
	{"apos.trBase[2]", 0},
	{"apos.trDelta[0]", 0},
	{"apos.trDelta[1]", 0},
	{"apos.trDelta[2]", 0},
	{"time2", 32},
	{"angles[2]", 0},
	{"angles2[0]", 0},
	{"angles2[2]", 0},
	{"constantLight", 32},
	{"frame", 16},
}

// EntityTypes seen in the eType field.
const (
	ETGeneral         = 0
	ETPlayer          = 1
	ETItem            = 2
	ETMissile         = 3
	ETMover           = 4
	ETBeam            = 5
	ETPortal          = 6
	ETSpeaker         = 7
	ETPushTrigger     = 8
	ETTeleportTrigger = 9
	ETInvisible       = 10
	ETGrapple         = 11
	ETTeam            = 12
	ETEvents          = 13
)
