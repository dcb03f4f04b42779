package protocol

const (
	// DefaultVersion is the validated protocol version.
	// Project references disagree between 68 and 71; 71 is the one that
	// has been verified against live servers, so it is the default.
	// The version is configurable on the client for this reason.
	DefaultVersion = 71

	// GameName must be sent as the trailing token of the getchallenge
	// command. Servers reject the handshake with a game mismatch message
	// when it is missing or wrong.
	GameName = "Quake3Arena"

	// ConnectionlessSequence is the sequence marker of an out-of-band
	// packet: four 0xFF bytes followed by plain ASCII command text.
	ConnectionlessSequence = 0xFFFFFFFF

	// FragmentBit is set in the packet sequence of a fragmented packet.
	FragmentBit = 1 << 31
	// SequenceMask strips the fragment bit from a raw sequence.
	SequenceMask = FragmentBit - 1

	MaxPacketLen = 1400
	// FragmentSize is the payload size of every non-terminal fragment.
	// A fragment shorter than this terminates the fragment run.
	FragmentSize = MaxPacketLen - 100

	// MaxMessageLen bounds a reassembled and decompressed server message.
	MaxMessageLen = 16384

	// PacketBackup is the number of snapshots kept for delta references.
	PacketBackup = 32
	PacketMask   = PacketBackup - 1

	MaxReliableCommands = 64
	MaxConfigStrings    = 1024
	MaxClients          = 64
	MaxStringChars      = 1024
)

const (
	GentityBits  = 10
	MaxGentities = 1 << GentityBits

	// EntitySentinel terminates every entity list on the wire.
	// It is never a real entity number.
	EntitySentinel = MaxGentities - 1

	// FloatIntBits is the width of the biased integer encoding used for
	// float fields whose value fits a small integer.
	FloatIntBits = 13
	FloatIntBias = 1 << (FloatIntBits - 1)
)
