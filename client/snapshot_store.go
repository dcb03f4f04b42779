package client

import (
	"fmt"

	"github.com/jxsl13/q3api/protocol"
)

// snapshotStore is the fixed circular history of recent snapshots used
// to resolve delta references. Slot i holds the snapshot whose sequence
// satisfies sequence & PacketMask == i; inserting sequence S overwrites
// whatever S-32 left there.
type snapshotStore struct {
	slots [protocol.PacketBackup]*Snapshot
}

func (s *snapshotStore) put(snap *Snapshot) {
	s.slots[snap.Sequence&protocol.PacketMask] = snap
}

// get resolves a delta reference. The lookup is valid only if the slot
// still holds exactly the requested sequence; anything else means the
// reference was overwritten and the delta base is gone.
func (s *snapshotStore) get(sequence uint32) (*Snapshot, error) {
	snap := s.slots[sequence&protocol.PacketMask]
	if snap == nil || snap.Sequence != sequence {
		return nil, fmt.Errorf("%w: sequence %d", ErrDeltaReference, sequence)
	}
	return snap, nil
}

func (s *snapshotStore) reset() {
	for i := range s.slots {
		s.slots[i] = nil
	}
}
