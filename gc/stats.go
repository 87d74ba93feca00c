package gc

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Stats is a snapshot of heap activity.
type Stats struct {
	Collections     uint64        `cbor:"collections" json:"collections"`
	FastCollections uint64        `cbor:"fast_collections" json:"fast_collections"`
	FullCollections uint64        `cbor:"full_collections" json:"full_collections"`
	TotalAllocated  uint64        `cbor:"total_allocated" json:"total_allocated"`
	TotalFreed      uint64        `cbor:"total_freed" json:"total_freed"`
	Allocated       int           `cbor:"allocated" json:"allocated"`
	Threshold       int           `cbor:"threshold" json:"threshold"`
	AllocateMax     int           `cbor:"allocate_max" json:"allocate_max"`
	YoungObjects    int           `cbor:"young_objects" json:"young_objects"`
	OldObjects      int           `cbor:"old_objects" json:"old_objects"`
	Roots           int           `cbor:"roots" json:"roots"`
	WeakRefs        int           `cbor:"weak_refs" json:"weak_refs"`
	LastType        string        `cbor:"last_type" json:"last_type"`
	LastFreed       int           `cbor:"last_freed" json:"last_freed"`
	LastPause       time.Duration `cbor:"last_pause_ns" json:"last_pause_ns"`
}

// Objects returns the number of objects on the heap.
func (s Stats) Objects() int {
	return s.YoungObjects + s.OldObjects
}

// Stats returns a snapshot of the heap's counters.
func (h *Heap) Stats() Stats {
	s := h.stats
	s.Allocated = h.allocated
	s.Threshold = h.threshold
	s.AllocateMax = h.allocateMax
	s.YoungObjects = len(h.young)
	s.OldObjects = len(h.old)
	s.Roots = h.roots.len()
	s.WeakRefs = h.weakRefs.len()
	if s.LastType == "" {
		s.LastType = GCNone.String()
	}
	return s
}

var statsEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("gc: failed to create CBOR enc mode: %v", err))
	}
	statsEncMode = em
}

// EncodeStats serializes s to canonical CBOR.
func EncodeStats(s Stats) ([]byte, error) {
	return statsEncMode.Marshal(s)
}

// DecodeStats deserializes a Stats from CBOR.
func DecodeStats(data []byte) (Stats, error) {
	var s Stats
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Stats{}, fmt.Errorf("gc: unmarshal stats: %w", err)
	}
	return s, nil
}
