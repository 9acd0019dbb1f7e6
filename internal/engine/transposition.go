package engine

import (
	"sync/atomic"

	"github.com/kestrelchess/kestrel/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry is the unpacked view of a transposition table slot.
type TTEntry struct {
	BestMove board.Move
	Score    int16
	Eval     int16
	Depth    int8
	Flag     TTFlag
}

// ttSlot is one atomic cell: a 64-bit key and a 64-bit packed payload,
// stored and loaded independently so a reader never observes a torn value
// (it may observe a stale pair, or a payload that doesn't match the key —
// rejected by the zobrist comparison — but never half of one write and half
// of another).
//
// Payload layout (64 bits): score:16 | move:16 | eval:16 | depth:8 | flag:2 | generation:6.
type ttSlot struct {
	key     atomic.Uint64
	payload atomic.Uint64
}

func packPayload(e TTEntry, generation uint8) uint64 {
	return uint64(uint16(e.Score)) |
		uint64(uint16(e.BestMove))<<16 |
		uint64(uint16(e.Eval))<<32 |
		uint64(uint8(e.Depth))<<48 |
		uint64(e.Flag&0x3)<<56 |
		uint64(generation&0x3F)<<58
}

func unpackPayload(p uint64) (TTEntry, uint8) {
	e := TTEntry{
		Score: int16(uint16(p)),
		Eval:  int16(uint16(p >> 32)),
		Depth: int8(uint8(p >> 48)),
		Flag:  TTFlag((p >> 56) & 0x3),
	}
	e.BestMove = board.Move(uint16(p >> 16))
	generation := uint8((p >> 58) & 0x3F)
	return e, generation
}

// TranspositionTable is a lock-free hash table of search results, shared by
// every search thread. N is always a power of two so index = zobrist&(N-1).
type TranspositionTable struct {
	slots      []ttSlot
	mask       uint64
	generation atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a transposition table sized to fit sizeMB
// megabytes, rounded down to a power of two entries.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	const slotSize = 16 // two uint64 words
	numEntries := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / slotSize)
	if numEntries == 0 {
		numEntries = 1
	}

	return &TranspositionTable{
		slots: make([]ttSlot, numEntries),
		mask:  numEntries - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position. Returns the entry and true if the slot's key
// matches this zobrist hash.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes.Add(1)
	idx := hash & tt.mask
	slot := &tt.slots[idx]

	key := slot.key.Load()
	payload := slot.payload.Load()
	if key != hash {
		return TTEntry{}, false
	}

	entry, _ := unpackPayload(payload)
	tt.hits.Add(1)
	return entry, true
}

// Store saves a position's search result, replacing the slot if it is
// empty, holds the same key, or has a lower replacement score
// R = depth*4 + exact_bonus*8 - generation.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, eval int, flag TTFlag, bestMove board.Move) {
	idx := hash & tt.mask
	slot := &tt.slots[idx]
	generation := uint8(tt.generation.Load())

	newEntry := TTEntry{
		BestMove: bestMove,
		Score:    int16(score),
		Eval:     int16(eval),
		Depth:    int8(depth),
		Flag:     flag,
	}
	newR := replacementScore(depth, flag, generation)

	existingKey := slot.key.Load()
	if existingKey != hash {
		existingPayload := slot.payload.Load()
		if existingKey != 0 {
			existingEntry, existingGen := unpackPayload(existingPayload)
			if replacementScore(int(existingEntry.Depth), existingEntry.Flag, existingGen) > newR {
				return
			}
		}
	}

	// bestMove may be NoMove on a bound-only update (e.g. from a fail-low
	// node); keep the previous move in that case so ordering still has it.
	if bestMove == board.NoMove && existingKey == hash {
		if existing, _ := unpackPayload(slot.payload.Load()); existing.BestMove != board.NoMove {
			newEntry.BestMove = existing.BestMove
		}
	}

	slot.key.Store(hash)
	slot.payload.Store(packPayload(newEntry, generation))
}

func replacementScore(depth int, flag TTFlag, generation uint8) int {
	exactBonus := 0
	if flag == TTExact {
		exactBonus = 1
	}
	return depth*4 + exactBonus*8 - int(generation)
}

// NewSearch advances the generation counter, biasing replacement toward
// entries written during the current search.
func (tt *TranspositionTable) NewSearch() {
	tt.generation.Add(1)
}

// Clear wipes every slot and resets statistics.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		tt.slots[i].key.Store(0)
		tt.slots[i].payload.Store(0)
	}
	tt.generation.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille of the table that looks occupied, sampled
// from the first 1000 slots.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > uint64(len(tt.slots)) {
		sampleSize = len(tt.slots)
	}
	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.slots[i].key.Load() != 0 {
			used++
		}
	}
	if sampleSize == 0 {
		return 0
	}
	return used * 1000 / sampleSize
}

// Size returns the number of slots in the table.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.slots))
}

// AdjustScoreFromTT converts a mate score stored relative to the TT node
// back to one relative to the root, by ply distance.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT converts a root-relative mate score to one relative to
// the TT node, for storage.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
