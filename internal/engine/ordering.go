package engine

import "github.com/kestrelchess/kestrel/internal/board"

// Move ordering bonuses, applied once per node in scoreMove.
const (
	ttMoveScore    = 1 << 30 // always searched first
	killerScore    = 5000
	castlingScore  = 1000
	counterMoveBonus = 300
)

// MoveOrderer holds the search's ordering heuristics: killer moves, the
// from/to history table, and the counter-move table. These are owned
// per-thread, not shared, since a shared table under concurrent search
// would need its own synchronization the spec doesn't ask for.
type MoveOrderer struct {
	killers      [MaxPly][2]board.Move
	history      [2][64 * 64]int
	counterMoves [2][64 * 64]board.Move
}

// NewMoveOrderer creates an empty move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and counter-moves and halves history scores for a
// new search (full reset would throw away useful signal across searches in
// the same game; halving ages it out gradually instead).
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for side := range mo.history {
		for i := range mo.history[side] {
			mo.history[side][i] /= 2
		}
	}
	for side := range mo.counterMoves {
		for i := range mo.counterMoves[side] {
			mo.counterMoves[side][i] = board.NoMove
		}
	}
}

func historyIndex(from, to board.Square) int {
	return int(from)*64 + int(to)
}

// ScoreMoves assigns an ordering key to every move in the list, per the
// formula: TT move first, then killer/SEE/promotion/castling/counter-move/
// history bonuses summed for everything else.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove, prevMove board.Move) []int {
	scores := make([]int, moves.Len())
	us := pos.SideToMove
	counterMove := mo.GetCounterMove(us, prevMove)

	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove, counterMove)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove, counterMove board.Move) int {
	if m == ttMove {
		return ttMoveScore
	}

	score := 0

	if m == mo.killers[ply][0] || m == mo.killers[ply][1] {
		score += killerScore
	}

	if m.IsCapture(pos) || m.IsPromotion() {
		see := SEE(pos, m)
		if see < 0 {
			see = 0
		}
		score += see * 5
	}

	if m.IsPromotion() {
		score += 10 * pieceValues[m.Promotion()]
	}

	if m.IsCastling() {
		score += castlingScore
	}

	if m == counterMove {
		score += counterMoveBonus
	}

	score += mo.GetHistoryScore(pos.SideToMove, m)

	return score
}

// PickMove selects the best-scoring remaining move and swaps it into index,
// so the caller only sorts as deep into the list as the search needs.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records a quiet beta-cutoff move as a killer at ply,
// shifting the previous first killer into the second slot.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory adjusts the history score for a quiet move that either
// caused (isGood) or merely preceded (!isGood) a beta cutoff at this depth.
func (mo *MoveOrderer) UpdateHistory(us board.Color, m board.Move, depth int, isGood bool) {
	idx := historyIndex(m.From(), m.To())
	bonus := depth * depth
	if isGood {
		mo.history[us][idx] += bonus
		if mo.history[us][idx] > 400000 {
			for i := range mo.history[us] {
				mo.history[us][i] /= 2
			}
		}
	} else {
		mo.history[us][idx] -= bonus
		if mo.history[us][idx] < -400000 {
			mo.history[us][idx] = -400000
		}
	}
}

// GetHistoryScore returns the history score for a move by the given side.
func (mo *MoveOrderer) GetHistoryScore(us board.Color, m board.Move) int {
	return mo.history[us][historyIndex(m.From(), m.To())]
}

// UpdateCounterMove records goodMove as the reply to prevMove.
func (mo *MoveOrderer) UpdateCounterMove(us board.Color, prevMove, goodMove board.Move) {
	if prevMove == board.NoMove {
		return
	}
	mo.counterMoves[us][historyIndex(prevMove.From(), prevMove.To())] = goodMove
}

// GetCounterMove returns the recorded reply to prevMove, if any.
func (mo *MoveOrderer) GetCounterMove(us board.Color, prevMove board.Move) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}
	return mo.counterMoves[us][historyIndex(prevMove.From(), prevMove.To())]
}
