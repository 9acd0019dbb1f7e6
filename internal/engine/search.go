package engine

import (
	"math"
	"sync/atomic"

	"github.com/kestrelchess/kestrel/internal/board"
)

// Search constants.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// quiescenceMaxPly bounds the quiescence recursion to avoid pathological
// check-evasion chains from running away.
const quiescenceMaxPly = 8

// PVTable stores the principal variation produced by the last search, one
// line per ply, triangular-array style.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher owns everything a single search thread needs: its own position
// (an independent copy so Lazy SMP threads never share mutable board
// state), its own NNUE accumulator stack, and its own ordering heuristics.
// Only the transposition table, passed in, is shared across threads.
type Searcher struct {
	id  int
	pos *board.Position
	tt  *TranspositionTable
	eval Evaluator

	orderer *MoveOrderer
	pv      PVTable

	nodes    uint64
	selDepth int
	stopFlag *atomic.Bool

	prevMove [MaxPly]board.Move
}

// NewSearcher creates a search thread sharing tt and stopFlag with its
// siblings. eval must not be shared across searchers (its accumulator
// stack is mutated in place during search).
func NewSearcher(id int, tt *TranspositionTable, eval Evaluator, stopFlag *atomic.Bool) *Searcher {
	return &Searcher{
		id:       id,
		tt:       tt,
		eval:     eval,
		orderer:  NewMoveOrderer(),
		stopFlag: stopFlag,
	}
}

// Reset prepares the searcher for a new root position.
func (s *Searcher) Reset(pos *board.Position) {
	s.pos = pos.Copy()
	s.nodes = 0
	s.selDepth = 0
	s.orderer.Clear()
	s.eval.Reset()
	s.eval.Refresh(s.pos)
}

// Nodes returns the number of nodes searched by this thread so far.
func (s *Searcher) Nodes() uint64 { return s.nodes }

// GetPV returns the principal variation line from the root.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

// SelDepth returns the selective (PV) depth reached by the last iteration.
func (s *Searcher) SelDepth() int { return s.selDepth }

func (s *Searcher) stopped() bool {
	return s.nodes&2047 == 0 && s.stopFlag.Load()
}

// SearchDepth runs one root iteration at depth within [alpha, beta],
// returning the best move and its score.
func (s *Searcher) SearchDepth(depth, alpha, beta int) (board.Move, int) {
	score := s.negamax(depth, 0, alpha, beta)

	var best board.Move
	if s.pv.length[0] > 0 {
		best = s.pv.moves[0][0]
	}
	return best, score
}

// makeMove applies m to the position and its NNUE accumulator together,
// returning the piece data ApplyMove/UnmakeMove need.
func (s *Searcher) makeMove(m board.Move) (moving, captured board.Piece) {
	moving = s.pos.PieceAt(m.From())
	if m.IsEnPassant() {
		captured = board.NewPiece(board.Pawn, s.pos.SideToMove.Other())
	} else {
		captured = s.pos.PieceAt(m.To())
	}
	s.eval.Push()
	s.pos.MakeMove(m)
	s.eval.ApplyMove(s.pos, m, moving, captured)
	return
}

func (s *Searcher) unmakeMove(m board.Move) {
	s.pos.UnmakeMove(m)
	s.eval.Pop()
}

// negamax returns a score in centipawns from the side-to-move's
// perspective, bounded by [alpha, beta], implementing the search's single
// node algorithm: stop check, TT probe, terminal detection, check
// extension, quiescence handoff, null-move pruning, reverse futility,
// internal iterative reduction, move ordering, late-move reductions, and
// the final TT store.
func (s *Searcher) negamax(depth, ply int, alpha, beta int) int {
	s.pv.length[ply] = ply
	if ply > s.selDepth {
		s.selDepth = ply
	}

	// 1. Hard-stop check.
	if s.stopped() {
		return 0
	}
	s.nodes++

	isPV := beta-alpha > 1

	if ply > 0 && s.pos.IsDraw() {
		return 0
	}
	if ply >= MaxPly {
		return s.eval.Evaluate(s.pos)
	}

	// 2. TT probe.
	var ttMove board.Move
	ttEntry, found := s.tt.Probe(s.pos.Hash)
	var ttEval int
	haveTTEval := false
	if found {
		ttMove = ttEntry.BestMove
		ttEval = int(ttEntry.Eval)
		haveTTEval = true
		if !isPV && int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	inCheck := s.pos.InCheck()

	// 4. Check extension.
	if inCheck {
		depth++
	}

	// 5. Quiescence handoff.
	if depth <= 0 {
		return s.quiescence(ply, 0, alpha, beta)
	}

	var staticEval int
	if haveTTEval {
		staticEval = ttEval
	} else {
		staticEval = s.eval.Evaluate(s.pos)
	}

	// 6. Null-move pruning.
	if !isPV && !inCheck && depth > 6 && s.pos.HasNonPawnMaterial() && ply > 0 {
		undo := s.pos.MakeNullMove()
		s.eval.Push()
		score := -s.negamax(depth-4, ply+1, -beta, -beta+1)
		s.eval.Pop()
		s.pos.UnmakeNullMove(undo)
		if s.stopFlag.Load() {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	// 7. Reverse futility pruning.
	if !isPV && !inCheck && depth <= 8 && staticEval >= beta+80*depth {
		return beta
	}

	// 8. Internal iterative reduction.
	if depth > 4 && ttMove == board.NoMove {
		depth--
	}

	// 3. Move generation and arbitration (terminal detection).
	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	// 9. Move ordering.
	var prevMove board.Move
	if ply > 0 {
		prevMove = s.prevMove[ply-1]
	}
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	movesSearched := 0

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		moving, captured := s.makeMove(move)
		_ = moving
		s.prevMove[ply] = move
		movesSearched++

		var score int
		if i >= 3 && depth >= 3 {
			r := lmrReduction(depth, i)
			reducedDepth := depth - 1 - r
			if reducedDepth < 1 {
				reducedDepth = 1
			}
			score = -s.negamax(reducedDepth, ply+1, -alpha-1, -alpha)
			if score > alpha {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha)
			}
		} else {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		}

		s.unmakeMove(move)
		_ = captured

		if s.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), staticEval, TTLowerBound, move)

			if !move.IsCapture(s.pos) && !move.IsPromotion() {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(s.pos.SideToMove, move, depth, true)
				if ply > 0 {
					s.orderer.UpdateCounterMove(s.pos.SideToMove, prevMove, move)
				}
			}
			return beta
		}
	}

	// 11. Store to TT.
	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), staticEval, flag, bestMove)

	return bestScore
}

// lmrReduction implements the spec's reduction formula, floored at zero.
func lmrReduction(depth, moveIndex int) int {
	r := 0.75 + math.Log(float64(depth))*math.Log(float64(moveIndex))/2
	if r < 0 {
		return 0
	}
	return int(r)
}

// quiescence searches tactical moves only, to damp the horizon effect at
// the leaves of the main search.
func (s *Searcher) quiescence(ply, qply int, alpha, beta int) int {
	if ply > s.selDepth {
		s.selDepth = ply
	}
	if s.stopped() {
		return 0
	}
	s.nodes++

	if ply >= MaxPly {
		return s.eval.Evaluate(s.pos)
	}

	standPat := s.eval.Evaluate(s.pos)
	if qply >= quiescenceMaxPly {
		return standPat
	}

	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	moves := s.pos.GenerateCaptures()
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		s.makeMove(move)
		score := -s.quiescence(ply+1, qply+1, -beta, -alpha)
		s.unmakeMove(move)

		if s.stopFlag.Load() {
			return 0
		}

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}
