package engine

import "github.com/kestrelchess/kestrel/internal/board"

// Evaluator wraps the NNUE network (when loaded) with a material-only
// fallback, so the engine still produces a legal, if weak, static
// evaluation with no weights file on disk.
type Evaluator interface {
	Evaluate(pos *board.Position) int
	Push()
	Pop()
	Refresh(pos *board.Position)
	Reset()
	ApplyMove(pos *board.Position, m board.Move, movingBefore, captured board.Piece)
}

// materialEvaluator sums piece values from the side to move's perspective.
// It has no incremental state, so Push/Pop/ApplyMove are no-ops.
type materialEvaluator struct{}

func (materialEvaluator) Evaluate(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		score = -score
	}
	return score
}

func (materialEvaluator) Push()                      {}
func (materialEvaluator) Pop()                       {}
func (materialEvaluator) Refresh(pos *board.Position) {}
func (materialEvaluator) Reset()                     {}
func (materialEvaluator) ApplyMove(pos *board.Position, m board.Move, movingBefore, captured board.Piece) {
}

// Evaluate is a stateless static evaluation, used for one-off calls (UCI
// "d" / debug output) where there is no accumulator to maintain.
func Evaluate(pos *board.Position) int {
	return materialEvaluator{}.Evaluate(pos)
}
