// Package nnue implements incremental NNUE (Efficiently Updatable Neural
// Network) evaluation: a flat 768-feature (12 pieces × 64 squares)
// perspective-based feature transformer followed by a single output head.
package nnue

import "github.com/kestrelchess/kestrel/internal/board"

// Network architecture constants.
const (
	NumFeatures = 768 // 12 pieces * 64 squares
	Hidden      = 256

	QA        = 255     // scrlu clamp ceiling
	EvalScale = 400      // final centipawn scale
	QAB       = QA * 64  // output-stage divisor
)

// scrlu is the squared-clamped-ReLU activation: clamp(x, 0, QA)^2.
func scrlu(x int16) int64 {
	v := int64(x)
	if v < 0 {
		v = 0
	}
	if v > QA {
		v = QA
	}
	return v * v
}

// Evaluator owns the network weights and the per-search accumulator stack.
type Evaluator struct {
	net   *Network
	stack *AccumulatorStack
}

// NewEvaluator creates an evaluator. If weightsFile is empty, small
// deterministic pseudo-random weights are used (useful for tests and for
// running without a trained network present).
func NewEvaluator(weightsFile string) (*Evaluator, error) {
	net := NewNetwork()

	if weightsFile != "" {
		if err := net.LoadWeights(weightsFile); err != nil {
			return nil, err
		}
	} else {
		net.InitRandom(12345)
	}

	return NewEvaluatorFromNetwork(net), nil
}

// NewEvaluatorFromNetwork creates an evaluator with its own accumulator
// stack over an already-loaded network. Multiple search threads each get
// their own Evaluator this way while sharing one read-only Network, so the
// weights are loaded once regardless of thread count.
func NewEvaluatorFromNetwork(net *Network) *Evaluator {
	return &Evaluator{
		net:   net,
		stack: NewAccumulatorStack(),
	}
}

// Network returns the evaluator's underlying weights, so sibling search
// threads can build their own Evaluator over the same loaded network.
func (e *Evaluator) Network() *Network {
	return e.net
}

// Evaluate returns the NNUE evaluation in centipawns from the side to
// move's perspective.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	acc := e.stack.Current()
	if !acc.Computed {
		acc.ComputeFull(pos, e.net)
	}
	return e.net.Forward(acc, pos.SideToMove)
}

// Push saves the current accumulator so a following MakeMove's feature
// changes can be discarded by the matching Pop on undo.
func (e *Evaluator) Push() {
	e.stack.Push()
}

// Pop discards the top accumulator, restoring the one below it. Call this
// after UnmakeMove, in the same order Push was called before MakeMove.
func (e *Evaluator) Pop() {
	e.stack.Pop()
}

// Refresh forces a full recomputation of the current accumulator from the
// position, bypassing incremental updates. Used when starting a new search
// root, since the stack only tracks deltas from wherever it was last full.
func (e *Evaluator) Refresh(pos *board.Position) {
	e.stack.Current().ComputeFull(pos, e.net)
}

// Reset clears the accumulator stack entirely (new game / new root).
func (e *Evaluator) Reset() {
	e.stack.Reset()
}

// ApplyMove updates the current accumulator in place for a move that has
// already been applied to pos via Position.MakeMove. movingBefore is the
// piece that occupied m.From() prior to the move (its type matters for
// promotions, where the square's piece type changes); captured is the piece
// removed by the move, or board.NoPiece if the move was not a capture. Both
// must be captured by the caller before MakeMove mutates the board.
func (e *Evaluator) ApplyMove(pos *board.Position, m board.Move, movingBefore, captured board.Piece) {
	acc := e.stack.Current()
	if !acc.Computed {
		acc.ComputeFull(pos, e.net)
		return
	}

	from, to := m.From(), m.To()
	us := movingBefore.Color()

	acc.RemovePiece(movingBefore, from, e.net)
	if m.IsPromotion() {
		acc.AddPiece(board.NewPiece(m.Promotion(), us), to, e.net)
	} else {
		acc.AddPiece(movingBefore, to, e.net)
	}

	if captured != board.NoPiece {
		capSq := to
		if m.IsEnPassant() {
			capSq = enPassantCaptureSquare(us, to)
		}
		acc.RemovePiece(captured, capSq, e.net)
	}

	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(us, m.Flag() == board.FlagCastleK)
		rook := board.NewPiece(board.Rook, us)
		acc.RemovePiece(rook, rookFrom, e.net)
		acc.AddPiece(rook, rookTo, e.net)
	}
}

func enPassantCaptureSquare(mover board.Color, to board.Square) board.Square {
	if mover == board.White {
		return to - 8
	}
	return to + 8
}

func castleRookSquares(c board.Color, kingSide bool) (from, to board.Square) {
	if c == board.White {
		if kingSide {
			return board.H1, board.F1
		}
		return board.A1, board.D1
	}
	if kingSide {
		return board.H8, board.F8
	}
	return board.A8, board.D8
}
