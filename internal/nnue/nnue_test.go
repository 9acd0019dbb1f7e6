package nnue

import (
	"testing"

	"github.com/kestrelchess/kestrel/internal/board"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator("")
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	return ev
}

// applyAndCompare advances ev/pos by m and checks the incrementally updated
// accumulator matches a from-scratch recomputation bit for bit.
func applyAndCompare(t *testing.T, ev *Evaluator, pos *board.Position, m board.Move) {
	t.Helper()

	moving := pos.PieceAt(m.From())
	var captured board.Piece
	if m.IsEnPassant() {
		captured = board.NewPiece(board.Pawn, pos.SideToMove.Other())
	} else {
		captured = pos.PieceAt(m.To())
	}

	ev.Push()
	pos.MakeMove(m)
	ev.ApplyMove(pos, m, moving, captured)

	incremental := *ev.stack.Current()

	var fresh Accumulator
	fresh.ComputeFull(pos, ev.net)

	if incremental.White != fresh.White || incremental.Black != fresh.Black {
		t.Fatalf("incremental accumulator diverged from full recompute after move %s", m)
	}
}

func TestIncrementalAccumulatorMatchesFullRecomputeAcrossOpeningMoves(t *testing.T) {
	ev := newTestEvaluator(t)
	pos := board.NewPosition()
	ev.Refresh(pos)

	moves := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6"}
	for _, s := range moves {
		m, err := board.ParseMove(s, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		applyAndCompare(t, ev, pos, m)
	}
}

func TestIncrementalAccumulatorMatchesFullRecomputeAcrossCaptureAndCastle(t *testing.T) {
	ev := newTestEvaluator(t)
	pos, err := board.ParseFEN("r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/2N2N2/PPPP1PPP/R1BQK2R w KQkq - 4 5")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	ev.Refresh(pos)

	m, err := board.ParseMove("e1g1", pos) // kingside castle
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	applyAndCompare(t, ev, pos, m)

	m, err = board.ParseMove("c4f7", pos) // bishop takes f7
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	applyAndCompare(t, ev, pos, m)
}

func TestPushPopRestoresPriorAccumulator(t *testing.T) {
	ev := newTestEvaluator(t)
	pos := board.NewPosition()
	ev.Refresh(pos)

	before := *ev.stack.Current()

	m, err := board.ParseMove("d2d4", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	moving := pos.PieceAt(m.From())

	ev.Push()
	pos.MakeMove(m)
	ev.ApplyMove(pos, m, moving, board.NoPiece)
	pos.UnmakeMove(m)
	ev.Pop()

	after := *ev.stack.Current()
	if before.White != after.White || before.Black != after.Black {
		t.Fatal("Push/Pop did not restore the pre-move accumulator")
	}
}

func TestEvaluateIsSideToMoveSymmetricAtStartingPosition(t *testing.T) {
	ev := newTestEvaluator(t)
	pos := board.NewPosition()
	ev.Refresh(pos)

	// The starting position is symmetric under color flip, so White's and
	// Black's accumulators are identical whatever the feature weights; with
	// InitRandom's output halves tied as negations (bias 0) the us and them
	// terms cancel and a fresh evaluation for White reads zero.
	score := ev.Evaluate(pos)
	if score != 0 {
		t.Errorf("expected a symmetric starting position to evaluate to 0, got %d", score)
	}
}

func TestScrluClampsToZeroAndCeiling(t *testing.T) {
	if got := scrlu(-5); got != 0 {
		t.Errorf("scrlu(-5) = %d, want 0", got)
	}
	if got := scrlu(QA + 100); got != int64(QA)*int64(QA) {
		t.Errorf("scrlu(QA+100) = %d, want %d", got, int64(QA)*int64(QA))
	}
	mid := int16(10)
	if got := scrlu(mid); got != int64(mid)*int64(mid) {
		t.Errorf("scrlu(%d) = %d, want %d", mid, got, int64(mid)*int64(mid))
	}
}
