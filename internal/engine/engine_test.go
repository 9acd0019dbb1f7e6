package engine

import (
	"testing"
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(16, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.SetThreads(2)
	return eng
}

func TestSearchFindsAMoveFromStartPosition(t *testing.T) {
	eng := newTestEngine(t)
	pos := board.NewPosition()

	move := eng.Search(pos, SearchLimits{Depth: 4, MoveTime: 2 * time.Second})
	if move == board.NoMove {
		t.Fatal("search returned NoMove for the starting position")
	}
}

func TestSearchFindsMateInOne(t *testing.T) {
	eng := newTestEngine(t)
	// White to play Re1-e8#, a back-rank mate against the pawn-walled king.
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/4R1K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	move := eng.Search(pos, SearchLimits{Depth: 6, MoveTime: 3 * time.Second})
	if move == board.NoMove {
		t.Fatal("search returned NoMove")
	}

	pos.MakeMove(move)
	if !pos.IsCheckmate() {
		t.Errorf("expected Re1-e8# or equivalent mate, got %s which does not mate", move)
	}
}

func TestSearchRespectsNodeLimit(t *testing.T) {
	eng := newTestEngine(t)
	pos := board.NewPosition()

	move := eng.Search(pos, SearchLimits{Nodes: 5000, MoveTime: 5 * time.Second})
	if move == board.NoMove {
		t.Fatal("search returned NoMove under a small node limit")
	}
}

func TestPerftMatchesKnownStartingPositionCounts(t *testing.T) {
	eng := newTestEngine(t)
	pos := board.NewPosition()

	want := []uint64{1, 20, 400, 8902}
	for depth, expected := range want {
		got := eng.Perft(pos, depth)
		if got != expected {
			t.Errorf("perft(%d) = %d, want %d", depth, got, expected)
		}
	}
}

func TestEvaluateIsSymmetricUnderNullMove(t *testing.T) {
	eng := newTestEngine(t)
	pos := board.NewPosition()

	evalBefore := eng.Evaluate(pos)
	undo := pos.MakeNullMove()
	evalAfter := eng.Evaluate(pos)
	pos.UnmakeNullMove(undo)

	if evalBefore != -evalAfter {
		t.Errorf("evaluation not side-to-move symmetric: %d vs %d", evalBefore, -evalAfter)
	}
}

func TestClearResetsTranspositionTable(t *testing.T) {
	eng := newTestEngine(t)
	pos := board.NewPosition()
	eng.Search(pos, SearchLimits{Depth: 4, MoveTime: time.Second})

	if eng.tt.HashFull() == 0 {
		t.Skip("search too shallow to populate the TT in this run")
	}

	eng.Clear()
	if eng.tt.HashFull() != 0 {
		t.Errorf("expected empty TT after Clear, got %d permille full", eng.tt.HashFull())
	}
}

func TestEvaluateFallsBackToMaterialWithNoWeights(t *testing.T) {
	eng := newTestEngine(t)
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	if got := eng.Evaluate(pos); got != PawnValue {
		t.Errorf("Evaluate(lone extra pawn, no weights) = %d, want %d", got, PawnValue)
	}
}

func TestSearchWithUCILimitsRespectsHardDeadline(t *testing.T) {
	eng := newTestEngine(t)
	pos := board.NewPosition()

	limits := UCILimits{
		Time: [2]time.Duration{50 * time.Millisecond, 50 * time.Millisecond},
	}

	start := time.Now()
	move := eng.SearchWithUCILimits(pos, limits, 0)
	elapsed := time.Since(start)

	if move == board.NoMove {
		t.Fatal("search returned NoMove under a tight time control")
	}
	if elapsed > 2*time.Second {
		t.Errorf("search ran %v past a 50ms time control; hard stop not enforced", elapsed)
	}
}

func TestConcurrentSearchAcrossPositions(t *testing.T) {
	eng := newTestEngine(t)
	eng.SetThreads(4)

	positions := []string{
		board.StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		"8/8/8/4k3/8/4K3/4P3/8 w - - 0 1",
	}

	for i, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("position %d: ParseFEN: %v", i, err)
		}

		move := eng.Search(pos, SearchLimits{Depth: 5, MoveTime: 500 * time.Millisecond})
		if move == board.NoMove && pos.HasLegalMoves() {
			t.Errorf("position %d: search returned NoMove despite legal moves", i)
		}
	}
}
