package engine

import (
	"testing"

	"github.com/kestrelchess/kestrel/internal/board"
)

func TestSEEKnightTakesDefendedPawnLosesMaterial(t *testing.T) {
	// White knight on c3 captures a pawn on d5 that is defended by a pawn on
	// e6: the knight wins the pawn (+100) but is recaptured (-320), netting
	// the classic SEE(100-320) = -220 swap-off loss.
	pos, err := board.ParseFEN("6k1/8/4p3/3p4/8/2N5/8/6K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	m, err := board.ParseMove("c3d5", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}

	if got := SEE(pos, m); got != -220 {
		t.Errorf("SEE(Nxd5) = %d, want -220", got)
	}
}

func TestSEEUndefendedCaptureWinsFullValue(t *testing.T) {
	// A knight capturing an undefended rook should read as a clean +500.
	pos, err := board.ParseFEN("6k1/8/8/3r4/8/2N5/8/6K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	m, err := board.ParseMove("c3d5", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}

	if got := SEE(pos, m); got != RookValue {
		t.Errorf("SEE(Nxr, undefended) = %d, want %d", got, RookValue)
	}
}
