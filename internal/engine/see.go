package engine

import "github.com/kestrelchess/kestrel/internal/board"

// Piece values used by search (ordering, SEE, the material-only eval
// fallback). These match the engine's internal scale, not the NNUE output.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 320
	RookValue   = 500
	QueenValue  = 1000
	KingValue   = 10000
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// SEE (Static Exchange Evaluation) estimates the material result of the
// full capture sequence on m's destination square, from the mover's
// perspective, by simulating least-valuable-attacker recaptures until one
// side stops recapturing.
func SEE(pos *board.Position, m board.Move) int {
	from := m.From()
	to := m.To()

	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return 0
	}

	var capturedValue int
	if m.IsEnPassant() {
		capturedValue = PawnValue
	} else {
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			return 0
		}
		capturedValue = pieceValues[victim.Type()]
	}

	if m.IsPromotion() {
		capturedValue += pieceValues[m.Promotion()] - PawnValue
	}

	return seeSwap(pos, to, from, attacker, capturedValue)
}

// seeSwap runs the swap-off algorithm: each side in turn recaptures with
// its least valuable attacker on target, until a side with nothing to gain
// declines, then negamaxes the resulting gain sequence back to the root.
func seeSwap(pos *board.Position, target, excludeFrom board.Square, firstAttacker board.Piece, initialGain int) int {
	var gain [32]int
	d := 0
	gain[d] = initialGain

	occupied := pos.AllOccupied &^ board.SquareBB(excludeFrom)
	attackerValue := pieceValues[firstAttacker.Type()]
	side := firstAttacker.Color().Other()

	for {
		d++
		gain[d] = attackerValue - gain[d-1]

		if maxInt(-gain[d-1], gain[d]) < 0 {
			break
		}

		attackerSq, attackerPiece := getLeastValuableAttacker(pos, target, side, occupied)
		if attackerSq == board.NoSquare {
			break
		}

		occupied &^= board.SquareBB(attackerSq)
		attackerValue = pieceValues[attackerPiece.Type()]
		side = side.Other()
	}

	for d--; d > 0; d-- {
		gain[d-1] = -maxInt(-gain[d-1], gain[d])
	}

	return gain[0]
}

// getLeastValuableAttacker finds side's cheapest piece (still on the board
// per occupied) attacking target, re-deriving slider attacks from occupied
// so a removed attacker correctly reveals any x-ray piece behind it.
func getLeastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	pawns := pos.Pieces[side][board.Pawn] & occupied
	if attackers := pawns & board.PawnAttacks(target, side.Other()); attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Pawn, side)
	}

	knights := pos.Pieces[side][board.Knight] & occupied
	if attackers := knights & board.KnightAttacks(target); attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Knight, side)
	}

	bishopAttacks := board.BishopAttacks(target, occupied)
	bishops := pos.Pieces[side][board.Bishop] & occupied
	if attackers := bishops & bishopAttacks; attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Bishop, side)
	}

	rookAttacks := board.RookAttacks(target, occupied)
	rooks := pos.Pieces[side][board.Rook] & occupied
	if attackers := rooks & rookAttacks; attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Rook, side)
	}

	queens := pos.Pieces[side][board.Queen] & occupied
	if attackers := queens & (bishopAttacks | rookAttacks); attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.Queen, side)
	}

	kingBB := pos.Pieces[side][board.King] & occupied
	if attackers := kingBB & board.KingAttacks(target); attackers != 0 {
		return attackers.LSB(), board.NewPiece(board.King, side)
	}

	return board.NoSquare, board.NoPiece
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
