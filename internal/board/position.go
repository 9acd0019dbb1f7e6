package board

import "fmt"

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                             // Q
	BlackKingSideCastle                              // k
	BlackQueenSideCastle                             // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// castleMask[sq] is ANDed into the castling rights on both the from and to
// square of every move: it is AllCastling everywhere except the four rook
// home squares and the two king home squares, where the corresponding
// right(s) are cleared. A right is lost the moment the king or rook in
// question leaves, is captured on, or is moved onto its home square.
var castleMask [64]CastlingRights

func init() {
	for sq := 0; sq < 64; sq++ {
		castleMask[sq] = AllCastling
	}
	castleMask[A1] = AllCastling &^ WhiteQueenSideCastle
	castleMask[H1] = AllCastling &^ WhiteKingSideCastle
	castleMask[E1] = AllCastling &^ (WhiteKingSideCastle | WhiteQueenSideCastle)
	castleMask[A8] = AllCastling &^ BlackQueenSideCastle
	castleMask[H8] = AllCastling &^ BlackKingSideCastle
	castleMask[E8] = AllCastling &^ (BlackKingSideCastle | BlackQueenSideCastle)
}

const maxHistoryDepth = 1024
const maxPieceCount = 10

// Position represents a complete chess position: bitboards, a square→piece
// mirror, per-piece-type square lists, incremental occupancy, Zobrist hash,
// and a history stack that makes every make() reversible by undo() without
// ever recomputing the hash from scratch.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard

	board [64]Piece // piece_at mirror: board[sq] == p iff sq is set in Pieces

	pieceList  [12][maxPieceCount]Square
	pieceIndex [64]int8 // index of the square's piece within pieceList[piece]
	pieceCount [12]int

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // target square of a pending en passant capture, NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int

	Hash uint64

	KingSquare [2]Square
	Checkers   Bitboard

	history [maxHistoryDepth]HistEntry
	histTop int
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy creates a deep copy of the position (used to hand an independent
// search root to a lazy-SMP worker; the search itself never copies
// mid-search, it make()s/undo()s in place against the history stack).
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.board[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.board[sq] == NoPiece
}

// PieceSquares returns the squares currently occupied by piece, as a slice
// into the position's internal piece list (valid until the next make/undo).
func (p *Position) PieceSquares(piece Piece) []Square {
	return p.pieceList[piece][:p.pieceCount[piece]]
}

// addPiece places a piece on an empty square, updating bitboards, occupancy,
// the piece_at mirror, the piece list, the king cache, and the hash.
func (p *Position) addPiece(piece Piece, sq Square) {
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)

	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.board[sq] = piece
	p.Hash ^= ZobristPiece(c, pt, sq)

	idx := p.pieceCount[piece]
	p.pieceList[piece][idx] = sq
	p.pieceIndex[sq] = int8(idx)
	p.pieceCount[piece]++

	if pt == King {
		p.KingSquare[c] = sq
	}
}

// removePieceAt removes whatever piece sits on sq and returns it (NoPiece if
// the square was already empty).
func (p *Position) removePieceAt(sq Square) Piece {
	piece := p.board[sq]
	if piece == NoPiece {
		return NoPiece
	}
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)

	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.board[sq] = NoPiece
	p.Hash ^= ZobristPiece(c, pt, sq)

	// Swap-remove from the piece list: order doesn't matter, only the set of
	// squares and the count, which is all the documented invariant requires.
	idx := int(p.pieceIndex[sq])
	last := p.pieceCount[piece] - 1
	lastSq := p.pieceList[piece][last]
	p.pieceList[piece][idx] = lastSq
	p.pieceIndex[lastSq] = int8(idx)
	p.pieceCount[piece]--

	return piece
}

// movePieceSquare relocates the piece on from to to (to must be empty) and
// returns it.
func (p *Position) movePieceSquare(from, to Square) Piece {
	piece := p.removePieceAt(from)
	p.addPiece(piece, to)
	return piece
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	s := "\n"
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "\n   a b c d e f g h\n\n"
	s += fmt.Sprintf("Side to move: %s\n", p.SideToMove)
	s += fmt.Sprintf("Castling: %s\n", p.CastlingRights)
	s += fmt.Sprintf("En passant: %s\n", p.EnPassant)
	s += fmt.Sprintf("Half-move clock: %d\n", p.HalfMoveClock)
	s += fmt.Sprintf("Full move: %d\n", p.FullMoveNumber)
	s += fmt.Sprintf("Hash: %016x\n", p.Hash)
	return s
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	p.KingSquare[White] = NoSquare
	p.KingSquare[Black] = NoSquare
	for sq := range p.board {
		p.board[sq] = NoPiece
	}
}

// Validate checks basic structural soundness of the position.
func (p *Position) Validate() error {
	if p.Pieces[White][King].PopCount() != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if p.Pieces[Black][King].PopCount() != 1 {
		return fmt.Errorf("black must have exactly one king")
	}
	if (p.Pieces[White][Pawn] | p.Pieces[Black][Pawn]) & (Rank1 | Rank8) != 0 {
		return fmt.Errorf("pawns cannot be on rank 1 or 8")
	}
	return nil
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

// Material returns the material balance (positive favors white) using the
// spec's piece values (ignores king, which has no material weight here).
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < King; pt++ {
		score += p.Pieces[White][pt].PopCount() * PieceValue[pt]
		score -= p.Pieces[Black][pt].PopCount() * PieceValue[pt]
	}
	return score
}

// ComputePinned computes pieces pinned to the king for the side to move,
// via x-ray attack detection through the king's own pieces.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	pinned := Bitboard(0)

	snipers := RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}

	snipers = BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}

	return pinned
}

// HasNonPawnMaterial returns true if the side to move has non-pawn,
// non-king material (used to detect likely zugzwang before null-move
// pruning).
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}

// MakeMove applies mv to the position, pushing one HistEntry that Unmake
// uses to restore the exact prior state (see COMPONENT DESIGN §4.2).
func (p *Position) MakeMove(mv Move) {
	from, to, flag := mv.From(), mv.To(), mv.Flag()
	us := p.SideToMove

	hist := HistEntry{
		Move:           mv,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Zobrist:        p.Hash,
		Checkers:       p.Checkers,
	}

	movingPiece := p.board[from]

	captured := NoPiece
	if flag != FlagEnPassant && !p.IsEmpty(to) {
		captured = p.removePieceAt(to)
	}

	isPawnMove := movingPiece.Type() == Pawn
	if isPawnMove || captured != NoPiece || flag == FlagEnPassant {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if p.EnPassant != NoSquare {
		p.Hash ^= ZobristEnPassant(p.EnPassant.File())
		p.EnPassant = NoSquare
	}

	newRights := p.CastlingRights & castleMask[from] & castleMask[to]
	if newRights != p.CastlingRights {
		p.Hash ^= ZobristCastling(p.CastlingRights)
		p.Hash ^= ZobristCastling(newRights)
		p.CastlingRights = newRights
	}

	switch flag {
	case FlagNone:
		p.movePieceSquare(from, to)
	case FlagDoubleJump:
		p.movePieceSquare(from, to)
		epTarget := Square((int(from) + int(to)) / 2)
		p.EnPassant = epTarget
		p.Hash ^= ZobristEnPassant(epTarget.File())
	case FlagCastleK:
		p.movePieceSquare(from, to)
		rookFrom, rookTo := kingRookSquares(us, true)
		p.movePieceSquare(rookFrom, rookTo)
	case FlagCastleQ:
		p.movePieceSquare(from, to)
		rookFrom, rookTo := kingRookSquares(us, false)
		p.movePieceSquare(rookFrom, rookTo)
	case FlagEnPassant:
		p.movePieceSquare(from, to)
		capSq := epCapturedSquare(us, to)
		captured = p.removePieceAt(capSq)
	default: // promotion flags
		p.removePieceAt(from)
		p.addPiece(NewPiece(PieceType(flag), us), to)
	}

	hist.CapturedPiece = captured

	p.SideToMove = us.Other()
	p.Hash ^= ZobristSideToMove()

	if p.SideToMove == White {
		p.FullMoveNumber++
	}

	p.history[p.histTop] = hist
	p.histTop++

	p.UpdateCheckers()
}

// UnmakeMove reverses the most recent MakeMove, restoring the position
// byte-for-byte, including Hash, from the top HistEntry.
func (p *Position) UnmakeMove(mv Move) {
	p.histTop--
	hist := p.history[p.histTop]

	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove

	if p.SideToMove == Black {
		p.FullMoveNumber--
	}

	from, to, flag := mv.From(), mv.To(), mv.Flag()

	switch flag {
	case FlagNone:
		p.movePieceSquare(to, from)
		if hist.CapturedPiece != NoPiece {
			p.addPiece(hist.CapturedPiece, to)
		}
	case FlagDoubleJump:
		p.movePieceSquare(to, from)
	case FlagCastleK:
		rookFrom, rookTo := kingRookSquares(us, true)
		p.movePieceSquare(rookTo, rookFrom)
		p.movePieceSquare(to, from)
	case FlagCastleQ:
		rookFrom, rookTo := kingRookSquares(us, false)
		p.movePieceSquare(rookTo, rookFrom)
		p.movePieceSquare(to, from)
	case FlagEnPassant:
		p.movePieceSquare(to, from)
		capSq := epCapturedSquare(us, to)
		p.addPiece(hist.CapturedPiece, capSq)
	default: // promotion flags
		p.removePieceAt(to)
		p.addPiece(NewPiece(Pawn, us), from)
		if hist.CapturedPiece != NoPiece {
			p.addPiece(hist.CapturedPiece, to)
		}
	}

	p.CastlingRights = hist.CastlingRights
	p.EnPassant = hist.EnPassant
	p.HalfMoveClock = hist.HalfMoveClock
	p.Hash = hist.Zobrist
	p.Checkers = hist.Checkers
}

// HistoryLen returns the number of moves made since the search root (or game
// start), i.e. the current depth of the history stack.
func (p *Position) HistoryLen() int {
	return p.histTop
}

// HistoryAt returns the HistEntry pushed by the i-th MakeMove call (0-based,
// counting from the bottom of the stack).
func (p *Position) HistoryAt(i int) HistEntry {
	return p.history[i]
}

func kingRookSquares(c Color, kingSide bool) (from, to Square) {
	if c == White {
		if kingSide {
			return H1, F1
		}
		return A1, D1
	}
	if kingSide {
		return H8, F8
	}
	return A8, D8
}

func epCapturedSquare(mover Color, to Square) Square {
	if mover == White {
		return to - 8
	}
	return to + 8
}

// NullMoveUndo stores state for unmake of a null move.
type NullMoveUndo struct {
	EnPassant Square
	Hash      uint64
}

// MakeNullMove passes the turn without moving a piece, used by null-move
// pruning in search.
func (p *Position) MakeNullMove() NullMoveUndo {
	undo := NullMoveUndo{
		EnPassant: p.EnPassant,
		Hash:      p.Hash,
	}

	if p.EnPassant != NoSquare {
		p.Hash ^= ZobristEnPassant(p.EnPassant.File())
	}
	p.EnPassant = NoSquare

	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= ZobristSideToMove()

	p.UpdateCheckers()

	return undo
}

// UnmakeNullMove undoes a null move.
func (p *Position) UnmakeNullMove(undo NullMoveUndo) {
	p.EnPassant = undo.EnPassant
	p.Hash = undo.Hash
	p.SideToMove = p.SideToMove.Other()

	p.UpdateCheckers()
}
