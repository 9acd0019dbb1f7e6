package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-15: flag
//
// Promotion flags reuse the promoted piece's PieceType value as the flag
// index (Knight=1 .. Queen=4), so a promotion flag can be turned back into a
// PieceType with a single subtraction-free cast.
type Move uint16

// Move flags.
const (
	FlagNone       uint16 = 0
	FlagPromoteN   uint16 = uint16(Knight) // 1
	FlagPromoteB   uint16 = uint16(Bishop) // 2
	FlagPromoteR   uint16 = uint16(Rook)   // 3
	FlagPromoteQ   uint16 = uint16(Queen)  // 4
	FlagDoubleJump uint16 = 5
	FlagEnPassant  uint16 = 6
	FlagCastleK    uint16 = 7
	FlagCastleQ    uint16 = 8
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

func pack(from, to Square, flag uint16) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12
}

// NewMove creates a normal (non-special) move.
func NewMove(from, to Square) Move {
	return pack(from, to, FlagNone)
}

// NewDoubleJump creates a two-square pawn push.
func NewDoubleJump(from, to Square) Move {
	return pack(from, to, FlagDoubleJump)
}

// NewPromotion creates a promotion move. promo must be Knight..Queen.
func NewPromotion(from, to Square, promo PieceType) Move {
	return pack(from, to, uint16(promo))
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return pack(from, to, FlagEnPassant)
}

// NewCastleKing creates a kingside castling move (king's movement only).
func NewCastleKing(from, to Square) Move {
	return pack(from, to, FlagCastleK)
}

// NewCastleQueen creates a queenside castling move (king's movement only).
func NewCastleQueen(from, to Square) Move {
	return pack(from, to, FlagCastleQ)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move flag.
func (m Move) Flag() uint16 {
	return uint16(m>>12) & 0xF
}

// Promotion returns the promotion piece type (only valid if IsPromotion() is true).
func (m Move) Promotion() PieceType {
	return PieceType(m.Flag())
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	f := m.Flag()
	return f >= FlagPromoteN && f <= FlagPromoteQ
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	f := m.Flag()
	return f == FlagCastleK || f == FlagCastleQ
}

// IsDoubleJump returns true if this is a two-square pawn push.
func (m Move) IsDoubleJump() bool {
	return m.Flag() == FlagDoubleJump
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture(pos *Position) bool {
	if m.IsEnPassant() {
		return true
	}
	return !pos.IsEmpty(m.To())
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}

	return s
}

// ParseMove parses a UCI format move string against the given position.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}

	pt := piece.Type()

	if pt == King && abs(int(to)-int(from)) == 2 {
		if to.File() == 6 {
			return NewCastleKing(from, to), nil
		}
		return NewCastleQueen(from, to), nil
	}

	if pt == Pawn && to == pos.EnPassant && pos.EnPassant != NoSquare {
		return NewEnPassant(from, to), nil
	}

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		return NewDoubleJump(from, to), nil
	}

	return NewMove(from, to), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// HistEntry captures everything needed to undo exactly one make(), without
// ever having to recompute the Zobrist hash from scratch.
type HistEntry struct {
	Move           Move
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Zobrist        uint64
	Checkers       Bitboard
}
