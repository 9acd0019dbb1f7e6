package nnue

import "github.com/kestrelchess/kestrel/internal/board"

// WhiteFeature returns the white-perspective feature index for piece p on
// square sq: 64*p + sq, where p is the piece's board.Piece encoding
// (PieceType + Color*6, 0..11).
func WhiteFeature(p board.Piece, sq board.Square) int {
	return 64*int(p) + int(sq)
}

// BlackFeature returns the black-perspective feature index for the same
// piece/square: a vertical board flip (sq xor 56) plus a color swap
// ((p+6) mod 12), so black always sees the board from its own side.
func BlackFeature(p board.Piece, sq board.Square) int {
	return 64*((int(p)+6)%12) + int(sq^56)
}
