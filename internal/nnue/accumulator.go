package nnue

import "github.com/kestrelchess/kestrel/internal/board"

// Accumulator holds the feature-transformer output for both perspectives:
// acc_white[i] = bias[i] + sum of W[feature,i] over every white-perspective
// active feature, and similarly for black.
type Accumulator struct {
	White    [Hidden]int16
	Black    [Hidden]int16
	Computed bool
}

// AccumulatorStack mirrors the position's history stack one-for-one: Push
// before MakeMove, ApplyMove after it; Pop after the matching UnmakeMove.
// Bounded the same way the search recursion is (see engine.MaxPly).
const maxAccumulatorDepth = 256

type AccumulatorStack struct {
	stack [maxAccumulatorDepth]Accumulator
	top   int
}

// NewAccumulatorStack creates an empty accumulator stack.
func NewAccumulatorStack() *AccumulatorStack {
	return &AccumulatorStack{}
}

// Push duplicates the current accumulator onto the next stack slot.
func (s *AccumulatorStack) Push() {
	if s.top < maxAccumulatorDepth-1 {
		s.stack[s.top+1] = s.stack[s.top]
		s.top++
	}
}

// Pop discards the top accumulator, exposing the one pushed before it.
func (s *AccumulatorStack) Pop() {
	if s.top > 0 {
		s.top--
	}
}

// Current returns the accumulator for the current ply.
func (s *AccumulatorStack) Current() *Accumulator {
	return &s.stack[s.top]
}

// Reset clears the stack back to ply 0, marking it uncomputed so the next
// Evaluate call triggers a full recompute.
func (s *AccumulatorStack) Reset() {
	s.top = 0
	s.stack[0].Computed = false
}

// ComputeFull recomputes the accumulator from scratch: bias plus one
// feature row per piece currently on the board, for both perspectives.
func (acc *Accumulator) ComputeFull(pos *board.Position, net *Network) {
	copy(acc.White[:], net.FeatureBias[:])
	copy(acc.Black[:], net.FeatureBias[:])

	for pieceVal := board.Piece(0); pieceVal < 12; pieceVal++ {
		for _, sq := range pos.PieceSquares(pieceVal) {
			addRow(&acc.White, net.FeatureWeights[WhiteFeature(pieceVal, sq)])
			addRow(&acc.Black, net.FeatureWeights[BlackFeature(pieceVal, sq)])
		}
	}

	acc.Computed = true
}

// AddPiece adds the feature row for piece p on sq to both perspectives.
func (acc *Accumulator) AddPiece(p board.Piece, sq board.Square, net *Network) {
	addRow(&acc.White, net.FeatureWeights[WhiteFeature(p, sq)])
	addRow(&acc.Black, net.FeatureWeights[BlackFeature(p, sq)])
}

// RemovePiece subtracts the feature row for piece p on sq from both
// perspectives.
func (acc *Accumulator) RemovePiece(p board.Piece, sq board.Square, net *Network) {
	subRow(&acc.White, net.FeatureWeights[WhiteFeature(p, sq)])
	subRow(&acc.Black, net.FeatureWeights[BlackFeature(p, sq)])
}

func addRow(dst *[Hidden]int16, row [Hidden]int16) {
	for i := 0; i < Hidden; i++ {
		dst[i] += row[i]
	}
}

func subRow(dst *[Hidden]int16, row [Hidden]int16) {
	for i := 0; i < Hidden; i++ {
		dst[i] -= row[i]
	}
}
