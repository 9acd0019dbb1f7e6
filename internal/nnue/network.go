package nnue

import "github.com/kestrelchess/kestrel/internal/board"

// Network holds the quantized weights: a 768->256 feature transformer
// shared by both perspectives, and a single output head over the
// concatenated [us, them] activations.
type Network struct {
	FeatureWeights [NumFeatures][Hidden]int16
	FeatureBias    [Hidden]int16
	OutputWeights  [2 * Hidden]int16
	OutputBias     int16
}

// NewNetwork creates a network with zero weights; load real weights with
// LoadWeights or fill with InitRandom for testing.
func NewNetwork() *Network {
	return &Network{}
}

// Forward computes the network's centipawn evaluation from the side to
// move's perspective:
//
//	out   = Σ scrlu(us[i])·out_w[i] + Σ scrlu(them[i])·out_w[H+i]
//	eval  = (out/QA + out_bias) · EVAL_SCALE / QAB
func (n *Network) Forward(acc *Accumulator, sideToMove board.Color) int {
	var us, them *[Hidden]int16
	if sideToMove == board.White {
		us, them = &acc.White, &acc.Black
	} else {
		us, them = &acc.Black, &acc.White
	}

	var out int64
	for i := 0; i < Hidden; i++ {
		out += scrlu(us[i]) * int64(n.OutputWeights[i])
	}
	for i := 0; i < Hidden; i++ {
		out += scrlu(them[i]) * int64(n.OutputWeights[Hidden+i])
	}

	eval := (out/QA + int64(n.OutputBias)) * EvalScale / QAB
	return int(int16(eval))
}

// InitRandom fills the network with small deterministic pseudo-random
// weights, for use when no trained weights file is available. The us/them
// output-weight halves are tied as negations of one another, so evaluating
// the same board placement from either side to move's perspective yields
// negated scores — the sanity property a trained network approximates but
// an untrained placeholder must hold exactly.
func (n *Network) InitRandom(seed int64) {
	state := uint64(seed)
	next := func() int16 {
		state = state*6364136223846793005 + 1442695040888963407
		return int16((state>>48)&0xFF) - 128
	}

	for i := 0; i < NumFeatures; i++ {
		for j := 0; j < Hidden; j++ {
			n.FeatureWeights[i][j] = next() >> 5
		}
	}
	for i := 0; i < Hidden; i++ {
		n.FeatureBias[i] = next() >> 3
	}
	for i := 0; i < Hidden; i++ {
		w := next() >> 5
		n.OutputWeights[i] = w
		n.OutputWeights[Hidden+i] = -w
	}
	n.OutputBias = 0
}
