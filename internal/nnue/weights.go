package nnue

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// LoadWeights loads network weights from a binary file laid out exactly as
// [feature_weights: 768*256 × i16][feature_biases: 256 × i16]
// [output_weights: 2*256 × i16][output_bias: i16], little-endian, with no
// header.
func (n *Network) LoadWeights(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()
	return n.LoadWeightsFromReader(f)
}

// LoadWeightsFromReader loads weights from an arbitrary reader, same
// layout as LoadWeights.
func (n *Network) LoadWeightsFromReader(r io.Reader) error {
	for i := 0; i < NumFeatures; i++ {
		if err := binary.Read(r, binary.LittleEndian, &n.FeatureWeights[i]); err != nil {
			return fmt.Errorf("failed to read feature weights at %d: %w", i, err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &n.FeatureBias); err != nil {
		return fmt.Errorf("failed to read feature bias: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &n.OutputWeights); err != nil {
		return fmt.Errorf("failed to read output weights: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &n.OutputBias); err != nil {
		return fmt.Errorf("failed to read output bias: %w", err)
	}
	return nil
}

// SaveWeights writes the network in the same layout LoadWeights reads,
// mainly used by training/export tooling and tests.
func (n *Network) SaveWeights(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	defer f.Close()

	for i := 0; i < NumFeatures; i++ {
		if err := binary.Write(f, binary.LittleEndian, &n.FeatureWeights[i]); err != nil {
			return fmt.Errorf("failed to write feature weights at %d: %w", i, err)
		}
	}
	if err := binary.Write(f, binary.LittleEndian, &n.FeatureBias); err != nil {
		return fmt.Errorf("failed to write feature bias: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, &n.OutputWeights); err != nil {
		return fmt.Errorf("failed to write output weights: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, &n.OutputBias); err != nil {
		return fmt.Errorf("failed to write output bias: %w", err)
	}
	return nil
}
