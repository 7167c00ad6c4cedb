package database

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/tukey-oj/evaluator/internal/judge"
)

// Results blobs are JSON compressed with zstd. Result sets repeat the
// same status strings and canonical values across cases, so they
// compress well even at the fastest level.

var (
	blobEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	blobDecoder, _ = zstd.NewReader(nil)
)

func EncodeResults(results []judge.TestCaseResult) ([]byte, error) {
	if len(results) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	return blobEncoder.EncodeAll(raw, nil), nil
}

func DecodeResults(blob []byte) ([]judge.TestCaseResult, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	raw, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress results blob: %w", err)
	}
	var results []judge.TestCaseResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results blob: %w", err)
	}
	return results, nil
}
