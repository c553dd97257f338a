package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/agglayer/agglayer-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofFromBytesRejectsBadLengths(t *testing.T) {
	for _, size := range []int{0, 1, 31, 32, 767, 769, 1024} {
		_, err := ProofFromBytes(make([]byte, size))
		require.Error(t, err, "size %d", size)

		var lenErr *ProofLengthError
		require.True(t, errors.As(err, &lenErr), "size %d", size)
		assert.Equal(t, ProofBytes, lenErr.Expected)
		assert.Equal(t, size, lenErr.Got)
	}
}

func TestProofRoundTrip(t *testing.T) {
	raw := make([]byte, ProofBytes)
	for i := range raw {
		raw[i] = byte(i % 251)
	}

	proof, err := ProofFromBytes(raw)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(raw, proof.Bytes()))

	fixed := proof.ToFixedBytes()
	for i := 0; i < ProofLength; i++ {
		assert.Equal(t, raw[i*common.HashLength:(i+1)*common.HashLength], fixed[i][:])
	}
}

func TestProofJSON(t *testing.T) {
	raw := make([]byte, ProofBytes)
	raw[0] = 0xab
	raw[ProofBytes-1] = 0xcd

	proof, err := ProofFromBytes(raw)
	require.NoError(t, err)

	encoded, err := json.Marshal(proof)
	require.NoError(t, err)

	var decoded Proof
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, proof, decoded)
}

func TestProofJSONRejectsShortHex(t *testing.T) {
	var proof Proof
	err := json.Unmarshal([]byte(`"0xabcd"`), &proof)
	require.Error(t, err)

	var lenErr *ProofLengthError
	assert.True(t, errors.As(err, &lenErr))
}

func TestProofJSONRejectsMalformedHex(t *testing.T) {
	var proof Proof
	err := json.Unmarshal([]byte(`"not-hex"`), &proof)
	assert.Error(t, err)
}
