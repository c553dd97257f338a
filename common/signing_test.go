package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256(t *testing.T) {
	// keccak256("") is a fixed vector.
	assert.Equal(t,
		HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Keccak256(nil))
}

func TestSignAndRecover(t *testing.T) {
	addr, key := GetEVMDevAccount(0)
	digest := Keccak256([]byte("payload"))

	sig, err := SignDigest(key, digest)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	assert.True(t, sig[64] == 27 || sig[64] == 28)

	recovered, err := RecoverSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)
}

func TestRecoverAcceptsRawRecoveryID(t *testing.T) {
	addr, key := GetEVMDevAccount(1)
	digest := Keccak256([]byte("payload"))

	sig, err := SignDigest(key, digest)
	require.NoError(t, err)
	sig[64] -= 27

	recovered, err := RecoverSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)
}

func TestSignDigestRejectsBadKey(t *testing.T) {
	_, err := SignDigest("not-a-key", Hash{})
	require.Error(t, err)
}

func TestRecoverSignerRejectsBadLength(t *testing.T) {
	_, err := RecoverSigner(Hash{}, make([]byte, 64))
	require.Error(t, err)
}

func TestHashJSONRoundTrip(t *testing.T) {
	h := HexToHash("0x11")
	data, err := h.MarshalJSON()
	require.NoError(t, err)

	var back Hash
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, h, back)
}
