package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/agglayer/agglayer-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() ProofManifest {
	var proof Proof
	for i := range proof {
		proof[i] = common.BytesToHash([]byte{byte(i + 1)})
	}
	return ProofManifest{
		RollupID:          1,
		LastVerifiedBatch: 42,
		NewVerifiedBatch:  43,
		ZKP: Zkp{
			NewStateRoot:     common.HexToHash("0x01"),
			NewLocalExitRoot: common.HexToHash("0x02"),
			Proof:            proof,
		},
	}
}

func TestHashDependsOnManifestOnly(t *testing.T) {
	base := &SignedTx{Tx: sampleManifest(), AuthMethod: AuthMethodSignature}
	want := base.Hash()

	var sig Signature
	sig[0] = 0xff
	withSig := &SignedTx{Tx: sampleManifest(), AuthMethod: AuthMethodSignature, Signature: &sig}
	assert.Equal(t, want, withSig.Hash())

	withConsensus := &SignedTx{
		Tx:         sampleManifest(),
		AuthMethod: AuthMethodProofOfConsensus,
		ProofOfConsensus: &ProofOfConsensusData{
			SignedHeader: SignedHeader{Header: "h", Commit: "c"},
			Validators:   ValidatorSet{Validators: []string{"v1", "v2"}},
			Provider:     Provider{ID: "prov"},
		},
	}
	assert.Equal(t, want, withConsensus.Hash())
}

func TestHashChangesWithManifest(t *testing.T) {
	a := &SignedTx{Tx: sampleManifest()}
	modified := sampleManifest()
	modified.NewVerifiedBatch++
	b := &SignedTx{Tx: modified}
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestSignAndRecover(t *testing.T) {
	addr, key := common.GetEVMDevAccount(0)

	tx := &SignedTx{Tx: sampleManifest()}
	require.NoError(t, tx.Sign(key))
	require.NotNil(t, tx.Signature)
	assert.Equal(t, AuthMethodSignature, tx.AuthMethod)

	signer, err := tx.Signer()
	require.NoError(t, err)
	assert.Equal(t, addr, signer)
}

func TestSignerWithoutSignature(t *testing.T) {
	tx := &SignedTx{Tx: sampleManifest(), AuthMethod: AuthMethodProofOfConsensus}
	_, err := tx.Signer()
	assert.True(t, errors.Is(err, ErrNoSignature))
}

func TestSignedTxWireDecode(t *testing.T) {
	addr, key := common.GetEVMDevAccount(1)

	tx := &SignedTx{Tx: sampleManifest()}
	require.NoError(t, tx.Sign(key))

	encoded, err := json.Marshal(tx)
	require.NoError(t, err)

	var decoded SignedTx
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, tx.Tx, decoded.Tx)
	assert.Equal(t, tx.Hash(), decoded.Hash())

	signer, err := decoded.Signer()
	require.NoError(t, err)
	assert.Equal(t, addr, signer)
}

func TestSignedTxDecodeRejectsBadProof(t *testing.T) {
	payload := []byte(`{
		"tx": {
			"RollupID": 1,
			"lastVerifiedBatch": "0x2a",
			"newVerifiedBatch": "0x2b",
			"ZKP": {
				"newStateRoot": "0x01",
				"newLocalExitRoot": "0x02",
				"proof": "0xdead"
			}
		},
		"authMethod": "Signature"
	}`)
	var decoded SignedTx
	err := json.Unmarshal(payload, &decoded)
	require.Error(t, err)

	var lenErr *ProofLengthError
	assert.True(t, errors.As(err, &lenErr))
}

func TestAuthMethodClosedSet(t *testing.T) {
	var m AuthMethod
	require.NoError(t, json.Unmarshal([]byte(`"Signature"`), &m))
	assert.Equal(t, AuthMethodSignature, m)

	require.NoError(t, json.Unmarshal([]byte(`"ProofOfConsensus"`), &m))
	assert.Equal(t, AuthMethodProofOfConsensus, m)

	assert.Error(t, json.Unmarshal([]byte(`"Multisig"`), &m))
}

func TestArgUint64Forms(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want ArgUint64
	}{
		{`42`, 42},
		{`"42"`, 42},
		{`"0x2a"`, 42},
		{`"0X2A"`, 42},
	} {
		var got ArgUint64
		require.NoError(t, json.Unmarshal([]byte(tc.in), &got), tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	var got ArgUint64
	assert.Error(t, json.Unmarshal([]byte(`"0xzz"`), &got))

	encoded, err := json.Marshal(ArgUint64(42))
	require.NoError(t, err)
	assert.Equal(t, `"0x2a"`, string(encoded))
}

func TestSignatureJSONLength(t *testing.T) {
	var sig Signature
	assert.Error(t, json.Unmarshal([]byte(`"0xabcd"`), &sig))
}
