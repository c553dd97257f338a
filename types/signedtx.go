// Package types holds the core input of the aggregation layer.
//
// Systems that wish to submit proofs must produce a SignedTx conforming to
// the type definitions specified herein.
package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agglayer/agglayer-go/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Zkp is the zero-knowledge proof and the state it claims.
type Zkp struct {
	NewStateRoot     common.Hash `json:"newStateRoot"`
	NewLocalExitRoot common.Hash `json:"newLocalExitRoot"`
	Proof            Proof       `json:"proof"`
}

// ProofManifest identifies which rollup and batch range a proof attests to,
// along with the proof itself.
type ProofManifest struct {
	RollupID          uint32    `json:"RollupID"`
	LastVerifiedBatch ArgUint64 `json:"lastVerifiedBatch"`
	NewVerifiedBatch  ArgUint64 `json:"newVerifiedBatch"`
	ZKP               Zkp       `json:"ZKP"`
}

// AuthMethod selects which authentication payload on the envelope is
// authoritative.
type AuthMethod string

const (
	AuthMethodSignature        AuthMethod = "Signature"
	AuthMethodProofOfConsensus AuthMethod = "ProofOfConsensus"
)

func (m AuthMethod) String() string {
	return string(m)
}

// UnmarshalJSON rejects tags outside the closed variant set.
func (m *AuthMethod) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	switch AuthMethod(tag) {
	case AuthMethodSignature, AuthMethodProofOfConsensus:
		*m = AuthMethod(tag)
		return nil
	default:
		return fmt.Errorf("unknown auth method %q", tag)
	}
}

// SignedHeader is a committee-signed header carried by the
// proof-of-consensus attestation.
type SignedHeader struct {
	Header string `json:"header"`
	Commit string `json:"commit"`
}

// ValidatorSet is a set of validator identifiers.
type ValidatorSet struct {
	Validators []string `json:"validators"`
}

// Provider identifies the consensus provider of an attestation.
type Provider struct {
	ID string `json:"id"`
}

// ProofOfConsensusData is an alternative, committee-based attestation of the
// manifest's validity. It is carried but not validated here; the consensus
// validator collaborator owns its semantics.
type ProofOfConsensusData struct {
	SignedHeader   SignedHeader `json:"signedHeader"`
	Validators     ValidatorSet `json:"validators"`
	NextValidators ValidatorSet `json:"nextValidators"`
	Provider       Provider     `json:"provider"`
}

// Signature is a 65-byte recoverable ECDSA signature, hex encoded in JSON.
type Signature [common.SignatureLength]byte

func (s Signature) Bytes() []byte {
	return s[:]
}

// MarshalJSON encodes the signature as a 0x-prefixed hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(common.Bytes2Hex(s[:]))
}

// UnmarshalJSON decodes a hex signature string, rejecting bad lengths.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	raw, err := hexutil.Decode(hexStr)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(raw) != common.SignatureLength {
		return fmt.Errorf("invalid signature length: expected %d, got %d", common.SignatureLength, len(raw))
	}
	copy(s[:], raw)
	return nil
}

// ErrNoSignature is returned when signer recovery is attempted on a
// submission that carries no signature. Callers are expected to check the
// auth method first.
var ErrNoSignature = errors.New("submission carries no signature")

// SignedTx is the submission envelope: a proof manifest plus one of the
// supported authentication payloads, selected by AuthMethod.
//
// The model does not enforce that the payload matching AuthMethod is
// present; a missing payload surfaces as a structured error when the
// corresponding verification runs.
type SignedTx struct {
	Tx               ProofManifest         `json:"tx"`
	AuthMethod       AuthMethod            `json:"authMethod"`
	Signature        *Signature            `json:"signature,omitempty"`
	ProofOfConsensus *ProofOfConsensusData `json:"proofOfConsensus,omitempty"`
}

// Hash generates a hash that uniquely identifies this proof submission.
//
// The digest covers the manifest only: two submissions of the same manifest
// hash identically regardless of how they were authenticated. It is both the
// correlation id for logs and metrics and the message signed by a submitter.
func (s *SignedTx) Hash() common.Hash {
	lastVerifiedBatchHex := s.Tx.LastVerifiedBatch.Hex()
	newVerifiedBatchHex := s.Tx.NewVerifiedBatch.Hex()
	proofHex := common.Bytes2Hex(s.Tx.ZKP.Proof.Bytes())

	data := make([]byte, 0, len(lastVerifiedBatchHex)+len(newVerifiedBatchHex)+2*common.HashLength+len(proofHex))
	data = append(data, []byte(lastVerifiedBatchHex)...)
	data = append(data, []byte(newVerifiedBatchHex)...)
	data = append(data, s.Tx.ZKP.NewStateRoot.Bytes()...)
	data = append(data, s.Tx.ZKP.NewLocalExitRoot.Bytes()...)
	data = append(data, []byte(proofHex)...)

	return common.Keccak256(data)
}

// Signer attempts to recover the address of the signer from the canonical
// hash and the recoverable signature.
func (s *SignedTx) Signer() (common.Address, error) {
	if s.Signature == nil {
		return common.Address{}, ErrNoSignature
	}
	return common.RecoverSigner(s.Hash(), s.Signature.Bytes())
}

// Sign signs the canonical hash with the given private key and attaches the
// resulting signature to the envelope.
func (s *SignedTx) Sign(privateKeyHex string) error {
	raw, err := common.SignDigest(privateKeyHex, s.Hash())
	if err != nil {
		return err
	}
	var sig Signature
	copy(sig[:], raw)
	s.Signature = &sig
	s.AuthMethod = AuthMethodSignature
	return nil
}
