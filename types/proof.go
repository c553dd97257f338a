package types

import (
	"encoding/json"
	"fmt"

	"github.com/agglayer/agglayer-go/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// ProofLength is the number of 32-byte hashes in a proof.
	ProofLength = 24

	// ProofBytes is the exact wire size of a proof.
	ProofBytes = ProofLength * common.HashLength
)

// Proof is the raw zero-knowledge proof payload: a fixed sequence of
// 32-byte hashes. On the wire it is the 768-byte concatenation of its
// elements, hex encoded in JSON.
type Proof [ProofLength]common.Hash

// ProofLengthError reports a proof blob whose size is not exactly ProofBytes.
type ProofLengthError struct {
	Expected int
	Got      int
}

func (e *ProofLengthError) Error() string {
	return fmt.Sprintf("invalid proof length: expected %d, got %d", e.Expected, e.Got)
}

// ProofHashError reports a proof element that could not be read. Structurally
// unreachable once the length is validated, kept as a distinct error for
// forward compatibility.
type ProofHashError struct {
	Index int
}

func (e *ProofHashError) Error() string {
	return fmt.Sprintf("invalid hash at index %d", e.Index)
}

// Bytes returns the 768-byte concatenation of the proof hashes, in order.
func (p Proof) Bytes() []byte {
	bytes := make([]byte, 0, ProofBytes)
	for _, hash := range p {
		bytes = append(bytes, hash.Bytes()...)
	}
	return bytes
}

// ToFixedBytes returns the proof as a fixed-size array of byte arrays, the
// shape the settlement contract call expects.
func (p Proof) ToFixedBytes() [ProofLength][common.HashLength]byte {
	var out [ProofLength][common.HashLength]byte
	for i, hash := range p {
		copy(out[i][:], hash.Bytes())
	}
	return out
}

// ProofFromBytes parses a 768-byte blob into a Proof. Either the whole proof
// parses or an error is returned, never a partial result.
func ProofFromBytes(data []byte) (Proof, error) {
	var proof Proof
	if len(data) != ProofBytes {
		return proof, &ProofLengthError{Expected: ProofBytes, Got: len(data)}
	}

	for i := 0; i < ProofLength; i++ {
		chunk := data[i*common.HashLength : (i+1)*common.HashLength]
		if len(chunk) != common.HashLength {
			return Proof{}, &ProofHashError{Index: i}
		}
		proof[i] = common.BytesToHash(chunk)
	}

	return proof, nil
}

// MarshalJSON encodes the proof as a 0x-prefixed hex string.
func (p Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(common.Bytes2Hex(p.Bytes()))
}

// UnmarshalJSON decodes a hex string into the proof, rejecting any length
// other than ProofBytes.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	raw, err := hexutil.Decode(hexStr)
	if err != nil {
		return fmt.Errorf("invalid proof encoding: %w", err)
	}
	proof, err := ProofFromBytes(raw)
	if err != nil {
		return err
	}
	*p = proof
	return nil
}
