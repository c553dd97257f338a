package kernel

import (
	"errors"
	"fmt"

	"github.com/agglayer/agglayer-go/common"
)

// ErrUnknownRollup rejects submissions for rollup ids absent from the
// configured rollup set.
type ErrUnknownRollup struct {
	RollupID uint32
}

func (e *ErrUnknownRollup) Error() string {
	return fmt.Sprintf("rollup %d is not registered", e.RollupID)
}

// ErrInvalidSigner rejects submissions signed by anything other than the
// rollup's trusted sequencer.
type ErrInvalidSigner struct {
	RollupID uint32
	Expected common.Address
	Got      common.Address
}

func (e *ErrInvalidSigner) Error() string {
	return fmt.Sprintf("invalid signer for rollup %d: expected %s, got %s",
		e.RollupID, e.Expected.Hex(), e.Got.Hex())
}

// ErrBatchNotFound means the rollup node does not know the batch the proof
// claims to verify.
type ErrBatchNotFound struct {
	RollupID uint32
	Batch    uint64
}

func (e *ErrBatchNotFound) Error() string {
	return fmt.Sprintf("rollup %d has no batch %d", e.RollupID, e.Batch)
}

// ErrRootMismatch means a root claimed by the proof disagrees with the
// rollup node's view of the batch.
type ErrRootMismatch struct {
	Kind     string // "state" or "exit"
	Batch    uint64
	Claimed  common.Hash
	Expected common.Hash
}

func (e *ErrRootMismatch) Error() string {
	return fmt.Sprintf("%s root mismatch for batch %d: claimed %s, node has %s",
		e.Kind, e.Batch, e.Claimed.Hex(), e.Expected.Hex())
}

// ErrNoConsensusValidator is returned when a proof-of-consensus submission
// arrives and no consensus validator is wired in.
var ErrNoConsensusValidator = errors.New("proof of consensus submissions are not supported")

// ErrMissingConsensusProof is returned when the auth method names proof of
// consensus but the payload is absent.
var ErrMissingConsensusProof = errors.New("auth method is ProofOfConsensus but no consensus proof is attached")
