// Package kernel implements the verification pipeline run on every proof
// submission before it is settled.
package kernel

import (
	"context"
	"fmt"

	"github.com/agglayer/agglayer-go/common"
	"github.com/agglayer/agglayer-go/config"
	"github.com/agglayer/agglayer-go/log"
	"github.com/agglayer/agglayer-go/settlement"
	"github.com/agglayer/agglayer-go/types"
)

// SettlementBackend is the settlement-chain collaborator. The concrete
// implementation lives in the settlement package; the kernel only needs the
// dry-run and commit entry points.
type SettlementBackend interface {
	DryRun(ctx context.Context, tx *types.SignedTx) error
	Settle(ctx context.Context, tx *types.SignedTx) (settlement.Receipt, error)
}

// BatchFetcher reads batch records from a trusted rollup node.
type BatchFetcher interface {
	BatchByNumber(ctx context.Context, number uint64) (*Batch, error)
}

// ConsensusValidator validates proof-of-consensus attestations. The kernel
// treats the attestation as opaque; implementations own its semantics.
type ConsensusValidator interface {
	Validate(ctx context.Context, proof *types.ProofOfConsensusData, digest common.Hash) error
}

// Kernel checks proof submissions against the configured rollup set, the
// rollup nodes, and the settlement contract.
type Kernel struct {
	cfg       *config.Config
	settle    SettlementBackend
	consensus ConsensusValidator
	nodes     map[uint32]BatchFetcher
}

func New(cfg *config.Config, settle SettlementBackend) *Kernel {
	nodes := make(map[uint32]BatchFetcher, len(cfg.Rollups))
	for id, rollup := range cfg.Rollups {
		if rollup.NodeURL != "" {
			nodes[id] = NewNodeClient(rollup.NodeURL)
		}
	}
	return &Kernel{
		cfg:    cfg,
		settle: settle,
		nodes:  nodes,
	}
}

// WithConsensusValidator enables proof-of-consensus submissions.
func (k *Kernel) WithConsensusValidator(v ConsensusValidator) *Kernel {
	k.consensus = v
	return k
}

// WithBatchFetcher overrides the node client for one rollup. Used by tests
// and by deployments that front rollup nodes with a custom fetcher.
func (k *Kernel) WithBatchFetcher(rollupID uint32, f BatchFetcher) *Kernel {
	k.nodes[rollupID] = f
	return k
}

// CheckRollupRegistered reports whether the rollup id belongs to the
// configured rollup set.
func (k *Kernel) CheckRollupRegistered(rollupID uint32) bool {
	_, ok := k.cfg.Rollups[rollupID]
	return ok
}

// VerifySignature checks the submission's authentication payload against the
// rollup's configured identity. For signature auth the recovered signer must
// equal the trusted sequencer; for proof of consensus the attestation is
// handed to the consensus validator.
func (k *Kernel) VerifySignature(ctx context.Context, tx *types.SignedTx) error {
	rollup, ok := k.cfg.Rollups[tx.Tx.RollupID]
	if !ok {
		return &ErrUnknownRollup{RollupID: tx.Tx.RollupID}
	}

	switch tx.AuthMethod {
	case types.AuthMethodProofOfConsensus:
		if tx.ProofOfConsensus == nil {
			return ErrMissingConsensusProof
		}
		if k.consensus == nil {
			return ErrNoConsensusValidator
		}
		return k.consensus.Validate(ctx, tx.ProofOfConsensus, tx.Hash())
	default:
		signer, err := tx.Signer()
		if err != nil {
			return err
		}
		if signer != rollup.TrustedSequencer {
			return &ErrInvalidSigner{
				RollupID: tx.Tx.RollupID,
				Expected: rollup.TrustedSequencer,
				Got:      signer,
			}
		}
		return nil
	}
}

// VerifyStateConsistency checks the roots claimed by the proof against the
// rollup node's record of the target batch.
func (k *Kernel) VerifyStateConsistency(ctx context.Context, tx *types.SignedTx) error {
	rollupID := tx.Tx.RollupID
	node, ok := k.nodes[rollupID]
	if !ok {
		return &ErrUnknownRollup{RollupID: rollupID}
	}

	batchNumber := uint64(tx.Tx.NewVerifiedBatch)
	batch, err := node.BatchByNumber(ctx, batchNumber)
	if err != nil {
		return fmt.Errorf("fetch batch %d from rollup %d node: %w", batchNumber, rollupID, err)
	}
	if batch == nil {
		return &ErrBatchNotFound{RollupID: rollupID, Batch: batchNumber}
	}

	if batch.StateRoot != tx.Tx.ZKP.NewStateRoot {
		return &ErrRootMismatch{
			Kind:     "state",
			Batch:    batchNumber,
			Claimed:  tx.Tx.ZKP.NewStateRoot,
			Expected: batch.StateRoot,
		}
	}
	if batch.LocalExitRoot != tx.Tx.ZKP.NewLocalExitRoot {
		return &ErrRootMismatch{
			Kind:     "exit",
			Batch:    batchNumber,
			Claimed:  tx.Tx.ZKP.NewLocalExitRoot,
			Expected: batch.LocalExitRoot,
		}
	}
	return nil
}

// VerifyProofDryRun simulates the settlement call without committing it.
func (k *Kernel) VerifyProofDryRun(ctx context.Context, tx *types.SignedTx) error {
	return k.settle.DryRun(ctx, tx)
}

// Settle commits the proof to the settlement chain.
func (k *Kernel) Settle(ctx context.Context, tx *types.SignedTx) (settlement.Receipt, error) {
	hash := tx.Hash()
	log.Info(log.KernelMonitoring, "Settling proof submission",
		"hash", hash.Hex(), "rollup", tx.Tx.RollupID,
		"lastBatch", uint64(tx.Tx.LastVerifiedBatch), "newBatch", uint64(tx.Tx.NewVerifiedBatch))
	return k.settle.Settle(ctx, tx)
}
