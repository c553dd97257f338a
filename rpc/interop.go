package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agglayer/agglayer-go/common"
	"github.com/agglayer/agglayer-go/log"
	"github.com/agglayer/agglayer-go/storage"
	"github.com/agglayer/agglayer-go/telemetry"
	"github.com/agglayer/agglayer-go/types"
	"golang.org/x/sync/errgroup"
)

// interopSendTx runs the full intake pipeline on one proof submission:
// registration check, then signature, state consistency, and dry-run
// verification concurrently, then settlement. It returns the settlement
// transaction's hash once that transaction is mined; the submission's own
// hash stays the key for interop_getTxStatus.
func (s *Server) interopSendTx(ctx context.Context, params []json.RawMessage) (interface{}, *Error) {
	if len(params) != 1 {
		return nil, invalidParamsError(fmt.Sprintf("expected 1 param, got %d", len(params)))
	}

	var tx types.SignedTx
	if err := json.Unmarshal(params[0], &tx); err != nil {
		return nil, invalidParamsError(fmt.Sprintf("malformed transaction: %v", err))
	}

	rollupID := tx.Tx.RollupID
	hash := tx.Hash()
	telemetry.Count(ctx, telemetry.SendTx, rollupID)
	log.Info(log.RpcMonitoring, "Received proof submission",
		"hash", hash.Hex(), "rollup", rollupID,
		"lastBatch", uint64(tx.Tx.LastVerifiedBatch), "newBatch", uint64(tx.Tx.NewVerifiedBatch))

	if !s.kernel.CheckRollupRegistered(rollupID) {
		log.Warn(log.RpcMonitoring, "Rejected submission for unregistered rollup",
			"hash", hash.Hex(), "rollup", rollupID)
		return nil, invalidParamsError(fmt.Sprintf("rollup %d is not registered", rollupID))
	}
	telemetry.Count(ctx, telemetry.CheckTx, rollupID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.kernel.VerifySignature(gctx, &tx); err != nil {
			return fmt.Errorf("failed to verify signature: %w", err)
		}
		telemetry.Count(gctx, telemetry.VerifySignature, rollupID)
		return nil
	})
	g.Go(func() error {
		if err := s.kernel.VerifyStateConsistency(gctx, &tx); err != nil {
			return fmt.Errorf("failed to verify proof: %w", err)
		}
		telemetry.Count(gctx, telemetry.VerifyZkp, rollupID)
		return nil
	})
	g.Go(func() error {
		if err := s.kernel.VerifyProofDryRun(gctx, &tx); err != nil {
			return fmt.Errorf("failed to execute: %w", err)
		}
		telemetry.Count(gctx, telemetry.Execute, rollupID)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Warn(log.RpcMonitoring, "Rejected proof submission",
			"hash", hash.Hex(), "rollup", rollupID, "err", err)
		return nil, invalidParamsError(err.Error())
	}

	if err := s.store.MarkPending(hash, rollupID); err != nil {
		log.Error(log.StoreMonitoring, "record pending submission", "hash", hash.Hex(), "err", err)
	}

	receipt, err := s.kernel.Settle(ctx, &tx)
	if err != nil {
		if storeErr := s.store.MarkFailed(hash, rollupID, err.Error()); storeErr != nil {
			log.Error(log.StoreMonitoring, "record failed submission", "hash", hash.Hex(), "err", storeErr)
		}
		log.Error(log.RpcMonitoring, "Failed to settle proof submission",
			"hash", hash.Hex(), "rollup", rollupID, "err", err)
		return nil, internalError(fmt.Sprintf("failed to settle: %v", err))
	}
	telemetry.Count(ctx, telemetry.Settle, rollupID)

	if err := s.store.MarkMined(hash, rollupID, receipt.TransactionHash); err != nil {
		log.Error(log.StoreMonitoring, "record mined submission", "hash", hash.Hex(), "err", err)
	}
	log.Info(log.RpcMonitoring, "Settled proof submission",
		"hash", hash.Hex(), "rollup", rollupID, "settleTx", receipt.TransactionHash.Hex())

	return receipt.TransactionHash, nil
}

type txStatusResult struct {
	Status       storage.TxStatus `json:"status"`
	SettleTxHash *common.Hash     `json:"settleTxHash,omitempty"`
	Detail       string           `json:"detail,omitempty"`
}

// interopGetTxStatus reports the settlement status of a previously submitted
// proof, keyed by its submission hash.
func (s *Server) interopGetTxStatus(params []json.RawMessage) (interface{}, *Error) {
	if len(params) != 1 {
		return nil, invalidParamsError(fmt.Sprintf("expected 1 param, got %d", len(params)))
	}

	var hash common.Hash
	if err := json.Unmarshal(params[0], &hash); err != nil {
		return nil, invalidParamsError(fmt.Sprintf("malformed hash: %v", err))
	}

	rec, found, err := s.store.Get(hash)
	if err != nil {
		return nil, internalError(fmt.Sprintf("read receipt store: %v", err))
	}
	if !found {
		return nil, invalidParamsError(fmt.Sprintf("unknown transaction %s", hash.Hex()))
	}

	return txStatusResult{
		Status:       rec.Status,
		SettleTxHash: rec.SettleTxHash,
		Detail:       rec.Detail,
	}, nil
}
