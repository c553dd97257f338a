// Package settlement submits verified proofs to the rollup manager contract
// on the settlement chain, and dry-runs the same call for cheap failure
// detection.
package settlement

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/agglayer/agglayer-go/common"
	"github.com/agglayer/agglayer-go/log"
	"github.com/agglayer/agglayer-go/signer"
	"github.com/agglayer/agglayer-go/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// EthClient is the slice of the Ethereum JSON-RPC client the backend needs.
// *ethclient.Client satisfies it.
type EthClient interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*ethtypes.Receipt, error)
}

// Receipt identifies a settled submission on the settlement chain.
type Receipt struct {
	TransactionHash common.Hash
}

const rollupManagerABI = `[{
	"name": "verifyBatchesTrustedAggregator",
	"type": "function",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "rollupID", "type": "uint32"},
		{"name": "pendingStateNum", "type": "uint64"},
		{"name": "initNumBatch", "type": "uint64"},
		{"name": "finalNewBatch", "type": "uint64"},
		{"name": "newLocalExitRoot", "type": "bytes32"},
		{"name": "newStateRoot", "type": "bytes32"},
		{"name": "beneficiary", "type": "address"},
		{"name": "proof", "type": "bytes32[24]"}
	],
	"outputs": []
}]`

var rollupManager abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(rollupManagerABI))
	if err != nil {
		panic(fmt.Sprintf("rollup manager ABI: %v", err))
	}
	rollupManager = parsed
}

// Backend drives the rollup manager contract with the gateway's signer.
type Backend struct {
	client       EthClient
	contract     ethcommon.Address
	signer       *signer.Signer
	pollInterval time.Duration
}

func NewBackend(client EthClient, contract common.Address, s *signer.Signer) *Backend {
	return &Backend{
		client:       client,
		contract:     ethcommon.Address(contract),
		signer:       s,
		pollInterval: 2 * time.Second,
	}
}

func (b *Backend) packVerifyCall(tx *types.SignedTx) ([]byte, error) {
	proof := tx.Tx.ZKP.Proof.ToFixedBytes()
	return rollupManager.Pack("verifyBatchesTrustedAggregator",
		tx.Tx.RollupID,
		uint64(0), // no pending state
		uint64(tx.Tx.LastVerifiedBatch),
		uint64(tx.Tx.NewVerifiedBatch),
		[32]byte(tx.Tx.ZKP.NewLocalExitRoot),
		[32]byte(tx.Tx.ZKP.NewStateRoot),
		ethcommon.Address(b.signer.Address()),
		proof,
	)
}

// DryRun simulates the settlement call against current chain state without
// committing it.
func (b *Backend) DryRun(ctx context.Context, tx *types.SignedTx) error {
	data, err := b.packVerifyCall(tx)
	if err != nil {
		return fmt.Errorf("pack verify call: %w", err)
	}

	msg := ethereum.CallMsg{
		From: ethcommon.Address(b.signer.Address()),
		To:   &b.contract,
		Data: data,
	}
	if _, err := b.client.CallContract(ctx, msg, nil); err != nil {
		return fmt.Errorf("verify dry-run reverted: %w", err)
	}
	return nil
}

// Settle submits the verification transaction on chain and waits for its
// receipt. Cancellation is the caller's responsibility via ctx.
func (b *Backend) Settle(ctx context.Context, tx *types.SignedTx) (Receipt, error) {
	data, err := b.packVerifyCall(tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("pack verify call: %w", err)
	}

	from := ethcommon.Address(b.signer.Address())

	nonce, err := b.client.PendingNonceAt(ctx, from)
	if err != nil {
		return Receipt{}, fmt.Errorf("fetch nonce: %w", err)
	}

	tipCap, err := b.client.SuggestGasTipCap(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("suggest gas tip: %w", err)
	}

	head, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return Receipt{}, fmt.Errorf("fetch head: %w", err)
	}
	if head.BaseFee == nil {
		return Receipt{}, fmt.Errorf("settlement chain head %d has no base fee, EIP-1559 is required", head.Number)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	gas, err := b.client.EstimateGas(ctx, ethereum.CallMsg{
		From:      from,
		To:        &b.contract,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Data:      data,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("estimate gas: %w", err)
	}

	unsigned := ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		ChainID:   new(big.Int).SetUint64(b.signer.ChainID()),
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &b.contract,
		Data:      data,
	})

	signed, err := b.signer.SignTransaction(ctx, unsigned)
	if err != nil {
		return Receipt{}, err
	}

	if err := b.client.SendTransaction(ctx, signed); err != nil {
		return Receipt{}, fmt.Errorf("broadcast settlement tx: %w", err)
	}

	txHash := signed.Hash()
	log.Info(log.SettleMonitoring, "Settlement transaction broadcast",
		"hash", txHash.Hex(), "nonce", nonce, "gas", gas)

	receipt, err := b.waitReceipt(ctx, txHash)
	if err != nil {
		return Receipt{}, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return Receipt{}, fmt.Errorf("settlement tx %s reverted on chain", txHash.Hex())
	}

	return Receipt{TransactionHash: common.BytesToHash(txHash.Bytes())}, nil
}

func (b *Backend) waitReceipt(ctx context.Context, txHash ethcommon.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if err != ethereum.NotFound {
			return nil, fmt.Errorf("fetch receipt %s: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
