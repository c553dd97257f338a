// Package signer is a thin capability wrapper around a signing authority.
// The key never leaves the backend; callers only submit digests.
package signer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/agglayer/agglayer-go/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Backend signs 32-byte digests with a key it holds. Implementations may be
// in-process (LocalBackend) or delegate to an external service such as a
// cloud KMS.
type Backend interface {
	// SignDigest returns a 65-byte recoverable signature over digest, with
	// the recovery id offset to 27/28.
	SignDigest(ctx context.Context, digest common.Hash) ([]byte, error)
	// Address returns the address controlled by the backend's key.
	Address() common.Address
}

// Signer binds a backend to a settlement chain id.
type Signer struct {
	backend Backend
	chainID uint64
}

func New(backend Backend, chainID uint64) *Signer {
	return &Signer{backend: backend, chainID: chainID}
}

// WithChainID returns a signer for the same backend on a different chain.
func (s *Signer) WithChainID(chainID uint64) *Signer {
	return &Signer{backend: s.backend, chainID: chainID}
}

func (s *Signer) Address() common.Address {
	return s.backend.Address()
}

func (s *Signer) ChainID() uint64 {
	return s.chainID
}

// SignMessage signs an arbitrary message under the EIP-191 personal-message
// scheme.
func (s *Signer) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	digest := common.Keccak256(append([]byte(prefix), message...))
	return s.backend.SignDigest(ctx, digest)
}

// SignTransaction signs an Ethereum transaction for the signer's chain.
func (s *Signer) SignTransaction(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	ethSigner := ethtypes.LatestSignerForChainID(new(big.Int).SetUint64(s.chainID))
	digest := common.BytesToHash(ethSigner.Hash(tx).Bytes())

	sig, err := s.backend.SignDigest(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if len(sig) != common.SignatureLength {
		return nil, fmt.Errorf("backend returned %d-byte signature", len(sig))
	}

	// WithSignature expects the recovery id in 0/1 form.
	normalized := make([]byte, common.SignatureLength)
	copy(normalized, sig)
	if normalized[common.SignatureLength-1] >= 27 {
		normalized[common.SignatureLength-1] -= 27
	}

	return tx.WithSignature(ethSigner, normalized)
}

// SignTypedDigest signs an EIP-712 payload given its domain separator and
// struct hash.
func (s *Signer) SignTypedDigest(ctx context.Context, domainSeparator, structHash common.Hash) ([]byte, error) {
	data := make([]byte, 0, 2+2*common.HashLength)
	data = append(data, 0x19, 0x01)
	data = append(data, domainSeparator.Bytes()...)
	data = append(data, structHash.Bytes()...)
	return s.backend.SignDigest(ctx, common.Keccak256(data))
}
