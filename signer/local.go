package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/agglayer/agglayer-go/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalBackend holds an in-process ECDSA key. Intended for development and
// tests; production deployments should back the signer with an external
// signing service.
type LocalBackend struct {
	key *ecdsa.PrivateKey
}

func NewLocalBackend(privateKeyHex string) (*LocalBackend, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("error converting private key: %v", err)
	}
	return &LocalBackend{key: key}, nil
}

func (b *LocalBackend) SignDigest(_ context.Context, digest common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(digest.Bytes(), b.key)
	if err != nil {
		return nil, fmt.Errorf("error signing the digest: %v", err)
	}
	sig[common.SignatureLength-1] += 27
	return sig, nil
}

func (b *LocalBackend) Address() common.Address {
	return common.Address(crypto.PubkeyToAddress(b.key.PublicKey))
}
