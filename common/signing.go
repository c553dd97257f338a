package common

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the byte length of a recoverable ECDSA signature [R || S || V].
const SignatureLength = 65

// SignDigest signs a 32-byte digest using the provided private key in hex format.
// The returned 65-byte signature carries the recovery id in its last byte,
// offset to 27/28 for Ethereum tooling compatibility.
func SignDigest(privateKeyHex string, digest Hash) ([]byte, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("error converting private key: %v", err)
	}

	signature, err := crypto.Sign(digest.Bytes(), privateKey)
	if err != nil {
		return nil, fmt.Errorf("error signing the digest: %v", err)
	}
	signature[SignatureLength-1] += 27

	return signature, nil
}

// RecoverSigner recovers the address that produced the given signature over digest.
// Both 0/1 and 27/28 recovery ids are accepted.
func RecoverSigner(digest Hash, signature []byte) (Address, error) {
	if len(signature) != SignatureLength {
		return Address{}, fmt.Errorf("invalid signature length: expected %d, got %d", SignatureLength, len(signature))
	}

	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[SignatureLength-1] >= 27 {
		sig[SignatureLength-1] -= 27
	}

	pubKey, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return Address{}, errors.New("error recovering public key from signature")
	}

	return Address(crypto.PubkeyToAddress(*pubKey)), nil
}
