// Package keys manages ed25519 keypairs in the Solana CLI JSON format.
// The replay tooling generates throwaway keys itself; this package exists
// for signing against a real cluster, where keypairs live in files.
package keys

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

// Keypair is a signing identity. The zero value is unusable; construct
// one with Generate, FromBase58, or FromFile.
type Keypair struct {
	private solana.PrivateKey
}

// Generate creates a keypair from fresh randomness.
func Generate() *Keypair {
	return &Keypair{private: solana.NewWallet().PrivateKey}
}

// FromBase58 parses a base58-encoded private key.
func FromBase58(key string) (*Keypair, error) {
	pk, err := solana.PrivateKeyFromBase58(key)
	if err != nil {
		return nil, fmt.Errorf("decode base58 private key: %w", err)
	}
	return &Keypair{private: pk}, nil
}

// FromFile loads a keypair file. The on-disk format is the solana-keygen
// one: the 64-byte expanded private key as a JSON array of numbers.
func FromFile(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	var raw []byte
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keypair file %s: %w", path, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair file %s holds %d bytes, want %d", path, len(raw), ed25519.PrivateKeySize)
	}
	return &Keypair{private: solana.PrivateKey(raw)}, nil
}

// Save writes the keypair to path in the solana-keygen format. The file
// is created owner-readable only; it holds the private key.
func (k *Keypair) Save(path string) error {
	data, err := json.Marshal([]byte(k.private))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write keypair file %s: %w", path, err)
	}
	return nil
}

// PublicKey derives the public half of the keypair.
func (k *Keypair) PublicKey() solana.PublicKey {
	return k.private.PublicKey()
}

// Sign produces an ed25519 signature over message.
func (k *Keypair) Sign(message []byte) (solana.Signature, error) {
	return k.private.Sign(message)
}

// String renders the public key in base58; the private key never prints.
func (k *Keypair) String() string {
	return k.PublicKey().String()
}
