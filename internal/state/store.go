package state

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/pkg/buffer"
)

// Record load/store helpers binding the state types to ledger accounts.
// Records live in the Data of their PDA accounts; a missing or
// undecodable record surfaces as the matching taxonomy error.

// storeRecord encodes a record through a pooled scratch buffer and copies
// the result into the account. Record sizes are fixed, so after the first
// store the account data is rewritten in place.
func storeRecord(acc *ledger.Account, size int, record any) error {
	scratch := buffer.Get(size)
	defer buffer.Put(scratch)

	w := bytes.NewBuffer(scratch[:0])
	if err := bin.NewBorshEncoder(w).Encode(record); err != nil {
		return err
	}
	if len(acc.Data) != w.Len() {
		acc.Data = make([]byte, w.Len())
	}
	copy(acc.Data, w.Bytes())
	return nil
}

// LoadSystem reads the SystemState record from its account.
func LoadSystem(tx *ledger.Tx, key solana.PublicKey) (*SystemState, error) {
	acc := tx.Account(key)
	if acc == nil || len(acc.Data) == 0 {
		return nil, errors.ErrSystemNotInitialized
	}
	s, err := DecodeSystemState(acc.Data)
	if err != nil {
		return nil, errors.ErrSystemNotInitialized.WithCause(err)
	}
	return s, nil
}

// StoreSystem writes the SystemState record back to its account.
func StoreSystem(tx *ledger.Tx, key solana.PublicKey, s *SystemState) error {
	acc := tx.Account(key)
	if acc == nil {
		return errors.ErrSystemNotInitialized
	}
	return storeRecord(acc, SystemStateLen, s)
}

// LoadPool reads a PoolState record from its account.
func LoadPool(tx *ledger.Tx, key solana.PublicKey) (*PoolState, error) {
	acc := tx.Account(key)
	if acc == nil || len(acc.Data) == 0 {
		return nil, errors.ErrPoolNotFound
	}
	p, err := DecodePoolState(acc.Data)
	if err != nil {
		return nil, errors.ErrPoolNotFound.WithCause(err)
	}
	return p, nil
}

// StorePool writes a PoolState record back to its account.
func StorePool(tx *ledger.Tx, key solana.PublicKey, p *PoolState) error {
	acc := tx.Account(key)
	if acc == nil {
		return errors.ErrPoolNotFound
	}
	return storeRecord(acc, PoolStateLen, p)
}

// LoadTreasury reads the MainTreasuryState record from its account.
func LoadTreasury(tx *ledger.Tx, key solana.PublicKey) (*MainTreasuryState, error) {
	acc := tx.Account(key)
	if acc == nil || len(acc.Data) == 0 {
		return nil, errors.ErrSystemNotInitialized
	}
	t, err := DecodeMainTreasuryState(acc.Data)
	if err != nil {
		return nil, errors.ErrSystemNotInitialized.WithCause(err)
	}
	return t, nil
}

// StoreTreasury writes the MainTreasuryState record back to its account.
func StoreTreasury(tx *ledger.Tx, key solana.PublicKey, t *MainTreasuryState) error {
	acc := tx.Account(key)
	if acc == nil {
		return errors.ErrSystemNotInitialized
	}
	return storeRecord(acc, MainTreasuryStateLen, t)
}
