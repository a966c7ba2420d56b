package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/state"
)

// requireCount checks the exact account count for an instruction.
func requireCount(metas []*solana.AccountMeta, n int) error {
	if len(metas) != n {
		return errors.ErrInvalidAccountCount.WithDetails(map[string]any{
			"expected": n,
			"got":      len(metas),
		})
	}
	return nil
}

// requireSigner checks that the account signed the transaction.
func requireSigner(m *solana.AccountMeta) error {
	if !m.IsSigner {
		return errors.ErrMissingSigner.WithDetails(map[string]any{
			"account": m.PublicKey.String(),
		})
	}
	return nil
}

// requireWritable checks that the account was marked writable.
func requireWritable(m *solana.AccountMeta) error {
	if !m.IsWritable {
		return errors.ErrAccountNotWritable.WithDetails(map[string]any{
			"account": m.PublicKey.String(),
		})
	}
	return nil
}

// requireKey checks that the supplied account is the expected address
// for its role.
func requireKey(m *solana.AccountMeta, expected solana.PublicKey, role string) error {
	if !m.PublicKey.Equals(expected) {
		return errors.AddressMismatch(role, expected.String(), m.PublicKey.String())
	}
	return nil
}

// loadCheckedPool loads a pool record and verifies the supplied account
// really is the pool-state address derived from the record's own mint
// pair. A forged account holding a valid-looking record fails here.
func (e *Engine) loadCheckedPool(tx *ledger.Tx, poolKey solana.PublicKey) (*state.PoolState, error) {
	pool, err := state.LoadPool(tx, poolKey)
	if err != nil {
		return nil, err
	}
	derived, _, err := e.deriver.PoolState(pool.TokenAMint, pool.TokenBMint)
	if err != nil {
		return nil, err
	}
	if !derived.Equals(poolKey) {
		return nil, errors.AddressMismatch("pool_state", derived.String(), poolKey.String())
	}
	return pool, nil
}
