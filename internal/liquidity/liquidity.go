// Package liquidity implements deposits and withdrawals with strict 1:1
// LP issuance: depositing N basis points of a token mints exactly N of
// that side's LP token, and burning N LP tokens returns exactly N of the
// underlying. The invariant maintained on every path is that a side's
// vault balance equals the outstanding supply of its LP mint.
package liquidity

import (
	"log/slog"
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/state"
)

// Engine performs deposit and withdraw operations.
type Engine struct {
	// fee is the fixed lamport fee per liquidity operation.
	fee uint64
	log *slog.Logger
}

// NewEngine creates an Engine charging the given liquidity fee.
func NewEngine(fee uint64, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{fee: fee, log: log}
}

// Accounts carries the resolved accounts for one liquidity operation.
type Accounts struct {
	User        solana.PublicKey // signer and fee payer
	SystemState solana.PublicKey
	PoolState   solana.PublicKey
	UserToken   solana.PublicKey // user's account for the underlying token
	UserLp      solana.PublicKey // user's account for the side's LP token
}

// side resolves which pool side a mint belongs to.
type side struct {
	vault  solana.PublicKey
	lpMint solana.PublicKey
	isA    bool
}

func resolveSide(pool *state.PoolState, mint solana.PublicKey) (side, error) {
	switch {
	case pool.TokenAMint.Equals(mint):
		return side{vault: pool.TokenAVault, lpMint: pool.LpTokenAMint, isA: true}, nil
	case pool.TokenBMint.Equals(mint):
		return side{vault: pool.TokenBVault, lpMint: pool.LpTokenBMint, isA: false}, nil
	default:
		return side{}, errors.ErrInvalidMint
	}
}

// gate rejects the operation if the system or the pool's liquidity
// operations are paused.
func gate(tx *ledger.Tx, acc Accounts) (*state.PoolState, error) {
	sys, err := state.LoadSystem(tx, acc.SystemState)
	if err != nil {
		return nil, err
	}
	if sys.IsPaused {
		return nil, errors.ErrSystemPaused
	}
	pool, err := state.LoadPool(tx, acc.PoolState)
	if err != nil {
		return nil, err
	}
	if pool.LiquidityPaused() {
		return nil, errors.ErrPoolPaused
	}
	return pool, nil
}

// Deposit moves amount of the chosen token into its vault and mints the
// same amount of that side's LP token to the user. The token transfer,
// LP mint, fee, and pool bookkeeping share one Tx.
func (e *Engine) Deposit(tx *ledger.Tx, acc Accounts, depositMint solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return errors.ErrZeroAmount
	}
	pool, err := gate(tx, acc)
	if err != nil {
		return err
	}
	s, err := resolveSide(pool, depositMint)
	if err != nil {
		return err
	}

	reserve := pool.TotalTokenALiquidity
	if !s.isA {
		reserve = pool.TotalTokenBLiquidity
	}
	if reserve > math.MaxUint64-amount {
		return errors.ErrArithmeticOverflow
	}

	if err := tx.TransferLamports(acc.User, acc.PoolState, e.fee); err != nil {
		return err
	}
	pool.AddLiquidityFee(e.fee)

	if err := tx.TransferTokens(acc.UserToken, s.vault, amount); err != nil {
		return err
	}
	if err := tx.MintTo(s.lpMint, acc.UserLp, amount); err != nil {
		return err
	}

	if s.isA {
		pool.TotalTokenALiquidity += amount
	} else {
		pool.TotalTokenBLiquidity += amount
	}
	if err := state.StorePool(tx, acc.PoolState, pool); err != nil {
		return err
	}

	e.log.Info("deposit",
		"pool", acc.PoolState.String(),
		"mint", depositMint.String(),
		"amount", amount)
	return nil
}

// Withdraw burns lpAmount of the side's LP token and returns the same
// amount of the underlying from the vault.
func (e *Engine) Withdraw(tx *ledger.Tx, acc Accounts, withdrawMint solana.PublicKey, lpAmount uint64) error {
	if lpAmount == 0 {
		return errors.ErrZeroAmount
	}
	pool, err := gate(tx, acc)
	if err != nil {
		return err
	}
	s, err := resolveSide(pool, withdrawMint)
	if err != nil {
		return err
	}

	if err := tx.TransferLamports(acc.User, acc.PoolState, e.fee); err != nil {
		return err
	}
	pool.AddLiquidityFee(e.fee)

	if err := tx.Burn(s.lpMint, acc.UserLp, lpAmount); err != nil {
		return err
	}

	// Should not trigger while the reserve invariant holds; checked
	// anyway so a corrupted vault can never over-distribute.
	vault := tx.Token(s.vault)
	if vault == nil || vault.Amount < lpAmount {
		return errors.ErrInsufficientVault
	}
	if err := tx.TransferTokens(s.vault, acc.UserToken, lpAmount); err != nil {
		return err
	}

	if s.isA {
		pool.TotalTokenALiquidity -= lpAmount
	} else {
		pool.TotalTokenBLiquidity -= lpAmount
	}
	if err := state.StorePool(tx, acc.PoolState, pool); err != nil {
		return err
	}

	e.log.Info("withdraw",
		"pool", acc.PoolState.String(),
		"mint", withdrawMint.String(),
		"lp_burned", lpAmount)
	return nil
}
