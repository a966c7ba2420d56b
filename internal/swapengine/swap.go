// Package swapengine executes fixed-ratio swaps.
//
// Output is computed with integer-only arithmetic,
// floor(amount_in * ratio_out / ratio_in), through a 128-bit
// intermediate so the multiply cannot overflow. Floor rounding is chosen
// consistently: the pool never pays out more than the ratio allows, which
// protects vault solvency, and a swap whose floored output is zero is
// rejected outright rather than silently consuming the input.
package swapengine

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/state"
)

// Engine performs swap operations.
type Engine struct {
	// fee is the fixed lamport contract fee per swap, independent of size.
	fee uint64
	log *slog.Logger
}

// NewEngine creates an Engine charging the given swap fee.
func NewEngine(fee uint64, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{fee: fee, log: log}
}

// Accounts carries the resolved accounts for one swap.
type Accounts struct {
	User        solana.PublicKey // signer and fee payer
	SystemState solana.PublicKey
	PoolState   solana.PublicKey
	UserIn      solana.PublicKey // user's account for the input token
	UserOut     solana.PublicKey // user's account for the output token
}

// Quote computes floor(amountIn * ratioOut / ratioIn) with a 128-bit
// intermediate. Fails only if the floored result does not fit in u64.
func Quote(amountIn, ratioIn, ratioOut uint64) (uint64, error) {
	if ratioIn == 0 || ratioOut == 0 {
		return 0, errors.ErrInvalidRatio
	}
	out := uint128.From64(amountIn).Mul64(ratioOut).Div64(ratioIn)
	if out.Hi != 0 {
		return 0, errors.ErrArithmeticOverflow
	}
	return out.Lo, nil
}

// Swap converts amountIn of the input token into the output token at the
// pool's fixed ratio. All balance changes and the contract fee commit
// together through the shared Tx.
func (e *Engine) Swap(tx *ledger.Tx, acc Accounts, inputMint solana.PublicKey, amountIn uint64) error {
	if amountIn == 0 {
		return errors.ErrZeroAmount
	}

	sys, err := state.LoadSystem(tx, acc.SystemState)
	if err != nil {
		return err
	}
	if sys.IsPaused {
		return errors.ErrSystemPaused
	}
	pool, err := state.LoadPool(tx, acc.PoolState)
	if err != nil {
		return err
	}
	if pool.SwapsPaused() {
		return errors.ErrPoolSwapsPaused
	}
	if pool.OwnerOnlySwaps() && !pool.DesignatedOwner.Equals(acc.User) {
		return errors.ErrOwnerOnlySwaps
	}

	var (
		inVault, outVault solana.PublicKey
		ratioIn, ratioOut uint64
		inputIsA          bool
	)
	switch {
	case pool.TokenAMint.Equals(inputMint):
		inVault, outVault = pool.TokenAVault, pool.TokenBVault
		ratioIn, ratioOut = pool.RatioANumerator, pool.RatioBDenominator
		inputIsA = true
	case pool.TokenBMint.Equals(inputMint):
		inVault, outVault = pool.TokenBVault, pool.TokenAVault
		ratioIn, ratioOut = pool.RatioBDenominator, pool.RatioANumerator
	default:
		return errors.ErrInvalidMint
	}

	amountOut, err := Quote(amountIn, ratioIn, ratioOut)
	if err != nil {
		return err
	}
	if amountOut == 0 {
		return errors.ErrDustOutput
	}

	out := tx.Token(outVault)
	if out == nil || out.Amount < amountOut {
		return errors.ErrInsufficientLiquidity
	}

	if err := tx.TransferLamports(acc.User, acc.PoolState, e.fee); err != nil {
		return err
	}
	pool.AddSwapContractFee(e.fee)

	if err := tx.TransferTokens(acc.UserIn, inVault, amountIn); err != nil {
		return err
	}
	if err := tx.TransferTokens(outVault, acc.UserOut, amountOut); err != nil {
		return err
	}

	if inputIsA {
		pool.TotalTokenALiquidity += amountIn
		pool.TotalTokenBLiquidity -= amountOut
	} else {
		pool.TotalTokenBLiquidity += amountIn
		pool.TotalTokenALiquidity -= amountOut
	}
	if err := state.StorePool(tx, acc.PoolState, pool); err != nil {
		return err
	}

	e.log.Info("swap",
		"pool", acc.PoolState.String(),
		"input_mint", inputMint.String(),
		"amount_in", amountIn,
		"amount_out", amountOut)
	return nil
}
