package state

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Pool state flags, combined bitwise in PoolState.Flags.
const (
	// FlagOneToManyRatio marks pools whose ratio has 1 on one side.
	FlagOneToManyRatio uint8 = 1 << 0

	// FlagLiquidityPaused blocks deposits and withdrawals.
	FlagLiquidityPaused uint8 = 1 << 1

	// FlagSwapsPaused blocks swaps.
	FlagSwapsPaused uint8 = 1 << 2

	// FlagOwnerOnlySwaps restricts swaps to the designated owner.
	FlagOwnerOnlySwaps uint8 = 1 << 5
)

// PauseFlagAll is the flag set covering both pausable operation groups.
const PauseFlagAll = FlagLiquidityPaused | FlagSwapsPaused

// PoolState is the per-pool record. The mint pair is canonically ordered
// (TokenAMint < TokenBMint bytewise) and the ratio is immutable after
// creation. Reserve totals always equal the outstanding supply of the
// matching LP mint.
type PoolState struct {
	// Owner is the account that created the pool and controls its pause flags.
	Owner solana.PublicKey

	TokenAMint solana.PublicKey
	TokenBMint solana.PublicKey

	TokenAVault solana.PublicKey
	TokenBVault solana.PublicKey

	LpTokenAMint solana.PublicKey
	LpTokenBMint solana.PublicKey

	// RatioANumerator : RatioBDenominator is the fixed exchange ratio in
	// basis points of each token.
	RatioANumerator   uint64
	RatioBDenominator uint64

	TotalTokenALiquidity uint64
	TotalTokenBLiquidity uint64

	PoolAuthorityBump uint8
	TokenAVaultBump   uint8
	TokenBVaultBump   uint8
	LpTokenAMintBump  uint8
	LpTokenBMintBump  uint8

	Flags uint8

	// DesignatedOwner may swap when FlagOwnerOnlySwaps is set. It can
	// differ from Owner; the admin authority assigns it.
	DesignatedOwner solana.PublicKey

	// Pending lamport fees collected locally, swept by consolidation.
	CollectedLiquidityFees    uint64
	CollectedSwapContractFees uint64

	// Lifetime fee accounting; never reset.
	TotalSolFeesCollected uint64

	LastConsolidationTimestamp int64
	TotalConsolidations        uint64
	TotalFeesConsolidated      uint64
}

// PoolStateLen is the serialized size of PoolState.
const PoolStateLen = 7*32 + 4*8 + 6*1 + 32 + 3*8 + 8 + 2*8

// HasFlag reports whether all bits in mask are set.
func (p *PoolState) HasFlag(mask uint8) bool {
	return p.Flags&mask == mask
}

// SetFlags sets the bits in mask. Setting an already-set flag is a no-op.
func (p *PoolState) SetFlags(mask uint8) {
	p.Flags |= mask
}

// ClearFlags clears the bits in mask.
func (p *PoolState) ClearFlags(mask uint8) {
	p.Flags &^= mask
}

// LiquidityPaused reports whether deposits and withdrawals are blocked.
func (p *PoolState) LiquidityPaused() bool {
	return p.HasFlag(FlagLiquidityPaused)
}

// SwapsPaused reports whether swaps are blocked.
func (p *PoolState) SwapsPaused() bool {
	return p.HasFlag(FlagSwapsPaused)
}

// FullyPaused reports whether both operation groups are paused, which
// makes the pool eligible for fee consolidation while the system is live.
func (p *PoolState) FullyPaused() bool {
	return p.HasFlag(PauseFlagAll)
}

// OwnerOnlySwaps reports whether swaps are restricted to DesignatedOwner.
func (p *PoolState) OwnerOnlySwaps() bool {
	return p.HasFlag(FlagOwnerOnlySwaps)
}

// ContainsMint reports whether mint is one of the pool's two token mints.
func (p *PoolState) ContainsMint(mint solana.PublicKey) bool {
	return p.TokenAMint.Equals(mint) || p.TokenBMint.Equals(mint)
}

// PendingFees returns the lamport fees awaiting consolidation.
func (p *PoolState) PendingFees() uint64 {
	return p.CollectedLiquidityFees + p.CollectedSwapContractFees
}

// AddLiquidityFee records a deposit/withdrawal fee collected on the pool.
func (p *PoolState) AddLiquidityFee(amount uint64) {
	p.CollectedLiquidityFees += amount
	p.TotalSolFeesCollected += amount
}

// AddSwapContractFee records a swap contract fee collected on the pool.
func (p *PoolState) AddSwapContractFee(amount uint64) {
	p.CollectedSwapContractFees += amount
	p.TotalSolFeesCollected += amount
}

// DrainPendingFees zeroes the pending counters and records the sweep,
// returning the amount moved. Draining a pool with nothing pending
// returns zero without touching the consolidation counters.
func (p *PoolState) DrainPendingFees(now int64) uint64 {
	swept := p.PendingFees()
	if swept == 0 {
		return 0
	}
	p.CollectedLiquidityFees = 0
	p.CollectedSwapContractFees = 0
	p.TotalFeesConsolidated += swept
	p.TotalConsolidations++
	p.LastConsolidationTimestamp = now
	return swept
}

// Marshal serializes the record with Borsh.
func (p *PoolState) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePoolState deserializes a PoolState record.
func DecodePoolState(data []byte) (*PoolState, error) {
	p := new(PoolState)
	if err := bin.NewBorshDecoder(data).Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}
