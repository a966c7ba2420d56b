package state

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
)

// MainTreasuryState is the single treasury that receives all contract
// fees. Pool creation fees and donations arrive directly; liquidity and
// swap fees accumulate on pools and arrive via consolidation. Counters
// are updated in real time as fees land.
type MainTreasuryState struct {
	// TotalBalance mirrors the treasury account's lamport balance.
	TotalBalance uint64

	// TotalWithdrawn is the lifetime sum withdrawn by the authority.
	TotalWithdrawn uint64

	// Operation counters by category.
	PoolCreationCount  uint64
	DonationCount      uint64
	ConsolidationCount uint64

	// Fee totals by category.
	TotalPoolCreationFees uint64
	TotalLiquidityFees    uint64
	TotalSwapFees         uint64
	TotalDonations        uint64

	// LastWithdrawalTimestamp gates the withdrawal cooldown.
	LastWithdrawalTimestamp int64

	LastUpdateTimestamp int64
}

// MainTreasuryStateLen is the serialized size of MainTreasuryState.
const MainTreasuryStateLen = 11 * 8

// NewMainTreasuryState creates an empty treasury record.
func NewMainTreasuryState() *MainTreasuryState {
	return &MainTreasuryState{}
}

// AddPoolCreationFee records a registration fee landing in the treasury.
func (t *MainTreasuryState) AddPoolCreationFee(amount uint64, now int64) {
	t.TotalBalance += amount
	t.PoolCreationCount++
	t.TotalPoolCreationFees += amount
	t.LastUpdateTimestamp = now
}

// AddDonation records a voluntary contribution.
func (t *MainTreasuryState) AddDonation(amount uint64, now int64) {
	t.TotalBalance += amount
	t.DonationCount++
	t.TotalDonations += amount
	t.LastUpdateTimestamp = now
}

// AddConsolidatedFees records a sweep of pool-level pending fees. The
// liquidity/swap split is tracked separately for analytics.
func (t *MainTreasuryState) AddConsolidatedFees(liquidityFees, swapFees uint64, now int64) {
	t.TotalBalance += liquidityFees + swapFees
	t.TotalLiquidityFees += liquidityFees
	t.TotalSwapFees += swapFees
	t.ConsolidationCount++
	t.LastUpdateTimestamp = now
}

// AvailableForWithdrawal returns the balance above the given floor.
func (t *MainTreasuryState) AvailableForWithdrawal(minimumBalance uint64) uint64 {
	if t.TotalBalance > minimumBalance {
		return t.TotalBalance - minimumBalance
	}
	return 0
}

// RecordWithdrawal debits the balance and stamps the cooldown clock.
// The caller must have verified the cooldown and the amount.
func (t *MainTreasuryState) RecordWithdrawal(amount uint64, now int64) {
	t.TotalBalance -= amount
	t.TotalWithdrawn += amount
	t.LastWithdrawalTimestamp = now
	t.LastUpdateTimestamp = now
}

// TotalFeesCollected sums fee income across all categories.
func (t *MainTreasuryState) TotalFeesCollected() uint64 {
	return t.TotalPoolCreationFees + t.TotalLiquidityFees + t.TotalSwapFees + t.TotalDonations
}

// TotalOperations sums operation counts across all categories.
func (t *MainTreasuryState) TotalOperations() uint64 {
	return t.PoolCreationCount + t.DonationCount + t.ConsolidationCount
}

// Marshal serializes the record with Borsh.
func (t *MainTreasuryState) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMainTreasuryState deserializes a MainTreasuryState record.
func DecodeMainTreasuryState(data []byte) (*MainTreasuryState, error) {
	t := new(MainTreasuryState)
	if err := bin.NewBorshDecoder(data).Decode(t); err != nil {
		return nil, err
	}
	return t, nil
}
