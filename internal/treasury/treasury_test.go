package treasury

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/config"
	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/state"
)

const startTime = int64(1700000000)

var testProgramID = solana.MustPublicKeyFromBase58("quXSYkeZ8ByTCtYY1J1uxQmE36UZ3LmNGgE3CYMFixD")

func testKey(seed byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = seed
	}
	return k
}

type fixture struct {
	led *ledger.Ledger
	acc *Accountant

	systemKey   solana.PublicKey
	treasuryKey solana.PublicKey
	admin       solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		led:         ledger.New(),
		acc:         NewAccountant(config.DefaultWithdrawalCooldown, nil),
		systemKey:   testKey(10),
		treasuryKey: testKey(11),
		admin:       testKey(1),
	}

	tx := f.led.Begin()
	tx.CreateAccount(f.systemKey, testProgramID)
	if err := state.StoreSystem(tx, f.systemKey, state.NewSystemState(f.admin)); err != nil {
		t.Fatalf("StoreSystem failed: %v", err)
	}
	tx.CreateAccount(f.treasuryKey, testProgramID)
	if err := state.StoreTreasury(tx, f.treasuryKey, state.NewMainTreasuryState()); err != nil {
		t.Fatalf("StoreTreasury failed: %v", err)
	}
	tx.Commit()
	return f
}

// seedPool creates a minimal pool record holding pending fees, with
// matching lamports on the pool account.
func (f *fixture) seedPool(t *testing.T, seed byte, liquidityFees, swapFees uint64, flags uint8) solana.PublicKey {
	t.Helper()

	key := testKey(seed)
	pool := &state.PoolState{
		Owner:      testKey(2),
		TokenAMint: testKey(seed + 100),
		TokenBMint: testKey(seed + 101),
		Flags:      flags,
	}
	pool.AddLiquidityFee(liquidityFees)
	pool.AddSwapContractFee(swapFees)

	tx := f.led.Begin()
	acc := tx.CreateAccount(key, testProgramID)
	acc.Lamports = liquidityFees + swapFees
	if err := state.StorePool(tx, key, pool); err != nil {
		t.Fatalf("StorePool failed: %v", err)
	}
	tx.Commit()
	return key
}

func (f *fixture) treasury(t *testing.T) *state.MainTreasuryState {
	t.Helper()
	treas, err := state.LoadTreasury(f.led.Begin(), f.treasuryKey)
	if err != nil {
		t.Fatalf("LoadTreasury failed: %v", err)
	}
	return treas
}

func (f *fixture) pauseSystem(t *testing.T) {
	t.Helper()
	tx := f.led.Begin()
	sys, err := state.LoadSystem(tx, f.systemKey)
	if err != nil {
		t.Fatalf("LoadSystem failed: %v", err)
	}
	sys.Pause(1, startTime)
	if err := state.StoreSystem(tx, f.systemKey, sys); err != nil {
		t.Fatalf("StoreSystem failed: %v", err)
	}
	tx.Commit()
}

func TestConsolidateSweepsPausedPool(t *testing.T) {
	f := newFixture(t)
	poolKey := f.seedPool(t, 20, 2_600_000, 25_000, state.FlagLiquidityPaused|state.FlagSwapsPaused)

	tx := f.led.Begin()
	if err := f.acc.Consolidate(tx, f.systemKey, f.treasuryKey, []solana.PublicKey{poolKey}, startTime); err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	tx.Commit()

	if got := f.led.Lamports(f.treasuryKey); got != 2_625_000 {
		t.Errorf("Treasury lamports = %d, want 2625000", got)
	}
	if got := f.led.Lamports(poolKey); got != 0 {
		t.Errorf("Pool lamports = %d, want 0", got)
	}

	treas := f.treasury(t)
	if treas.TotalLiquidityFees != 2_600_000 || treas.TotalSwapFees != 25_000 {
		t.Errorf("Fee split wrong: %+v", treas)
	}
	if treas.ConsolidationCount != 1 {
		t.Errorf("ConsolidationCount = %d, want 1", treas.ConsolidationCount)
	}

	pool, err := state.LoadPool(f.led.Begin(), poolKey)
	if err != nil {
		t.Fatalf("LoadPool failed: %v", err)
	}
	if pool.PendingFees() != 0 {
		t.Errorf("Pending fees = %d after sweep", pool.PendingFees())
	}
	if pool.TotalConsolidations != 1 || pool.TotalFeesConsolidated != 2_625_000 {
		t.Errorf("Pool consolidation counters wrong: %+v", pool)
	}
}

func TestConsolidateSkipsActivePool(t *testing.T) {
	f := newFixture(t)
	active := f.seedPool(t, 20, 1_000_000, 0, 0)
	partial := f.seedPool(t, 21, 1_000_000, 0, state.FlagSwapsPaused)

	tx := f.led.Begin()
	if err := f.acc.Consolidate(tx, f.systemKey, f.treasuryKey, []solana.PublicKey{active, partial}, startTime); err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	tx.Commit()

	// Neither pool is fully paused, so nothing moves.
	if got := f.led.Lamports(f.treasuryKey); got != 0 {
		t.Errorf("Treasury lamports = %d, want 0", got)
	}
	if got := f.led.Lamports(active); got != 1_000_000 {
		t.Errorf("Active pool lamports = %d, want 1000000", got)
	}
}

func TestConsolidateSweepsAllWhileSystemPaused(t *testing.T) {
	f := newFixture(t)
	active := f.seedPool(t, 20, 1_000_000, 0, 0)
	f.pauseSystem(t)

	tx := f.led.Begin()
	if err := f.acc.Consolidate(tx, f.systemKey, f.treasuryKey, []solana.PublicKey{active}, startTime); err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	tx.Commit()

	if got := f.led.Lamports(f.treasuryKey); got != 1_000_000 {
		t.Errorf("Treasury lamports = %d, want 1000000", got)
	}
}

func TestConsolidateBatchBounds(t *testing.T) {
	f := newFixture(t)

	tx := f.led.Begin()
	if err := f.acc.Consolidate(tx, f.systemKey, f.treasuryKey, nil, startTime); !errors.Is(err, errors.ErrInvalidPoolCount) {
		t.Errorf("Empty batch: expected ErrInvalidPoolCount, got %v", err)
	}

	tooMany := make([]solana.PublicKey, MaxConsolidationBatch+1)
	if err := f.acc.Consolidate(tx, f.systemKey, f.treasuryKey, tooMany, startTime); !errors.Is(err, errors.ErrInvalidPoolCount) {
		t.Errorf("Oversized batch: expected ErrInvalidPoolCount, got %v", err)
	}
}

func TestWithdrawCooldown(t *testing.T) {
	f := newFixture(t)
	recipient := testKey(30)

	// Fund the treasury through a donation.
	donor := testKey(31)
	f.led.CreateFunded(donor, 10_000_000)
	tx := f.led.Begin()
	if err := f.acc.Donate(tx, f.treasuryKey, donor, 10_000_000, startTime); err != nil {
		t.Fatalf("Donate failed: %v", err)
	}
	tx.Commit()

	tx = f.led.Begin()
	if err := f.acc.Withdraw(tx, f.systemKey, f.treasuryKey, f.admin, recipient, 1_000_000, startTime); err != nil {
		t.Fatalf("First withdrawal failed: %v", err)
	}
	tx.Commit()

	// One second before the cooldown elapses.
	tx = f.led.Begin()
	err := f.acc.Withdraw(tx, f.systemKey, f.treasuryKey, f.admin, recipient, 1_000_000, startTime+config.DefaultWithdrawalCooldown-1)
	if !errors.Is(err, errors.ErrCooldownActive) {
		t.Fatalf("Expected ErrCooldownActive, got %v", err)
	}

	// Exactly at the boundary.
	tx = f.led.Begin()
	if err := f.acc.Withdraw(tx, f.systemKey, f.treasuryKey, f.admin, recipient, 1_000_000, startTime+config.DefaultWithdrawalCooldown); err != nil {
		t.Fatalf("Withdrawal at boundary failed: %v", err)
	}
	tx.Commit()

	if got := f.led.Lamports(recipient); got != 2_000_000 {
		t.Errorf("Recipient lamports = %d, want 2000000", got)
	}
}

func TestWithdrawZeroMeansAll(t *testing.T) {
	f := newFixture(t)
	recipient := testKey(30)
	donor := testKey(31)
	f.led.CreateFunded(donor, 5_000_000)

	tx := f.led.Begin()
	if err := f.acc.Donate(tx, f.treasuryKey, donor, 5_000_000, startTime); err != nil {
		t.Fatalf("Donate failed: %v", err)
	}
	if err := f.acc.Withdraw(tx, f.systemKey, f.treasuryKey, f.admin, recipient, 0, startTime); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	tx.Commit()

	if got := f.led.Lamports(recipient); got != 5_000_000 {
		t.Errorf("Recipient lamports = %d, want 5000000", got)
	}
	if f.treasury(t).TotalBalance != 0 {
		t.Errorf("Treasury balance = %d, want 0", f.treasury(t).TotalBalance)
	}
}

func TestWithdrawRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	tx := f.led.Begin()
	err := f.acc.Withdraw(tx, f.systemKey, f.treasuryKey, testKey(50), testKey(30), 100, startTime)
	if !errors.Is(err, errors.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestWithdrawFromEmptyTreasury(t *testing.T) {
	f := newFixture(t)

	tx := f.led.Begin()
	err := f.acc.Withdraw(tx, f.systemKey, f.treasuryKey, f.admin, testKey(30), 0, startTime)
	if !errors.Is(err, errors.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
}

func TestDonateBypassesPauseAndCooldown(t *testing.T) {
	f := newFixture(t)
	f.pauseSystem(t)

	donor := testKey(31)
	f.led.CreateFunded(donor, 1_000)

	tx := f.led.Begin()
	if err := f.acc.Donate(tx, f.treasuryKey, donor, 1_000, startTime); err != nil {
		t.Fatalf("Donate under system pause failed: %v", err)
	}
	tx.Commit()

	treas := f.treasury(t)
	if treas.TotalDonations != 1_000 || treas.DonationCount != 1 {
		t.Errorf("Donation counters wrong: %+v", treas)
	}
}

func TestDonateZeroRejected(t *testing.T) {
	f := newFixture(t)

	tx := f.led.Begin()
	if err := f.acc.Donate(tx, f.treasuryKey, testKey(31), 0, startTime); !errors.Is(err, errors.ErrZeroAmount) {
		t.Errorf("Expected ErrZeroAmount, got %v", err)
	}
}
