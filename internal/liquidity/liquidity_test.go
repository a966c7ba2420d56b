package liquidity

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/config"
	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/pda"
	"github.com/davincilabs/fixedratio/internal/registry"
	"github.com/davincilabs/fixedratio/internal/state"
)

const (
	startTime = int64(1700000000)
	userFunds = uint64(10_000_000_000)
)

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
	eng *Engine

	systemKey solana.PublicKey
	poolKey   solana.PublicKey
	admin     solana.PublicKey
	user      solana.PublicKey

	mintA solana.PublicKey
	mintB solana.PublicKey

	userTokenA solana.PublicKey
	userTokenB solana.PublicKey
	userLpA    solana.PublicKey
	userLpB    solana.PublicKey

	pool *state.PoolState
}

// newFixture builds a ledger with an initialized system, a 1:160 pool
// over two 6/9-decimal mints, and a funded user holding both tokens.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	deriver := pda.NewDeriver(testProgramID)
	systemKey, _, err := deriver.SystemState()
	if err != nil {
		t.Fatalf("SystemState derivation failed: %v", err)
	}
	treasuryKey, _, err := deriver.MainTreasury()
	if err != nil {
		t.Fatalf("MainTreasury derivation failed: %v", err)
	}

	f := &fixture{
		led:       ledger.New(),
		eng:       NewEngine(config.DefaultLiquidityFee, nil),
		systemKey: systemKey,
		admin:     testKey(1),
		user:      testKey(2),
	}
	f.mintA, f.mintB, _ = pda.CanonicalOrder(testKey(3), testKey(4))

	tx := f.led.Begin()
	tx.CreateAccount(systemKey, testProgramID)
	if err := state.StoreSystem(tx, systemKey, state.NewSystemState(f.admin)); err != nil {
		t.Fatalf("StoreSystem failed: %v", err)
	}
	tx.CreateAccount(treasuryKey, testProgramID)
	if err := state.StoreTreasury(tx, treasuryKey, state.NewMainTreasuryState()); err != nil {
		t.Fatalf("StoreTreasury failed: %v", err)
	}
	tx.Commit()

	f.led.CreateFunded(f.user, userFunds)
	f.led.CreateMint(f.mintA, solana.PublicKey{}, 6)
	f.led.CreateMint(f.mintB, solana.PublicKey{}, 9)

	reg := registry.NewRegistry(deriver, config.DefaultRegistrationFee, nil)
	addrs, err := deriver.DerivePoolAddresses(f.mintA, f.mintB)
	if err != nil {
		t.Fatalf("DerivePoolAddresses failed: %v", err)
	}
	tx = f.led.Begin()
	if err := reg.CreatePool(tx, registry.CreatePoolParams{
		Payer:             f.user,
		SystemState:       systemKey,
		PoolState:         addrs.PoolState,
		Treasury:          treasuryKey,
		MintX:             f.mintA,
		MintY:             f.mintB,
		VaultA:            addrs.TokenAVault,
		VaultB:            addrs.TokenBVault,
		LpMintA:           addrs.LpMintA,
		LpMintB:           addrs.LpMintB,
		RatioXNumerator:   1,
		RatioYDenominator: 160,
	}, startTime); err != nil {
		t.Fatalf("CreatePool failed: %v", err)
	}
	tx.Commit()
	f.poolKey = addrs.PoolState

	pool, err := state.LoadPool(f.led.Begin(), f.poolKey)
	if err != nil {
		t.Fatalf("LoadPool failed: %v", err)
	}
	f.pool = pool

	f.userTokenA, f.userTokenB = testKey(20), testKey(21)
	f.userLpA, f.userLpB = testKey(22), testKey(23)
	f.led.CreateTokenAccount(f.userTokenA, f.mintA, f.user, 1_000_000)
	f.led.CreateTokenAccount(f.userTokenB, f.mintB, f.user, 160_000_000)
	f.led.CreateTokenAccount(f.userLpA, pool.LpTokenAMint, f.user, 0)
	f.led.CreateTokenAccount(f.userLpB, pool.LpTokenBMint, f.user, 0)
	return f
}

func (f *fixture) accounts(mint solana.PublicKey) Accounts {
	acc := Accounts{
		User:        f.user,
		SystemState: f.systemKey,
		PoolState:   f.poolKey,
		UserToken:   f.userTokenA,
		UserLp:      f.userLpA,
	}
	if mint.Equals(f.mintB) {
		acc.UserToken = f.userTokenB
		acc.UserLp = f.userLpB
	}
	return acc
}

func (f *fixture) deposit(t *testing.T, mint solana.PublicKey, amount uint64) {
	t.Helper()
	tx := f.led.Begin()
	if err := f.eng.Deposit(tx, f.accounts(mint), mint, amount); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	tx.Commit()
}

func (f *fixture) reload(t *testing.T) *state.PoolState {
	t.Helper()
	pool, err := state.LoadPool(f.led.Begin(), f.poolKey)
	if err != nil {
		t.Fatalf("LoadPool failed: %v", err)
	}
	return pool
}

func TestDepositMintsLpOneToOne(t *testing.T) {
	f := newFixture(t)

	f.deposit(t, f.mintA, 500_000)

	if got := f.led.TokenBalance(f.userLpA); got != 500_000 {
		t.Errorf("User LP balance = %d, want 500000", got)
	}
	if got := f.led.TokenBalance(f.pool.TokenAVault); got != 500_000 {
		t.Errorf("Vault balance = %d, want 500000", got)
	}
	if got := f.led.MintSupply(f.pool.LpTokenAMint); got != 500_000 {
		t.Errorf("LP supply = %d, want 500000", got)
	}

	pool := f.reload(t)
	if pool.TotalTokenALiquidity != 500_000 {
		t.Errorf("TotalTokenALiquidity = %d, want 500000", pool.TotalTokenALiquidity)
	}
	if pool.CollectedLiquidityFees != config.DefaultLiquidityFee {
		t.Errorf("CollectedLiquidityFees = %d, want %d", pool.CollectedLiquidityFees, config.DefaultLiquidityFee)
	}
}

func TestDepositChargesFeeToPool(t *testing.T) {
	f := newFixture(t)
	before := f.led.Lamports(f.user)
	poolBefore := f.led.Lamports(f.poolKey)

	f.deposit(t, f.mintB, 1_000)

	if got := f.led.Lamports(f.user); got != before-config.DefaultLiquidityFee {
		t.Errorf("User lamports = %d, want %d", got, before-config.DefaultLiquidityFee)
	}
	if got := f.led.Lamports(f.poolKey); got != poolBefore+config.DefaultLiquidityFee {
		t.Errorf("Pool lamports = %d, want %d", got, poolBefore+config.DefaultLiquidityFee)
	}
}

func TestWithdrawRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, f.mintA, 750_000)
	tokensBefore := f.led.TokenBalance(f.userTokenA)

	tx := f.led.Begin()
	if err := f.eng.Withdraw(tx, f.accounts(f.mintA), f.mintA, 750_000); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	tx.Commit()

	if got := f.led.TokenBalance(f.userTokenA); got != tokensBefore+750_000 {
		t.Errorf("User tokens = %d, want %d", got, tokensBefore+750_000)
	}
	if got := f.led.TokenBalance(f.pool.TokenAVault); got != 0 {
		t.Errorf("Vault balance = %d, want 0", got)
	}
	if got := f.led.MintSupply(f.pool.LpTokenAMint); got != 0 {
		t.Errorf("LP supply = %d, want 0", got)
	}
	if pool := f.reload(t); pool.TotalTokenALiquidity != 0 {
		t.Errorf("TotalTokenALiquidity = %d, want 0", pool.TotalTokenALiquidity)
	}
}

// The reserve invariant: every vault balance equals the outstanding
// supply of its LP mint, at every commit point.
func TestReserveInvariant(t *testing.T) {
	f := newFixture(t)

	check := func(step string) {
		t.Helper()
		pool := f.reload(t)
		if vault, supply := f.led.TokenBalance(pool.TokenAVault), f.led.MintSupply(pool.LpTokenAMint); vault != supply {
			t.Errorf("%s: side A vault %d != LP supply %d", step, vault, supply)
		}
		if vault, supply := f.led.TokenBalance(pool.TokenBVault), f.led.MintSupply(pool.LpTokenBMint); vault != supply {
			t.Errorf("%s: side B vault %d != LP supply %d", step, vault, supply)
		}
	}

	f.deposit(t, f.mintA, 100_000)
	check("after deposit A")
	f.deposit(t, f.mintB, 16_000_000)
	check("after deposit B")

	tx := f.led.Begin()
	if err := f.eng.Withdraw(tx, f.accounts(f.mintA), f.mintA, 40_000); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	tx.Commit()
	check("after partial withdraw A")
}

func TestWithdrawMoreThanLpBalance(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, f.mintA, 1_000)

	tx := f.led.Begin()
	err := f.eng.Withdraw(tx, f.accounts(f.mintA), f.mintA, 2_000)
	if !errors.Is(err, errors.ErrInsufficientLpBalance) {
		t.Errorf("Expected ErrInsufficientLpBalance, got %v", err)
	}
}

func TestZeroAmountRejected(t *testing.T) {
	f := newFixture(t)

	tx := f.led.Begin()
	if err := f.eng.Deposit(tx, f.accounts(f.mintA), f.mintA, 0); !errors.Is(err, errors.ErrZeroAmount) {
		t.Errorf("Deposit: expected ErrZeroAmount, got %v", err)
	}
	if err := f.eng.Withdraw(tx, f.accounts(f.mintA), f.mintA, 0); !errors.Is(err, errors.ErrZeroAmount) {
		t.Errorf("Withdraw: expected ErrZeroAmount, got %v", err)
	}
}

func TestForeignMintRejected(t *testing.T) {
	f := newFixture(t)
	foreign := testKey(90)

	tx := f.led.Begin()
	err := f.eng.Deposit(tx, f.accounts(f.mintA), foreign, 100)
	if !errors.Is(err, errors.ErrInvalidMint) {
		t.Errorf("Expected ErrInvalidMint, got %v", err)
	}
}

func TestLiquidityPauseGates(t *testing.T) {
	f := newFixture(t)

	// Pool-level liquidity pause.
	tx := f.led.Begin()
	pool, err := state.LoadPool(tx, f.poolKey)
	if err != nil {
		t.Fatalf("LoadPool failed: %v", err)
	}
	pool.SetFlags(state.FlagLiquidityPaused)
	if err := state.StorePool(tx, f.poolKey, pool); err != nil {
		t.Fatalf("StorePool failed: %v", err)
	}
	tx.Commit()

	tx = f.led.Begin()
	if err := f.eng.Deposit(tx, f.accounts(f.mintA), f.mintA, 100); !errors.Is(err, errors.ErrPoolPaused) {
		t.Errorf("Expected ErrPoolPaused, got %v", err)
	}

	// System pause overrides everything.
	tx = f.led.Begin()
	sys, err := state.LoadSystem(tx, f.systemKey)
	if err != nil {
		t.Fatalf("LoadSystem failed: %v", err)
	}
	sys.Pause(1, startTime)
	if err := state.StoreSystem(tx, f.systemKey, sys); err != nil {
		t.Fatalf("StoreSystem failed: %v", err)
	}
	tx.Commit()

	tx = f.led.Begin()
	if err := f.eng.Deposit(tx, f.accounts(f.mintA), f.mintA, 100); !errors.Is(err, errors.ErrSystemPaused) {
		t.Errorf("Expected ErrSystemPaused, got %v", err)
	}
}
