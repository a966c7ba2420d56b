package swapengine

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/config"
	"github.com/davincilabs/fixedratio/internal/errors"
	"github.com/davincilabs/fixedratio/internal/ledger"
	"github.com/davincilabs/fixedratio/internal/liquidity"
	"github.com/davincilabs/fixedratio/internal/pda"
	"github.com/davincilabs/fixedratio/internal/registry"
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

func TestQuote(t *testing.T) {
	tests := []struct {
		name     string
		amountIn uint64
		ratioIn  uint64
		ratioOut uint64
		want     uint64
		wantErr  *errors.ProgramError
	}{
		{"one to many", 1000, 1, 160, 160000, nil},
		{"many to one", 160000, 160, 1, 1000, nil},
		{"floors remainder", 159, 160, 1, 0, nil},
		{"uneven ratio", 7, 3, 2, 4, nil},
		{"identity", 42, 1, 1, 42, nil},
		{"huge intermediate fits", math.MaxUint64, 1000, 1000, math.MaxUint64, nil},
		{"overflow", math.MaxUint64, 1, 2, 0, errors.ErrArithmeticOverflow},
		{"zero ratio in", 10, 0, 1, 0, errors.ErrInvalidRatio},
		{"zero ratio out", 10, 1, 0, 0, errors.ErrInvalidRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quote(tt.amountIn, tt.ratioIn, tt.ratioOut)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Quote failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Quote(%d, %d, %d) = %d, want %d", tt.amountIn, tt.ratioIn, tt.ratioOut, got, tt.want)
			}
		})
	}
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

	pool *state.PoolState
}

// newFixture builds a 1:160 pool with seeded liquidity on both sides
// and a user holding both tokens.
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
		eng:       NewEngine(config.DefaultSwapFee, nil),
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

	f.led.CreateFunded(f.user, 10_000_000_000)
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
	userLpA, userLpB := testKey(22), testKey(23)
	f.led.CreateTokenAccount(f.userTokenA, f.mintA, f.user, 10_000_000)
	f.led.CreateTokenAccount(f.userTokenB, f.mintB, f.user, 1_600_000_000)
	f.led.CreateTokenAccount(userLpA, pool.LpTokenAMint, f.user, 0)
	f.led.CreateTokenAccount(userLpB, pool.LpTokenBMint, f.user, 0)

	// Seed both sides so swaps in either direction have liquidity.
	liq := liquidity.NewEngine(config.DefaultLiquidityFee, nil)
	for _, side := range []struct {
		mint      solana.PublicKey
		userToken solana.PublicKey
		userLp    solana.PublicKey
		amount    uint64
	}{
		{f.mintA, f.userTokenA, userLpA, 5_000_000},
		{f.mintB, f.userTokenB, userLpB, 800_000_000},
	} {
		tx := f.led.Begin()
		err := liq.Deposit(tx, liquidity.Accounts{
			User:        f.user,
			SystemState: systemKey,
			PoolState:   f.poolKey,
			UserToken:   side.userToken,
			UserLp:      side.userLp,
		}, side.mint, side.amount)
		if err != nil {
			t.Fatalf("Seed deposit failed: %v", err)
		}
		tx.Commit()
	}
	return f
}

func (f *fixture) accounts(inputMint solana.PublicKey) Accounts {
	acc := Accounts{
		User:        f.user,
		SystemState: f.systemKey,
		PoolState:   f.poolKey,
		UserIn:      f.userTokenA,
		UserOut:     f.userTokenB,
	}
	if inputMint.Equals(f.mintB) {
		acc.UserIn, acc.UserOut = f.userTokenB, f.userTokenA
	}
	return acc
}

func (f *fixture) reload(t *testing.T) *state.PoolState {
	t.Helper()
	pool, err := state.LoadPool(f.led.Begin(), f.poolKey)
	if err != nil {
		t.Fatalf("LoadPool failed: %v", err)
	}
	return pool
}

func TestSwapAtFixedRatio(t *testing.T) {
	f := newFixture(t)
	inBefore := f.led.TokenBalance(f.userTokenA)
	outBefore := f.led.TokenBalance(f.userTokenB)

	tx := f.led.Begin()
	if err := f.eng.Swap(tx, f.accounts(f.mintA), f.mintA, 1000); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	tx.Commit()

	if got := f.led.TokenBalance(f.userTokenA); got != inBefore-1000 {
		t.Errorf("Input balance = %d, want %d", got, inBefore-1000)
	}
	if got := f.led.TokenBalance(f.userTokenB); got != outBefore+160000 {
		t.Errorf("Output balance = %d, want %d", got, outBefore+160000)
	}

	pool := f.reload(t)
	if pool.TotalTokenALiquidity != 5_000_000+1000 {
		t.Errorf("TotalTokenALiquidity = %d", pool.TotalTokenALiquidity)
	}
	if pool.TotalTokenBLiquidity != 800_000_000-160000 {
		t.Errorf("TotalTokenBLiquidity = %d", pool.TotalTokenBLiquidity)
	}
	if pool.CollectedSwapContractFees != config.DefaultSwapFee {
		t.Errorf("CollectedSwapContractFees = %d, want %d", pool.CollectedSwapContractFees, config.DefaultSwapFee)
	}
}

func TestSwapReverseDirection(t *testing.T) {
	f := newFixture(t)
	outBefore := f.led.TokenBalance(f.userTokenA)

	tx := f.led.Begin()
	if err := f.eng.Swap(tx, f.accounts(f.mintB), f.mintB, 160_000); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	tx.Commit()

	if got := f.led.TokenBalance(f.userTokenA); got != outBefore+1000 {
		t.Errorf("Output balance = %d, want %d", got, outBefore+1000)
	}
}

func TestSwapDustRejected(t *testing.T) {
	f := newFixture(t)

	// 50 of B at 160:1 floors to zero output.
	tx := f.led.Begin()
	err := f.eng.Swap(tx, f.accounts(f.mintB), f.mintB, 50)
	if !errors.Is(err, errors.ErrDustOutput) {
		t.Errorf("Expected ErrDustOutput, got %v", err)
	}
}

func TestSwapInsufficientLiquidity(t *testing.T) {
	f := newFixture(t)

	// Output side holds 800_000_000 of B; ask for more.
	tx := f.led.Begin()
	err := f.eng.Swap(tx, f.accounts(f.mintA), f.mintA, 6_000_000)
	if !errors.Is(err, errors.ErrInsufficientLiquidity) {
		t.Errorf("Expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestSwapGates(t *testing.T) {
	f := newFixture(t)

	setFlags := func(t *testing.T, set, clear uint8) {
		t.Helper()
		tx := f.led.Begin()
		pool, err := state.LoadPool(tx, f.poolKey)
		if err != nil {
			t.Fatalf("LoadPool failed: %v", err)
		}
		pool.ClearFlags(clear)
		pool.SetFlags(set)
		if err := state.StorePool(tx, f.poolKey, pool); err != nil {
			t.Fatalf("StorePool failed: %v", err)
		}
		tx.Commit()
	}

	t.Run("swaps paused", func(t *testing.T) {
		setFlags(t, state.FlagSwapsPaused, 0)
		tx := f.led.Begin()
		if err := f.eng.Swap(tx, f.accounts(f.mintA), f.mintA, 1000); !errors.Is(err, errors.ErrPoolSwapsPaused) {
			t.Errorf("Expected ErrPoolSwapsPaused, got %v", err)
		}
		setFlags(t, 0, state.FlagSwapsPaused)
	})

	t.Run("owner only", func(t *testing.T) {
		setFlags(t, state.FlagOwnerOnlySwaps, 0)
		tx := f.led.Begin()
		pool, err := state.LoadPool(tx, f.poolKey)
		if err != nil {
			t.Fatalf("LoadPool failed: %v", err)
		}
		pool.DesignatedOwner = testKey(77)
		if err := state.StorePool(tx, f.poolKey, pool); err != nil {
			t.Fatalf("StorePool failed: %v", err)
		}
		tx.Commit()

		tx = f.led.Begin()
		if err := f.eng.Swap(tx, f.accounts(f.mintA), f.mintA, 1000); !errors.Is(err, errors.ErrOwnerOnlySwaps) {
			t.Errorf("Expected ErrOwnerOnlySwaps, got %v", err)
		}

		// Liquidity operations stay open under the swap restriction.
		liq := liquidity.NewEngine(config.DefaultLiquidityFee, nil)
		tx = f.led.Begin()
		if err := liq.Deposit(tx, liquidity.Accounts{
			User:        f.user,
			SystemState: f.systemKey,
			PoolState:   f.poolKey,
			UserToken:   f.userTokenA,
			UserLp:      testKey(22),
		}, f.mintA, 100); err != nil {
			t.Errorf("Deposit under owner-only swaps failed: %v", err)
		}
	})

	t.Run("system paused", func(t *testing.T) {
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

		tx = f.led.Begin()
		if err := f.eng.Swap(tx, f.accounts(f.mintA), f.mintA, 1000); !errors.Is(err, errors.ErrSystemPaused) {
			t.Errorf("Expected ErrSystemPaused, got %v", err)
		}
	})
}

func TestSwapZeroAmount(t *testing.T) {
	f := newFixture(t)

	tx := f.led.Begin()
	if err := f.eng.Swap(tx, f.accounts(f.mintA), f.mintA, 0); !errors.Is(err, errors.ErrZeroAmount) {
		t.Errorf("Expected ErrZeroAmount, got %v", err)
	}
}
