package pda

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

var testProgramID = solana.MustPublicKeyFromBase58("quXSYkeZ8ByTCtYY1J1uxQmE36UZ3LmNGgE3CYMFixD")

func testKey(seed byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = seed
	}
	return k
}

func TestCanonicalOrder(t *testing.T) {
	low, high := testKey(1), testKey(2)

	tests := []struct {
		name    string
		x, y    solana.PublicKey
		swapped bool
	}{
		{"already ordered", low, high, false},
		{"reversed", high, low, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, swapped := CanonicalOrder(tt.x, tt.y)
			if swapped != tt.swapped {
				t.Errorf("swapped = %v, want %v", swapped, tt.swapped)
			}
			if !a.Equals(low) || !b.Equals(high) {
				t.Errorf("Expected (%s, %s), got (%s, %s)", low, high, a, b)
			}
		})
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	d := NewDeriver(testProgramID)
	mintA, mintB := testKey(1), testKey(2)

	first, err := d.DerivePoolAddresses(mintA, mintB)
	if err != nil {
		t.Fatalf("DerivePoolAddresses failed: %v", err)
	}
	second, err := d.DerivePoolAddresses(mintA, mintB)
	if err != nil {
		t.Fatalf("DerivePoolAddresses failed: %v", err)
	}
	if *first != *second {
		t.Errorf("Same inputs produced different addresses: %+v vs %+v", first, second)
	}
}

func TestRolesDeriveDistinctAddresses(t *testing.T) {
	d := NewDeriver(testProgramID)
	mintA, mintB := testKey(1), testKey(2)

	pa, err := d.DerivePoolAddresses(mintA, mintB)
	if err != nil {
		t.Fatalf("DerivePoolAddresses failed: %v", err)
	}
	systemKey, _, err := d.SystemState()
	if err != nil {
		t.Fatalf("SystemState failed: %v", err)
	}
	treasuryKey, _, err := d.MainTreasury()
	if err != nil {
		t.Fatalf("MainTreasury failed: %v", err)
	}

	keys := []solana.PublicKey{
		pa.PoolState, pa.TokenAVault, pa.TokenBVault, pa.LpMintA, pa.LpMintB,
		systemKey, treasuryKey,
	}
	seen := make(map[solana.PublicKey]bool)
	for _, k := range keys {
		if seen[k] {
			t.Errorf("Duplicate derived address %s", k)
		}
		seen[k] = true
	}
}

func TestDistinctPairsDeriveDistinctPools(t *testing.T) {
	d := NewDeriver(testProgramID)

	first, _, err := d.PoolState(testKey(1), testKey(2))
	if err != nil {
		t.Fatalf("PoolState failed: %v", err)
	}
	second, _, err := d.PoolState(testKey(1), testKey(3))
	if err != nil {
		t.Fatalf("PoolState failed: %v", err)
	}
	if first.Equals(second) {
		t.Error("Different mint pairs derived the same pool address")
	}
}

func TestProgramIDScopesDerivation(t *testing.T) {
	other := solana.NewWallet().PublicKey()

	first, _, err := NewDeriver(testProgramID).PoolState(testKey(1), testKey(2))
	if err != nil {
		t.Fatalf("PoolState failed: %v", err)
	}
	second, _, err := NewDeriver(other).PoolState(testKey(1), testKey(2))
	if err != nil {
		t.Fatalf("PoolState failed: %v", err)
	}
	if first.Equals(second) {
		t.Error("Different program ids derived the same pool address")
	}
}
