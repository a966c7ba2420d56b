// Package ledger models the account store the program executes against:
// lamport accounts carrying raw record data, SPL-style token accounts,
// and token mints. Engines mutate state only through a Tx, which stages
// every change in memory and applies nothing until Commit - a failing
// instruction simply drops its Tx, so partial effects cannot leak.
//
// The host's scheduler serializes instructions that write the same
// account, so a single mutex around Commit is the only synchronization
// the ledger needs.
package ledger

import (
	"math"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/davincilabs/fixedratio/internal/errors"
)

// Account is a lamport account, optionally carrying a serialized record.
type Account struct {
	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

func (a *Account) clone() *Account {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// TokenAccount holds a balance of one mint for one owner.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

func (t *TokenAccount) clone() *TokenAccount {
	c := *t
	return &c
}

// Mint is a fungible token mint. LP positions are ordinary balances of a
// pool's LP mints; the mint's supply is the only position bookkeeping.
type Mint struct {
	Authority solana.PublicKey
	Supply    uint64
	Decimals  uint8
}

func (m *Mint) clone() *Mint {
	c := *m
	return &c
}

// Ledger is the in-memory account store.
type Ledger struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*Account
	tokens   map[solana.PublicKey]*TokenAccount
	mints    map[solana.PublicKey]*Mint
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[solana.PublicKey]*Account),
		tokens:   make(map[solana.PublicKey]*TokenAccount),
		mints:    make(map[solana.PublicKey]*Mint),
	}
}

// CreateFunded creates an account holding lamports. Used to seed payers
// and to bootstrap genesis fixtures; engines create accounts through a Tx.
func (l *Ledger) CreateFunded(key solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[key] = &Account{Lamports: lamports}
}

// CreateMint registers a token mint.
func (l *Ledger) CreateMint(key, authority solana.PublicKey, decimals uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mints[key] = &Mint{Authority: authority, Decimals: decimals}
}

// CreateTokenAccount registers a token account with a starting balance,
// adjusting the mint supply to match. Seed fixture helper.
func (l *Ledger) CreateTokenAccount(key, mint, owner solana.PublicKey, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[key] = &TokenAccount{Mint: mint, Owner: owner, Amount: amount}
	if m, ok := l.mints[mint]; ok {
		m.Supply += amount
	}
}

// Lamports returns the lamport balance of an account, zero if absent.
func (l *Ledger) Lamports(key solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.accounts[key]; ok {
		return a.Lamports
	}
	return 0
}

// TokenBalance returns the balance of a token account, zero if absent.
func (l *Ledger) TokenBalance(key solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tokens[key]; ok {
		return t.Amount
	}
	return 0
}

// MintSupply returns the outstanding supply of a mint, zero if absent.
func (l *Ledger) MintSupply(key solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.mints[key]; ok {
		return m.Supply
	}
	return 0
}

// Begin starts a transaction. Reads copy current state on first access;
// writes stay private to the Tx until Commit.
func (l *Ledger) Begin() *Tx {
	return &Tx{
		l:        l,
		accounts: make(map[solana.PublicKey]*Account),
		tokens:   make(map[solana.PublicKey]*TokenAccount),
		mints:    make(map[solana.PublicKey]*Mint),
	}
}

// Tx stages mutations against a Ledger. A Tx that is never committed has
// no effect.
type Tx struct {
	l        *Ledger
	accounts map[solana.PublicKey]*Account
	tokens   map[solana.PublicKey]*TokenAccount
	mints    map[solana.PublicKey]*Mint
}

// Account returns the staged account for key, cloning it into the Tx on
// first access. Returns nil if the account does not exist.
func (tx *Tx) Account(key solana.PublicKey) *Account {
	if a, ok := tx.accounts[key]; ok {
		return a
	}
	tx.l.mu.Lock()
	src, ok := tx.l.accounts[key]
	tx.l.mu.Unlock()
	if !ok {
		return nil
	}
	a := src.clone()
	tx.accounts[key] = a
	return a
}

// CreateAccount stages a new empty account owned by owner. Callers check
// Exists first; which conflict that is depends on the instruction.
func (tx *Tx) CreateAccount(key, owner solana.PublicKey) *Account {
	a := &Account{Owner: owner}
	tx.accounts[key] = a
	return a
}

// Exists reports whether an account exists, staged or committed.
func (tx *Tx) Exists(key solana.PublicKey) bool {
	return tx.Account(key) != nil
}

// Token returns the staged token account for key, nil if absent.
func (tx *Tx) Token(key solana.PublicKey) *TokenAccount {
	if t, ok := tx.tokens[key]; ok {
		return t
	}
	tx.l.mu.Lock()
	src, ok := tx.l.tokens[key]
	tx.l.mu.Unlock()
	if !ok {
		return nil
	}
	t := src.clone()
	tx.tokens[key] = t
	return t
}

// CreateToken stages a new empty token account.
func (tx *Tx) CreateToken(key, mint, owner solana.PublicKey) *TokenAccount {
	t := &TokenAccount{Mint: mint, Owner: owner}
	tx.tokens[key] = t
	return t
}

// Mint returns the staged mint for key, nil if absent.
func (tx *Tx) Mint(key solana.PublicKey) *Mint {
	if m, ok := tx.mints[key]; ok {
		return m
	}
	tx.l.mu.Lock()
	src, ok := tx.l.mints[key]
	tx.l.mu.Unlock()
	if !ok {
		return nil
	}
	m := src.clone()
	tx.mints[key] = m
	return m
}

// CreateMint stages a new mint with zero supply.
func (tx *Tx) CreateMint(key, authority solana.PublicKey, decimals uint8) *Mint {
	m := &Mint{Authority: authority, Decimals: decimals}
	tx.mints[key] = m
	return m
}

// TransferLamports moves lamports between accounts with checked arithmetic.
func (tx *Tx) TransferLamports(from, to solana.PublicKey, amount uint64) error {
	src := tx.Account(from)
	if src == nil || src.Lamports < amount {
		var available uint64
		if src != nil {
			available = src.Lamports
		}
		return errors.InsufficientFunds(amount, available)
	}
	dst := tx.Account(to)
	if dst == nil {
		dst = &Account{}
		tx.accounts[to] = dst
	}
	if dst.Lamports > math.MaxUint64-amount {
		return errors.ErrArithmeticOverflow
	}
	src.Lamports -= amount
	dst.Lamports += amount
	return nil
}

// TransferTokens moves tokens between accounts of the same mint.
func (tx *Tx) TransferTokens(from, to solana.PublicKey, amount uint64) error {
	src := tx.Token(from)
	dst := tx.Token(to)
	if src == nil || dst == nil {
		return errors.ErrInvalidAccountAddress
	}
	if !src.Mint.Equals(dst.Mint) {
		return errors.ErrInvalidMint
	}
	if src.Amount < amount {
		return errors.ErrInsufficientVault
	}
	if dst.Amount > math.MaxUint64-amount {
		return errors.ErrArithmeticOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	return nil
}

// MintTo mints new tokens to dest, growing the mint's supply.
func (tx *Tx) MintTo(mint, dest solana.PublicKey, amount uint64) error {
	m := tx.Mint(mint)
	dst := tx.Token(dest)
	if m == nil || dst == nil {
		return errors.ErrInvalidAccountAddress
	}
	if !dst.Mint.Equals(mint) {
		return errors.ErrInvalidMint
	}
	if m.Supply > math.MaxUint64-amount || dst.Amount > math.MaxUint64-amount {
		return errors.ErrArithmeticOverflow
	}
	m.Supply += amount
	dst.Amount += amount
	return nil
}

// Burn destroys tokens held by src, shrinking the mint's supply.
func (tx *Tx) Burn(mint, src solana.PublicKey, amount uint64) error {
	m := tx.Mint(mint)
	holder := tx.Token(src)
	if m == nil || holder == nil {
		return errors.ErrInvalidAccountAddress
	}
	if !holder.Mint.Equals(mint) {
		return errors.ErrInvalidMint
	}
	if holder.Amount < amount {
		return errors.ErrInsufficientLpBalance
	}
	m.Supply -= amount
	holder.Amount -= amount
	return nil
}

// Commit applies every staged change to the ledger.
func (tx *Tx) Commit() {
	tx.l.mu.Lock()
	defer tx.l.mu.Unlock()
	for k, a := range tx.accounts {
		tx.l.accounts[k] = a
	}
	for k, t := range tx.tokens {
		tx.l.tokens[k] = t
	}
	for k, m := range tx.mints {
		tx.l.mints[k] = m
	}
}
