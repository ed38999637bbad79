package wallet

import (
	"fmt"
	"sort"

	"github.com/xecsuite/libxecpay-go/tx"
)

// SetCoins replaces the wallet's coin set, typically after a network
// refresh. Frozen markers on addresses and outpoints are preserved.
func (w *Wallet) SetCoins(coins []*tx.UTXO) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.coins = make(map[string]*tx.UTXO, len(coins))
	for _, c := range coins {
		if c != nil {
			w.coins[c.Outpoint()] = c
		}
	}
}

// AddCoin inserts or replaces one coin.
func (w *Wallet) AddCoin(c *tx.UTXO) error {
	if c == nil {
		return fmt.Errorf("%w: coin", ErrNilParam)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.coins[c.Outpoint()] = c
	return nil
}

// RemoveCoin drops a coin, typically after it is spent.
func (w *Wallet) RemoveCoin(outpoint string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.coins, outpoint)
}

// FreezeAddress excludes every coin on addr from spending.
func (w *Wallet) FreezeAddress(addr string) { w.setFrozenAddr(addr, true) }

// UnfreezeAddress lifts an address freeze.
func (w *Wallet) UnfreezeAddress(addr string) { w.setFrozenAddr(addr, false) }

func (w *Wallet) setFrozenAddr(addr string, frozen bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if frozen {
		w.frozenAddrs[addr] = true
	} else {
		delete(w.frozenAddrs, addr)
	}
}

// FreezeCoin excludes a single outpoint ("txid:n") from spending.
func (w *Wallet) FreezeCoin(outpoint string) { w.setFrozenCoin(outpoint, true) }

// UnfreezeCoin lifts a coin freeze.
func (w *Wallet) UnfreezeCoin(outpoint string) { w.setFrozenCoin(outpoint, false) }

func (w *Wallet) setFrozenCoin(outpoint string, frozen bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if frozen {
		w.frozenCoins[outpoint] = true
	} else {
		delete(w.frozenCoins, outpoint)
	}
}

// GetSpendableCoins returns deep copies of the coins eligible for spending.
// Frozen addresses and frozen outpoints are excluded. A non-empty domain
// restricts the result to coins on those addresses, the pay-from selection.
// confirmedOnly additionally drops mempool coins; payments against a
// merchant request must not chain off unconfirmed outputs.
func (w *Wallet) GetSpendableCoins(domain []string, confirmedOnly bool) []*tx.UTXO {
	w.mu.Lock()
	defer w.mu.Unlock()

	var domainSet map[string]bool
	if len(domain) > 0 {
		domainSet = make(map[string]bool, len(domain))
		for _, a := range domain {
			domainSet[a] = true
		}
	}

	var out []*tx.UTXO
	for _, c := range w.coins {
		if w.frozenAddrs[c.Address] || w.frozenCoins[c.Outpoint()] {
			continue
		}
		if domainSet != nil && !domainSet[c.Address] {
			continue
		}
		if confirmedOnly && c.Height == 0 {
			continue
		}
		out = append(out, c.Copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Outpoint() < out[j].Outpoint() })
	return out
}

// GetBalance returns the total value of all coins, frozen included.
func (w *Wallet) GetBalance() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total int64
	for _, c := range w.coins {
		total += c.Value
	}
	return total
}

// GetFrozenBalance returns the value excluded from spending by address and
// coin freezes.
func (w *Wallet) GetFrozenBalance() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total int64
	for _, c := range w.coins {
		if w.frozenAddrs[c.Address] || w.frozenCoins[c.Outpoint()] {
			total += c.Value
		}
	}
	return total
}
