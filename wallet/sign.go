package wallet

import (
	"fmt"

	"github.com/xecsuite/libxecpay-go/tx"
)

// SignTransaction attaches the wallet's private keys to the inputs it owns
// and signs the transaction in place.
//
// If the wallet is locked the password is used to unlock it for the
// duration of the call; with useCache the master key stays in memory
// afterwards, otherwise the wallet is locked again. Inputs on addresses
// the wallet does not own are left unsigned, so the result may report
// IsComplete false for co-signing setups.
func (w *Wallet) SignTransaction(t *tx.Transaction, password string, useCache bool) error {
	if t == nil {
		return fmt.Errorf("%w: transaction", ErrNilParam)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.masterKey == nil {
		if err := w.unlockLocked(password); err != nil {
			return err
		}
	}
	if !useCache {
		defer func() { w.masterKey = nil }()
	}

	for _, coin := range t.Inputs {
		da, mine := w.addrs[coin.Address]
		if !mine {
			continue
		}
		kp, err := w.deriveKeyLocked(da.chain, da.index)
		if err != nil {
			return err
		}
		coin.PrivateKey = kp.PrivateKey
	}

	return tx.Sign(t)
}
