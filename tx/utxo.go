package tx

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// UTXO is one spendable coin tracked by the wallet.
//
// Unremovable marks coins force-included by an external coin filter; the
// send form must not let the user drop them from the pay-from list.
type UTXO struct {
	TxID          string         `json:"txid"` // hex, display order
	Vout          uint32         `json:"vout"`
	Value         int64          `json:"value"` // satoshis
	Address       string         `json:"address"`
	ScriptPubKey  []byte         `json:"script_pubkey"`
	Height        int32          `json:"height"` // 0 for mempool
	Unremovable   bool           `json:"-"`
	PrivateKey    *ec.PrivateKey `json:"-"` // signing key, attached just before signing
}

// Outpoint returns the canonical "txid:n" name of the coin.
func (u *UTXO) Outpoint() string {
	return fmt.Sprintf("%s:%d", u.TxID, u.Vout)
}

// Copy returns a deep copy of the coin. The private key pointer is shared;
// keys are immutable once derived.
func (u *UTXO) Copy() *UTXO {
	dup := *u
	dup.ScriptPubKey = append([]byte(nil), u.ScriptPubKey...)
	return &dup
}

// CopyCoins deep-copies a coin slice. Used to snapshot the shared pay-from
// list so a transaction in flight cannot be altered by later list edits.
func CopyCoins(coins []*UTXO) []*UTXO {
	out := make([]*UTXO, len(coins))
	for i, c := range coins {
		out[i] = c.Copy()
	}
	return out
}

// SumValues returns the total satoshi value of the coins.
func SumValues(coins []*UTXO) int64 {
	var total int64
	for _, c := range coins {
		total += c.Value
	}
	return total
}
