package network

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/xecsuite/libxecpay-go/tx"
)

// BlockchainService is the node-facing interface of the send pipeline. The
// session layer and the wallet refresh loop depend on it rather than on the
// concrete RPC client so tests can substitute a mock.
type BlockchainService interface {
	// IsConnected reports whether the last node interaction succeeded. A
	// disconnected service rejects sends before signing.
	IsConnected() bool

	// ListUnspent returns all unspent transaction outputs for the given address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// GetUTXO returns a specific unspent transaction output by txid and output
	// index, or ErrTxNotFound when the output is spent or unknown.
	GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error)

	// BroadcastTx submits a raw transaction hex to the network and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// GetRawTx returns the raw transaction bytes for the given txid.
	GetRawTx(ctx context.Context, txid string) ([]byte, error)

	// GetTxStatus returns the confirmation status of a transaction.
	GetTxStatus(ctx context.Context, txid string) (*TxStatus, error)

	// GetBestBlockHeight returns the height of the current chain tip.
	GetBestBlockHeight(ctx context.Context) (uint64, error)

	// RelayFee returns the node's minimum relay fee in satoshis per kilobyte.
	RelayFee(ctx context.Context) (uint64, error)

	// ImportAddress imports a watch-only address into the node's wallet so
	// that ListUnspent can find its outputs. Safe to call repeatedly.
	ImportAddress(ctx context.Context, address string) error
}

// UTXO is an unspent transaction output as reported by the node.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        int64  `json:"amount"` // satoshis
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// ToCoin converts a node-reported output into a wallet coin. tipHeight is
// the current chain tip, used to place confirmed coins at their block height;
// unconfirmed coins get height zero.
func (u *UTXO) ToCoin(tipHeight uint64) (*tx.UTXO, error) {
	script, err := hex.DecodeString(u.ScriptPubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad scriptPubKey for %s:%d: %w", ErrInvalidResponse, u.TxID, u.Vout, err)
	}
	var height int32
	if u.Confirmations > 0 {
		height = int32(int64(tipHeight) - u.Confirmations + 1)
	}
	return &tx.UTXO{
		TxID:         u.TxID,
		Vout:         u.Vout,
		Value:        u.Amount,
		Address:      u.Address,
		ScriptPubKey: script,
		Height:       height,
	}, nil
}

// TxStatus is the confirmation status of a transaction.
type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHash   string `json:"block_hash"`
	BlockHeight uint64 `json:"block_height"`
}
