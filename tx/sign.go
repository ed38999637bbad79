package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Sign signs the transaction in place using the private keys carried on its
// inputs. Inputs already hold their source scripts and values, so the sighash
// can be computed without any network lookups.
//
// When every input has a key the transaction becomes complete and TxID and
// Hex return the final serialization. When some inputs lack keys the
// transaction is serialized with the available signatures, IsComplete stays
// false, and no error is returned; the partial transaction can be exported
// for co-signing elsewhere.
func Sign(t *Transaction) error {
	if t == nil {
		return fmt.Errorf("%w: transaction", ErrNilParam)
	}
	if len(t.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrSigningFailed)
	}

	sdkTx := transaction.NewTransaction()
	sdkTx.LockTime = t.Locktime

	haveAllKeys := true
	for i, coin := range t.Inputs {
		if coin == nil {
			return fmt.Errorf("%w: input %d", ErrNilParam, i)
		}
		if len(coin.ScriptPubKey) == 0 {
			return fmt.Errorf("%w: input %d has empty ScriptPubKey", ErrSigningFailed, i)
		}
		txidHash, err := chainhash.NewHashFromHex(coin.TxID)
		if err != nil {
			return fmt.Errorf("%w: input %d: invalid txid: %w", ErrSigningFailed, i, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:       txidHash,
			SourceTxOutIndex: coin.Vout,
			SequenceNumber:   0xffffffff,
		})

		lockingScript := script.NewFromBytes(coin.ScriptPubKey)
		sdkTx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      uint64(coin.Value),
			LockingScript: lockingScript,
		})

		if coin.PrivateKey == nil {
			haveAllKeys = false
			continue
		}
		unlocker, err := p2pkh.Unlock(coin.PrivateKey, nil)
		if err != nil {
			return fmt.Errorf("%w: unlocker for input %d: %w", ErrSigningFailed, i, err)
		}
		sdkTx.Inputs[i].UnlockingScriptTemplate = unlocker
	}

	for _, o := range t.Outputs {
		sdkTx.AddOutput(&transaction.TransactionOutput{
			Satoshis:      uint64(o.Value),
			LockingScript: script.NewFromBytes(o.LockingScript),
		})
	}

	if err := sdkTx.Sign(); err != nil {
		return fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	t.raw = sdkTx.Bytes()
	t.complete = haveAllKeys
	if haveAllKeys {
		t.txid = sdkTx.TxID().CloneBytes()
	}
	return nil
}

// BuildP2PKHScript creates a P2PKH locking script for the given public key.
// Returns the raw script bytes suitable for use as UTXO.ScriptPubKey.
func BuildP2PKHScript(pubKey *ec.PublicKey) ([]byte, error) {
	if pubKey == nil {
		return nil, fmt.Errorf("%w: public key", ErrNilParam)
	}
	addr, err := script.NewAddressFromPublicKey(pubKey, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %w", ErrScriptBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock script: %w", ErrScriptBuild, err)
	}
	return []byte(*lockScript), nil
}
