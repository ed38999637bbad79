package wallet

import (
	"fmt"
	"sync"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/xecsuite/libxecpay-go/tx"
)

const (
	// BIP44 path constants.
	PurposeBIP44 = 44
	CoinTypeXEC  = 899
	Account      = 0

	// Chain indices.
	ExternalChain = 0 // Receive addresses
	InternalChain = 1 // Change addresses

	// BIP32 hardened offset.
	Hardened = 0x80000000
)

// derivedAddr remembers where an address sits in the hierarchy so its key
// can be re-derived at signing time.
type derivedAddr struct {
	chain uint32
	index uint32
}

// Wallet is an HD wallet over a password-encrypted seed. Addresses derived
// through it are remembered so transactions spending them can be signed.
type Wallet struct {
	mu            sync.Mutex
	network       *NetworkConfig
	encryptedSeed []byte

	// masterKey is non-nil while the wallet is unlocked or the key cache
	// is active.
	masterKey *bip32.ExtendedKey

	addrs       map[string]derivedAddr
	nextReceive uint32
	nextChange  uint32

	coins       map[string]*tx.UTXO
	frozenAddrs map[string]bool
	frozenCoins map[string]bool
}

// KeyPair holds a derived public/private key pair.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"public_key"`
	Address    string         `json:"address"`
	Path       string         `json:"path"`
}

// New creates a wallet from a BIP39 seed, encrypting it under password. The
// wallet starts unlocked.
func New(seed []byte, password string, network *NetworkConfig) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &MainNet
	}

	encrypted, err := EncryptSeed(seed, password)
	if err != nil {
		return nil, err
	}

	w := newWallet(encrypted, network)
	if err := w.unlockLocked(password); err != nil {
		return nil, err
	}
	return w, nil
}

// Open restores a wallet from its encrypted seed. The wallet starts locked.
func Open(encryptedSeed []byte, network *NetworkConfig) (*Wallet, error) {
	if len(encryptedSeed) == 0 {
		return nil, fmt.Errorf("%w: encrypted seed", ErrNilParam)
	}
	if network == nil {
		network = &MainNet
	}
	return newWallet(encryptedSeed, network), nil
}

func newWallet(encryptedSeed []byte, network *NetworkConfig) *Wallet {
	return &Wallet{
		network:       network,
		encryptedSeed: encryptedSeed,
		addrs:         map[string]derivedAddr{},
		coins:         map[string]*tx.UTXO{},
		frozenAddrs:   map[string]bool{},
		frozenCoins:   map[string]bool{},
	}
}

// Network returns the wallet's network configuration.
func (w *Wallet) Network() *NetworkConfig { return w.network }

// EncryptedSeed returns the encrypted seed blob for persistence.
func (w *Wallet) EncryptedSeed() []byte {
	return append([]byte(nil), w.encryptedSeed...)
}

// Unlock decrypts the seed and holds the master key in memory.
func (w *Wallet) Unlock(password string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unlockLocked(password)
}

// Lock discards the in-memory master key.
func (w *Wallet) Lock() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.masterKey = nil
}

// IsLocked reports whether the master key is held in memory.
func (w *Wallet) IsLocked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.masterKey == nil
}

// CheckPassword verifies the password without changing lock state.
func (w *Wallet) CheckPassword(password string) error {
	if _, err := DecryptSeed(w.encryptedSeed, password); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPassword, err)
	}
	return nil
}

func (w *Wallet) unlockLocked(password string) error {
	seed, err := DecryptSeed(w.encryptedSeed, password)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPassword, err)
	}

	var net *chaincfg.Params
	switch w.network.Name {
	case "mainnet":
		net = &chaincfg.MainNet
	default:
		net = &chaincfg.TestNet
	}

	master, err := bip32.NewMaster(seed, net)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	w.masterKey = master
	return nil
}

// deriveKeyLocked derives m/44'/899'/0'/chain/index. Caller holds the lock
// and has verified the wallet is unlocked.
func (w *Wallet) deriveKeyLocked(chain, index uint32) (*KeyPair, error) {
	steps := []uint32{
		PurposeBIP44 + Hardened,
		CoinTypeXEC + Hardened,
		Account + Hardened,
		chain,
		index,
	}
	current := w.masterKey
	for _, step := range steps {
		var err error
		current, err = current.Child(step)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
		}
	}

	privKey, err := current.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}
	pubKey := privKey.PubKey()

	addr, err := script.NewAddressFromPublicKey(pubKey, w.network.Name == "mainnet")
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %w", ErrDerivationFailed, err)
	}

	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  pubKey,
		Address:    addr.AddressString,
		Path:       fmt.Sprintf("m/44'/899'/0'/%d/%d", chain, index),
	}, nil
}

// DeriveKey derives a key pair on the given chain and index and registers
// its address with the wallet.
func (w *Wallet) DeriveKey(chain, index uint32) (*KeyPair, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.masterKey == nil {
		return nil, ErrLocked
	}
	kp, err := w.deriveKeyLocked(chain, index)
	if err != nil {
		return nil, err
	}
	w.addrs[kp.Address] = derivedAddr{chain: chain, index: index}
	return kp, nil
}

// NewReceiveAddress derives the next unused external-chain address. The
// read, derivation and counter bump share one critical section so
// concurrent callers never mint the same address.
func (w *Wallet) NewReceiveAddress() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.masterKey == nil {
		return "", ErrLocked
	}
	kp, err := w.deriveKeyLocked(ExternalChain, w.nextReceive)
	if err != nil {
		return "", err
	}
	w.addrs[kp.Address] = derivedAddr{chain: ExternalChain, index: w.nextReceive}
	w.nextReceive++
	return kp.Address, nil
}

// ChangeAddress derives the next internal-chain address without consuming
// it; repeated calls before a broadcast return the same address.
func (w *Wallet) ChangeAddress() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.masterKey == nil {
		return "", ErrLocked
	}
	kp, err := w.deriveKeyLocked(InternalChain, w.nextChange)
	if err != nil {
		return "", err
	}
	w.addrs[kp.Address] = derivedAddr{chain: InternalChain, index: w.nextChange}
	return kp.Address, nil
}

// AdvanceChangeAddress consumes the current change address after it has
// been used in a broadcast transaction.
func (w *Wallet) AdvanceChangeAddress() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextChange++
}

// DummyAddress returns a stable wallet address used to size trial
// transactions before the real change address is chosen.
func (w *Wallet) DummyAddress() (string, error) {
	kp, err := w.DeriveKey(ExternalChain, 0)
	if err != nil {
		return "", err
	}
	return kp.Address, nil
}

// IsMine reports whether the address was derived by this wallet.
func (w *Wallet) IsMine(addr string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.addrs[addr]
	return ok
}
