package tx

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

const testAddr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

func testCoin(t *testing.T, value int64) *UTXO {
	t.Helper()
	script, err := LockingScriptForAddress(testAddr)
	require.NoError(t, err)
	return &UTXO{
		TxID:         strings.Repeat("ab", 32),
		Vout:         0,
		Value:        value,
		Address:      testAddr,
		ScriptPubKey: script,
	}
}

func testKeyedCoin(t *testing.T, value int64) *UTXO {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	script, err := BuildP2PKHScript(priv.PubKey())
	require.NoError(t, err)
	return &UTXO{
		TxID:         strings.Repeat("cd", 32),
		Vout:         1,
		Value:        value,
		ScriptPubKey: script,
		PrivateKey:   priv,
	}
}

func testChangeScript(t *testing.T) []byte {
	t.Helper()
	script, err := LockingScriptForAddress(testAddr)
	require.NoError(t, err)
	return script
}

func TestLockingScriptForAddress(t *testing.T) {
	script, err := LockingScriptForAddress(testAddr)
	require.NoError(t, err)
	assert.Len(t, script, 25)
	assert.Equal(t, byte(0x76), script[0]) // OP_DUP

	_, err = LockingScriptForAddress("not an address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestOPReturnStringData(t *testing.T) {
	out, err := OPReturnOutputForStringData("hello world")
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Value)
	assert.Equal(t, KindScript, out.Kind)

	pushes := ParseOPReturnPushes(out.LockingScript)
	require.Len(t, pushes, 1)
	assert.Equal(t, []byte("hello world"), pushes[0])
}

func TestOPReturnStringDataLimits(t *testing.T) {
	_, err := OPReturnOutputForStringData(strings.Repeat("a", MaxOPReturnPayload))
	assert.NoError(t, err)

	_, err = OPReturnOutputForStringData(strings.Repeat("a", MaxOPReturnPayload+1))
	assert.ErrorIs(t, err, ErrOPReturnTooLarge)
}

func TestOPReturnRawHex(t *testing.T) {
	// OP_RETURN <5 bytes "hello">
	out, err := OPReturnOutputForRawHex("0568656c6c6f")
	require.NoError(t, err)
	assert.Equal(t, byte(0x6a), out.LockingScript[0])

	pushes := ParseOPReturnPushes(out.LockingScript)
	require.Len(t, pushes, 1)
	assert.Equal(t, []byte("hello"), pushes[0])
}

func TestOPReturnRawHexEmptyMarker(t *testing.T) {
	out, err := OPReturnOutputForRawHex(RawHexEmptyMarker)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x6a}, out.LockingScript)
}

func TestOPReturnRawHexErrors(t *testing.T) {
	_, err := OPReturnOutputForRawHex("zz")
	assert.ErrorIs(t, err, ErrOPReturn)

	// 223 payload bytes push the script over MaxOPReturnScript.
	big := "4cdf" + strings.Repeat("00", 223)
	_, err = OPReturnOutputForRawHex(big)
	assert.ErrorIs(t, err, ErrOPReturnTooLarge)
}

func TestBuildUnsignedSimpleSend(t *testing.T) {
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{testCoin(t, 10000)},
		Outputs:      []*Output{out},
		FeeRate:      1000,
		FixedFee:     -1,
		ChangeScript: testChangeScript(t),
	})
	require.NoError(t, err)

	require.Len(t, built.Inputs, 1)
	require.Len(t, built.Outputs, 2)
	assert.Equal(t, int64(226), built.GetFee())
	assert.Equal(t, 226, built.EstimatedSize())

	// Satoshi conservation: inputs fund outputs plus fee exactly.
	assert.Equal(t, built.InputValue(), built.OutputValue()+built.GetFee())
}

func TestBuildUnsignedDustChangeAbsorbed(t *testing.T) {
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{testCoin(t, 5300)},
		Outputs:      []*Output{out},
		FeeRate:      1000,
		FixedFee:     -1,
		ChangeScript: testChangeScript(t),
	})
	require.NoError(t, err)

	// Sub-dust change is dropped into the fee, leaving a single output.
	require.Len(t, built.Outputs, 1)
	assert.Equal(t, int64(300), built.GetFee())
}

func TestBuildUnsignedNotEnoughFunds(t *testing.T) {
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	tests := []struct {
		name  string
		coins []*UTXO
	}{
		{name: "no coins", coins: nil},
		{name: "exact amount but no fee headroom", coins: []*UTXO{testCoin(t, 5000)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildUnsigned(&BuildParams{
				Coins:        tt.coins,
				Outputs:      []*Output{out},
				FeeRate:      1000,
				FixedFee:     -1,
				ChangeScript: testChangeScript(t),
			})
			assert.ErrorIs(t, err, ErrNotEnoughFunds)
		})
	}
}

func TestBuildUnsignedMaxSpend(t *testing.T) {
	maxOut, err := NewMaxAddressOutput(testAddr)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:    []*UTXO{testCoin(t, 10000), testCoin(t, 20000)},
		Outputs:  []*Output{maxOut},
		FeeRate:  1000,
		FixedFee: -1,
	})
	require.NoError(t, err)

	// Every coin is spent and no change is created.
	require.Len(t, built.Inputs, 2)
	require.Len(t, built.Outputs, 1)
	assert.Equal(t, int64(30000-340), built.Outputs[0].Value)
	assert.Equal(t, int64(340), built.GetFee())
}

func TestBuildUnsignedMaxSpendWithFixedOutput(t *testing.T) {
	maxOut, err := NewMaxAddressOutput(testAddr)
	require.NoError(t, err)
	fixed, err := NewAddressOutput(testAddr, 1000)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:    []*UTXO{testCoin(t, 10000), testCoin(t, 20000)},
		Outputs:  []*Output{maxOut, fixed},
		FeeRate:  1000,
		FixedFee: -1,
	})
	require.NoError(t, err)

	var maxVal int64
	for _, o := range built.Outputs {
		if o.IsMax {
			maxVal = o.Value
		}
	}
	assert.Equal(t, int64(30000-1000-374), maxVal)
}

func TestBuildUnsignedMultipleMaxOutputs(t *testing.T) {
	a, err := NewMaxAddressOutput(testAddr)
	require.NoError(t, err)
	b, err := NewMaxAddressOutput(testAddr)
	require.NoError(t, err)

	_, err = BuildUnsigned(&BuildParams{
		Coins:    []*UTXO{testCoin(t, 10000)},
		Outputs:  []*Output{a, b},
		FeeRate:  1000,
		FixedFee: -1,
	})
	assert.ErrorIs(t, err, ErrMultipleMaxOutputs)
}

func TestBuildUnsignedExcessiveFee(t *testing.T) {
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	_, err = BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{testCoin(t, 1000000)},
		Outputs:      []*Output{out},
		FeeRate:      100000, // 100 sat/B, twice the ceiling
		FixedFee:     -1,
		ChangeScript: testChangeScript(t),
	})
	assert.ErrorIs(t, err, ErrExcessiveFee)
}

func TestBuildUnsignedFixedFee(t *testing.T) {
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{testCoin(t, 10000)},
		Outputs:      []*Output{out},
		FeeRate:      0,
		FixedFee:     1000,
		ChangeScript: testChangeScript(t),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), built.GetFee())
}

func TestBuildUnsignedNeedsFeeSource(t *testing.T) {
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	_, err = BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{testCoin(t, 10000)},
		Outputs:      []*Output{out},
		FeeRate:      0,
		FixedFee:     -1,
		ChangeScript: testChangeScript(t),
	})
	assert.ErrorIs(t, err, ErrNoFeeEstimate)
}

func TestBuildUnsignedDoesNotMutateCoins(t *testing.T) {
	coin := testCoin(t, 10000)
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{coin},
		Outputs:      []*Output{out},
		FeeRate:      1000,
		FixedFee:     -1,
		ChangeScript: testChangeScript(t),
	})
	require.NoError(t, err)

	built.Inputs[0].Value = 1
	assert.Equal(t, int64(10000), coin.Value)
}

func TestEstimateFee(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		satPerKB uint64
		want     int64
	}{
		{name: "exact whole", size: 1000, satPerKB: 1000, want: 1000},
		{name: "rounds up", size: 226, satPerKB: 1000, want: 226},
		{name: "fractional rounds up", size: 100, satPerKB: 1001, want: 101},
		{name: "zero rate falls back to default", size: 500, satPerKB: 0, want: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateFee(tt.size, tt.satPerKB))
		})
	}
}

func TestTransactionCopyIsDeep(t *testing.T) {
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{testCoin(t, 10000)},
		Outputs:      []*Output{out},
		FeeRate:      1000,
		FixedFee:     -1,
		ChangeScript: testChangeScript(t),
	})
	require.NoError(t, err)

	dup := built.Copy()
	dup.Inputs[0].Value = 1
	dup.Outputs[0].Value = 1

	assert.Equal(t, int64(10000), built.Inputs[0].Value)
	assert.Equal(t, int64(5000), built.Outputs[0].Value)
}

func TestSignCompletes(t *testing.T) {
	coin := testKeyedCoin(t, 10000)
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{coin},
		Outputs:      []*Output{out},
		FeeRate:      1000,
		FixedFee:     -1,
		ChangeScript: testChangeScript(t),
	})
	require.NoError(t, err)
	require.False(t, built.IsComplete())

	require.NoError(t, Sign(built))
	assert.True(t, built.IsComplete())
	assert.NotEmpty(t, built.Hex())
	assert.Len(t, built.TxID(), 64)

	raw, err := hex.DecodeString(built.Hex())
	require.NoError(t, err)
	assert.Equal(t, built.Bytes(), raw)
}

func TestSignWithoutKeysStaysIncomplete(t *testing.T) {
	coin := testCoin(t, 10000) // no private key attached
	out, err := NewAddressOutput(testAddr, 5000)
	require.NoError(t, err)

	built, err := BuildUnsigned(&BuildParams{
		Coins:        []*UTXO{coin},
		Outputs:      []*Output{out},
		FeeRate:      1000,
		FixedFee:     -1,
		ChangeScript: testChangeScript(t),
	})
	require.NoError(t, err)

	require.NoError(t, Sign(built))
	assert.False(t, built.IsComplete())
	assert.NotEmpty(t, built.Hex())
	assert.Empty(t, built.TxID())
}
