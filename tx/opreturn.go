package tx

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/script"
)

const (
	// MaxOPReturnPayload is the relay limit for the UTF-8 payload of a
	// single-push OP_RETURN output.
	MaxOPReturnPayload = 220

	// MaxOPReturnScript is the relay limit for a raw OP_RETURN script
	// including the OP_RETURN opcode itself.
	MaxOPReturnScript = 223

	// RawHexEmptyMarker is the sentinel carried by payment URIs whose
	// op_return_raw parameter is present but blank.
	RawHexEmptyMarker = "empty"
)

// OPReturnOutputForStringData wraps text as a zero-value OP_RETURN output:
// the UTF-8 bytes of text as a single data push after the OP_RETURN opcode.
// Payloads over MaxOPReturnPayload bytes return ErrOPReturnTooLarge.
func OPReturnOutputForStringData(text string) (*Output, error) {
	payload := []byte(text)
	if len(payload) > MaxOPReturnPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrOPReturnTooLarge, len(payload))
	}

	s := &script.Script{}
	*s = append(*s, script.OpRETURN)
	if err := s.AppendPushData(payload); err != nil {
		return nil, fmt.Errorf("%w: OP_RETURN push: %w", ErrScriptBuild, err)
	}
	return NewScriptOutput([]byte(*s), 0)
}

// OPReturnOutputForRawHex interprets text as hex-encoded script bytes to be
// appended verbatim after the OP_RETURN opcode, with no further encoding.
// The marker "empty" stands for a bare OP_RETURN with no payload. Scripts
// over MaxOPReturnScript bytes return ErrOPReturnTooLarge; bad hex returns
// ErrOPReturn.
func OPReturnOutputForRawHex(text string) (*Output, error) {
	if text == RawHexEmptyMarker {
		text = ""
	}
	payload, err := hex.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: script expected to be hexadecimal bytes: %w", ErrOPReturn, err)
	}

	raw := append([]byte{script.OpRETURN}, payload...)
	if len(raw) > MaxOPReturnScript {
		return nil, fmt.Errorf("%w: script is %d bytes, limit %d",
			ErrOPReturnTooLarge, len(raw), MaxOPReturnScript)
	}
	return NewScriptOutput(raw, 0)
}

// ParseOPReturnPushes returns the data pushes of an OP_RETURN locking
// script, or nil if the script is not an OP_RETURN output. Only the plain
// push encodings produced by this package (direct length, PUSHDATA1/2) are
// recognized.
func ParseOPReturnPushes(lockingScript []byte) [][]byte {
	if len(lockingScript) == 0 || lockingScript[0] != script.OpRETURN {
		return nil
	}
	var pushes [][]byte
	rest := lockingScript[1:]
	for len(rest) > 0 {
		op := rest[0]
		rest = rest[1:]
		var n int
		switch {
		case op > 0 && op <= 75:
			n = int(op)
		case op == script.OpPUSHDATA1:
			if len(rest) < 1 {
				return nil
			}
			n = int(rest[0])
			rest = rest[1:]
		case op == script.OpPUSHDATA2:
			if len(rest) < 2 {
				return nil
			}
			n = int(rest[0]) | int(rest[1])<<8
			rest = rest[2:]
		default:
			return nil
		}
		if len(rest) < n {
			return nil
		}
		pushes = append(pushes, rest[:n])
		rest = rest[n:]
	}
	return pushes
}
