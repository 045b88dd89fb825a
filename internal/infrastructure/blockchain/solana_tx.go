package blockchain

import (
	"math/big"
)

// base58Alphabet is the Bitcoin/Solana base58 alphabet. Duplicated here
// rather than imported from internal/usecases (which keeps its own copy for
// Anchor instruction encoding) because both are unexported and Go has no way
// to share unexported helpers across package boundaries.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i, c := range base58Alphabet {
		idx[byte(c)] = int8(i)
	}
	return idx
}()

func base58Encode(b []byte) string {
	zero := byte(base58Alphabet[0])
	n := new(big.Int).SetBytes(b)
	base := big.NewInt(58)
	mod := new(big.Int)
	var out []byte
	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, c := range b {
		if c != 0 {
			break
		}
		out = append(out, zero)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(s string) ([]byte, error) {
	n := new(big.Int)
	base := big.NewInt(58)
	for i := 0; i < len(s); i++ {
		v := base58Index[s[i]]
		if v < 0 {
			return nil, errInvalidBase58
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(v)))
	}
	decoded := n.Bytes()
	leadingZeros := 0
	for i := 0; i < len(s) && s[i] == byte(base58Alphabet[0]); i++ {
		leadingZeros++
	}
	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, nil
}

var errInvalidBase58 = &base58Error{"invalid base58 character"}

type base58Error struct{ msg string }

func (e *base58Error) Error() string { return e.msg }

// shortvecEncode writes n using Solana's compact-u16 ("shortvec") encoding:
// 7 bits per byte, high bit set to signal continuation. Every length the
// executor emits (account list, instruction list, instruction data) is small
// enough to fit in one or two bytes, but the general form costs nothing.
func shortvecEncode(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func putUint32LE(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func putUint64LE(v uint64) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out
}

// systemProgramIDString is the native Solana System Program address (32
// zero bytes, base58-encoded), which owns the transfer instruction used for
// plain SOL settlement.
const systemProgramIDString = "11111111111111111111111111111111"

// buildTransferMessage assembles and serializes a legacy Solana transaction
// message carrying a single System Program transfer instruction, paid for
// and signed by the fee payer (the treasury account).
//
// Account order: [fee payer (signer, writable), recipient (writable),
// System Program (readonly, not a signer)]. Header counts one required
// signature and one readonly-unsigned account (the program id).
func buildTransferMessage(feePayer, recipient [32]byte, lamports uint64, recentBlockhash [32]byte) []byte {
	programID, err := base58Decode(systemProgramIDString)
	if err != nil || len(programID) != 32 {
		programID = make([]byte, 32)
	}
	var programKey [32]byte
	copy(programKey[:], programID)

	var msg []byte
	msg = append(msg, 1, 0, 1) // num_required_signatures, num_readonly_signed, num_readonly_unsigned

	msg = append(msg, shortvecEncode(3)...)
	msg = append(msg, feePayer[:]...)
	msg = append(msg, recipient[:]...)
	msg = append(msg, programKey[:]...)

	msg = append(msg, recentBlockhash[:]...)

	msg = append(msg, shortvecEncode(1)...) // one instruction
	msg = append(msg, 2)                    // program_id_index: System Program is account #2
	msg = append(msg, shortvecEncode(2)...)
	msg = append(msg, 0, 1) // instruction accounts: fee payer, recipient

	data := append(putUint32LE(2), putUint64LE(lamports)...) // System Program Transfer = index 2
	msg = append(msg, shortvecEncode(len(data))...)
	msg = append(msg, data...)

	return msg
}

// serializeSignedTransaction wraps a signed message in Solana's wire
// transaction envelope: a compact-array of signatures followed by the
// message bytes.
func serializeSignedTransaction(signature [64]byte, message []byte) []byte {
	var out []byte
	out = append(out, shortvecEncode(1)...)
	out = append(out, signature[:]...)
	out = append(out, message...)
	return out
}
