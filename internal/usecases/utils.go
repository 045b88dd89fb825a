package usecases

import (
	"math/big"
)

// base58Encode/base58Decode are a small, package-private base58 codec used
// by verifySignature to turn an SVM wallet address into the raw public key
// bytes ed25519.Verify needs. The blockchain package has its own
// (differently-shaped) base58 codec for transaction encoding; the two are
// kept separate rather than shared across the package boundary.
func base58Encode(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	x := new(big.Int).SetBytes(data)
	base := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		out = append(out, alphabet[mod.Int64()])
	}

	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, alphabet[0])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(s string) []byte {
	if s == "" {
		return nil
	}

	const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	index := map[rune]int{}
	for i, c := range alphabet {
		index[c] = i
	}

	x := big.NewInt(0)
	base := big.NewInt(58)
	for _, c := range s {
		val, ok := index[c]
		if !ok {
			return nil
		}
		x.Mul(x, base)
		x.Add(x, big.NewInt(int64(val)))
	}

	decoded := x.Bytes()
	leadingOnes := 0
	for _, c := range s {
		if c != '1' {
			break
		}
		leadingOnes++
	}
	if leadingOnes > 0 {
		out := make([]byte, leadingOnes+len(decoded))
		copy(out[leadingOnes:], decoded)
		return out
	}
	return decoded
}
