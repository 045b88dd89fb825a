package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBase58EncodeDecode(t *testing.T) {
	raw := []byte{0, 0, 1, 2, 3, 4, 5}
	encoded := base58Encode(raw)
	decoded := base58Decode(encoded)
	assert.Equal(t, raw, decoded)

	assert.Nil(t, base58Decode("0OIl")) // invalid alphabet chars
	assert.Equal(t, "", base58Encode(nil))
}

func TestBase58EncodeLeadingZeros(t *testing.T) {
	raw := []byte{0, 0, 0, 42}
	encoded := base58Encode(raw)
	decoded := base58Decode(encoded)
	assert.Equal(t, raw, decoded)
}

func TestBase58DecodeEmpty(t *testing.T) {
	assert.Nil(t, base58Decode(""))
}
