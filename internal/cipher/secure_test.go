package cipher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethervault/ethervault/internal/cipher"
)

func TestSecureBytes_FromSlice(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	sb := cipher.SecureBytesFromSlice(data)
	defer sb.Destroy()

	assert.Equal(t, data, sb.Bytes())
	assert.Equal(t, 4, sb.Len())
}

func TestSecureBytes_Destroy(t *testing.T) {
	sb := cipher.SecureBytesFromSlice([]byte{1, 2, 3, 4})
	sb.Destroy()

	assert.Nil(t, sb.Bytes())
	assert.Equal(t, 0, sb.Len())

	// Safe to call twice
	sb.Destroy()
}

func TestZeroBytes(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	cipher.ZeroBytes(data)
	assert.Equal(t, []byte{0, 0, 0, 0}, data)
}
