package crypto

import (
	"path/filepath"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestSignature(t *testing.T) {
	privKey, pubKey, err := GenerateKey()
	require.NoError(t, err)
	require.NoError(t, CheckPubKey(pubKey))

	message := []byte("Some message to be signed")
	signature, err := Sign(privKey, message)
	require.NoError(t, err)
	require.True(t, Verify(pubKey, message, signature))

	require.False(t, Verify(pubKey, []byte("Some other message"), signature))
	_, otherPubKey, err := GenerateKey()
	require.NoError(t, err)
	require.False(t, Verify(otherPubKey, message, signature))
	require.False(t, Verify(pubKey, message, signature[1:]))
	require.False(t, Verify([]byte("not a key"), message, signature))

	_, err = Sign(privKey[1:], message)
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestAddress(t *testing.T) {
	privKey, pubKey, err := GenerateKey()
	require.NoError(t, err)
	derived, err := PubKey(privKey)
	require.NoError(t, err)
	require.Equal(t, pubKey, derived)

	address, err := Address(pubKey)
	require.NoError(t, err)
	ecdsa, err := ethcrypto.ToECDSA(privKey)
	require.NoError(t, err)
	require.Equal(t, ethcrypto.PubkeyToAddress(ecdsa.PublicKey), address)

	_, err = Address([]byte{4, 1, 2})
	require.Error(t, err)
}

func TestKeyFile(t *testing.T) {
	privKey, _, err := GenerateKey()
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "key.hex")
	require.NoError(t, SaveKey(file, privKey))
	loaded, err := LoadKey(file)
	require.NoError(t, err)
	require.Equal(t, privKey, loaded)

	_, err = LoadKey(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
