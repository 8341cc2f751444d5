package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const privateKeyLength = 32

var ErrInvalidKey = errors.New("invalid private key")

// GenerateKey returns a fresh secp256k1 key pair; the public key is serialized uncompressed.
func GenerateKey() (privKey []byte, pubKey []byte, err error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, nil, err
	}
	return key.Serialize(), key.PubKey().SerializeUncompressed(), nil
}

func PubKey(privKey []byte) ([]byte, error) {
	if len(privKey) != privateKeyLength {
		return nil, ErrInvalidKey
	}
	_, pub := btcec.PrivKeyFromBytes(btcec.S256(), privKey)
	return pub.SerializeUncompressed(), nil
}

func Sign(privKey, message []byte) (signature []byte, err error) {
	if len(privKey) != privateKeyLength {
		return nil, ErrInvalidKey
	}
	hash := sha256.Sum256(message)
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), privKey)
	sign, err := key.Sign(hash[:])
	if err != nil {
		return nil, err
	}
	return sign.Serialize(), nil
}

func Verify(pubKey, message []byte, signature []byte) (signed bool) {
	hash := sha256.Sum256(message)
	key, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return false
	}
	sign, err := btcec.ParseSignature(signature, btcec.S256())
	if err != nil {
		return false
	}
	return sign.Verify(hash[:], key)
}

func CheckPubKey(pubKey []byte) error {
	_, err := btcec.ParsePubKey(pubKey, btcec.S256())
	return err
}

// Address derives the account address of a public key the way Ethereum does: the last 20 bytes
// of keccak256 over the uncompressed point without its prefix byte.
func Address(pubKey []byte) (common.Address, error) {
	key, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(ethcrypto.Keccak256(key.SerializeUncompressed()[1:])[12:]), nil
}

// LoadKey reads a hex encoded private key.
func LoadKey(file string) (privKey []byte, err error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	privKey, err = hex.DecodeString(strings.TrimSpace(string(bytes)))
	if err != nil || len(privKey) != privateKeyLength {
		return nil, ErrInvalidKey
	}
	return privKey, nil
}

func SaveKey(file string, privKey []byte) error {
	return os.WriteFile(file, []byte(hex.EncodeToString(privKey)+"\n"), 0600)
}
