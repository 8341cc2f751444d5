package messages

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"surety-node/crypto"
)

var (
	ErrMalformed = errors.New("malformed message")
	ErrSignature = errors.New("invalid signature")
)

// Sign encodes tx and signs the encoding with privKey.
func Sign(tx Transaction, privKey []byte) (*SignedTransaction, error) {
	payload, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}
	pubKey, err := crypto.PubKey(privKey)
	if err != nil {
		return nil, err
	}
	signature, err := crypto.Sign(privKey, payload)
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{Transaction: payload, PubKey: pubKey, Signature: signature}, nil
}

// Open checks the signature and returns the transaction with the address of its signer.
func (stx *SignedTransaction) Open() (Transaction, common.Address, error) {
	var tx Transaction
	if err := crypto.CheckPubKey(stx.PubKey); err != nil {
		return tx, common.Address{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	if !crypto.Verify(stx.PubKey, stx.Transaction, stx.Signature) {
		return tx, common.Address{}, ErrSignature
	}
	if err := json.Unmarshal(stx.Transaction, &tx); err != nil {
		return tx, common.Address{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	sender, err := crypto.Address(stx.PubKey)
	if err != nil {
		return tx, common.Address{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	return tx, sender, nil
}

// EncodeTx renders a signed transaction as the base64 JSON a node accepts.
func EncodeTx(stx *SignedTransaction) ([]byte, error) {
	return encode(stx)
}

func DecodeTx(tx []byte) (*SignedTransaction, error) {
	var stx SignedTransaction
	if err := decode(tx, &stx); err != nil {
		return nil, err
	}
	return &stx, nil
}

func EncodeQuery(query Query) ([]byte, error) {
	return encode(query)
}

func DecodeQuery(data []byte) (Query, error) {
	var query Query
	err := decode(data, &query)
	return query, err
}

func encode(value interface{}) ([]byte, error) {
	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(bytes)))
	base64.StdEncoding.Encode(encoded, bytes)
	return encoded, nil
}

func decode(data []byte, value interface{}) error {
	bytes := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(bytes, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(bytes[:n], value); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
