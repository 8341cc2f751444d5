package messages

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"surety-node/crypto"
	"surety-node/modules"
)

func mockTransaction() Transaction {
	return Transaction{
		TxType:     TxSubmitOracleResponse,
		Nonce:      4,
		Index:      7,
		Airline:    common.HexToAddress("0xa1"),
		Flight:     "SU100",
		Timestamp:  1600000000,
		StatusCode: modules.StatusLateAirline,
	}
}

func TestSignedTransaction(t *testing.T) {
	privKey, pubKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer, err := crypto.Address(pubKey)
	require.NoError(t, err)

	stx, err := Sign(mockTransaction(), privKey)
	require.NoError(t, err)
	encoded, err := EncodeTx(stx)
	require.NoError(t, err)

	decoded, err := DecodeTx(encoded)
	require.NoError(t, err)
	tx, sender, err := decoded.Open()
	require.NoError(t, err)
	require.Equal(t, signer, sender)
	require.Equal(t, mockTransaction(), tx)
}

func TestTamperedTransaction(t *testing.T) {
	privKey, _, err := crypto.GenerateKey()
	require.NoError(t, err)
	stx, err := Sign(mockTransaction(), privKey)
	require.NoError(t, err)

	tampered := *stx
	tampered.Transaction = append([]byte(nil), stx.Transaction...)
	tampered.Transaction[len(tampered.Transaction)-2] ^= 1
	_, _, err = tampered.Open()
	require.ErrorIs(t, err, ErrSignature)

	_, otherPubKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	stolen := *stx
	stolen.PubKey = otherPubKey
	_, _, err = stolen.Open()
	require.ErrorIs(t, err, ErrSignature)

	_, err = DecodeTx([]byte("not base64!"))
	require.ErrorIs(t, err, ErrMalformed)
	_, err = DecodeTx([]byte("bm90IGpzb24="))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestQuery(t *testing.T) {
	query := Query{QrType: QueryBalance, Address: common.HexToAddress("0xb2")}
	encoded, err := EncodeQuery(query)
	require.NoError(t, err)
	decoded, err := DecodeQuery(encoded)
	require.NoError(t, err)
	require.Equal(t, query, decoded)
}
