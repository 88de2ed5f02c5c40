package satis

import (
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe512961708279df95b4a2200ba58411"

func TestNewSigner_InvalidKey(t *testing.T) {
	_, err := NewSigner("not-a-key")
	require.Error(t, err)

	_, err = NewSigner("")
	require.Error(t, err)
}

func TestNewSigner_AcceptsHexPrefix(t *testing.T) {
	a, err := NewSigner(testKeyHex)
	require.NoError(t, err)
	b, err := NewSigner("0x" + testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, a.Address(), b.Address())
}

func TestSigner_Sign_SetsHeaders(t *testing.T) {
	signer, err := NewSigner(testKeyHex)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "https://sandbox-t1.sat.is/api/accounts", nil)
	require.NoError(t, signer.Sign(req, nil))

	assert.NotEmpty(t, req.Header.Get("ACCESS-SIGN"))
	assert.NotEmpty(t, req.Header.Get("ACCESS-TIMESTAMP"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestSigner_Sign_SignatureRecoversAddress(t *testing.T) {
	signer, err := NewSigner(testKeyHex)
	require.NoError(t, err)

	frozen := time.Unix(1700000000, 0)
	signer.now = func() time.Time { return frozen }

	body := []byte(`{"product_id":"BTC-PERP","side":"buy","size":"1","type":"limit","price":"49999","reduce_only":false}`)
	req, _ := http.NewRequest(http.MethodPost, "https://sandbox-t1.sat.is/api/orders", nil)
	require.NoError(t, signer.Sign(req, body))

	assert.Equal(t, "1700000000", req.Header.Get("ACCESS-TIMESTAMP"))

	sig, err := hexutil.Decode(req.Header.Get("ACCESS-SIGN"))
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.GreaterOrEqual(t, sig[64], byte(27))

	// Recover the signing address from the personal-sign digest.
	recoverable := make([]byte, 65)
	copy(recoverable, sig)
	recoverable[64] -= 27

	msg := "1700000000POST/api/orders" + string(body)
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(msg)), recoverable)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))
}

func TestSigner_Sign_QueryIncludedInMessage(t *testing.T) {
	signer, err := NewSigner(testKeyHex)
	require.NoError(t, err)

	frozen := time.Unix(1700000000, 0)
	signer.now = func() time.Time { return frozen }

	req, _ := http.NewRequest(http.MethodDelete, "https://sandbox-t1.sat.is/api/orders?product_id=BTC-PERP", nil)
	require.NoError(t, signer.Sign(req, nil))

	sig, err := hexutil.Decode(req.Header.Get("ACCESS-SIGN"))
	require.NoError(t, err)
	sig[64] -= 27

	msg := "1700000000DELETE/api/orders?product_id=BTC-PERP"
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(msg)), sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))
}
