package satis

import (
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces the SATIS request signature headers.
// The venue authenticates with an Ethereum personal-sign of
// timestamp + METHOD + path + body under the account's secp256k1 key.
type Signer struct {
	key *ecdsa.PrivateKey
	now func() time.Time
}

// NewSigner parses a hex-encoded private key (with or without 0x prefix).
func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("satis auth: invalid signing key: %w", err)
	}
	return &Signer{key: key, now: time.Now}, nil
}

// Address returns the Ethereum address of the signing key.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign sets ACCESS-SIGN, ACCESS-TIMESTAMP, and Content-Type on req.
// body must be the exact request body bytes (nil for body-less requests).
func (s *Signer) Sign(req *http.Request, body []byte) error {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	msg := ts + req.Method + req.URL.RequestURI() + string(body)

	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), s.key)
	if err != nil {
		return fmt.Errorf("satis auth: sign request: %w", err)
	}
	// Recovery id as 27/28, matching personal_sign conventions.
	sig[64] += 27

	req.Header.Set("ACCESS-SIGN", hexutil.Encode(sig))
	req.Header.Set("ACCESS-TIMESTAMP", ts)
	req.Header.Set("Content-Type", "application/json")
	return nil
}
