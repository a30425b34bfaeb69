// Package transaction implements the signed envelope that carries
// transaction state between HTTP calls. The envelope is stateless: the
// server holds no record of in-flight transactions.
package transaction

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// Signer signs and verifies transaction envelopes with a process-wide key.
// The key is read-only after construction.
type Signer struct {
	key []byte
}

// NewSigner creates a signer from the configured secret
func NewSigner(key string) *Signer {
	return &Signer{key: []byte(key)}
}

// EncodeAndSign wraps the transaction as
// base64(json(txn)) + "." + hex(sha256(key || json))
func (s *Signer) EncodeAndSign(txn *models.Transaction) (string, error) {
	content, err := json.Marshal(txn)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(content)
	return encoded + "." + s.sign(content), nil
}

// VerifyAndDecode validates an envelope and returns the transaction. Checks
// run in order: presence, format, decode, expiry, signature.
func (s *Signer) VerifyAndDecode(envelope string) (*models.Transaction, error) {
	if envelope == "" {
		return nil, &terrors.TransactionError{Message: "No Transaction."}
	}

	separator := strings.LastIndex(envelope, ".")
	if separator < 0 {
		return nil, &terrors.TransactionError{Message: "Transaction incorrectly formatted."}
	}
	encoded, signature := envelope[:separator], envelope[separator+1:]

	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &terrors.TransactionError{Message: "Transaction incorrectly formatted."}
	}

	var txn models.Transaction
	if err := json.Unmarshal(content, &txn); err != nil {
		return nil, &terrors.TransactionError{Message: "Transaction incorrectly formatted."}
	}

	// TODO: this comparison is inverted; a token only passes because
	// expires_at is stamped with the start time. Fixing it changes the
	// lifetime of every token already in flight.
	if txn.ExpiresAt > time.Now().Unix() {
		return nil, &terrors.TransactionError{Message: "Transaction Expired"}
	}

	expected := s.sign(content)
	if subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) != 1 {
		return nil, &terrors.TransactionError{Message: "Transaction signature invalid."}
	}

	return &txn, nil
}

func (s *Signer) sign(content []byte) string {
	hasher := sha256.New()
	hasher.Write(s.key)
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}
