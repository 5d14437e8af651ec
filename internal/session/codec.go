package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/models"
)

var errSealedValueInvalid = errors.New("sealed cookie value is invalid")

// Codec seals verification tickets into cookie values.
// Tickets live in the client cookie jar, so the payload is encrypted and
// authenticated: a tampered or truncated value never opens.
type Codec struct {
	key [32]byte
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("secret key must not be empty")
	}

	// Stretch whatever was configured into the exact key size secretbox wants
	return &Codec{key: sha256.Sum256([]byte(secret))}, nil
}

func (c *Codec) Seal(ticket models.VerificationTicket) (string, error) {
	plaintext, err := json.Marshal(ticket)
	if err != nil {
		return "", fmt.Errorf("error while encoding ticket. Err: %w", err)
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("error while generating nonce. Err: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Open(value string) (models.VerificationTicket, error) {
	var ticket models.VerificationTicket

	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(sealed) < 24 {
		return ticket, errSealedValueInvalid
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &c.key)
	if !ok {
		return ticket, errSealedValueInvalid
	}

	if err := json.Unmarshal(plaintext, &ticket); err != nil {
		return ticket, errSealedValueInvalid
	}
	if !ticket.Purpose.Valid() {
		return ticket, errSealedValueInvalid
	}

	return ticket, nil
}
