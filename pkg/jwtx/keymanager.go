package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand/v2"
	"time"
)

// KeyManager owns the service's signing keys. Keys are ephemeral: generated
// at startup, never persisted, so all minted tokens are invalidated by a
// restart. Multiple keys are kept so signing load is spread and a future
// rotation scheme has somewhere to hang off.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	signers []Signer
}

// KeyManagerOptions configures NewEphemeralKeyManager.
type KeyManagerOptions struct {
	// Issuer is the issuer claim (iss) validated on verification. Required.
	Issuer string

	// NumKeys is how many Ed25519 signing keys to generate. Defaults to 3,
	// capped at 10.
	NumKeys int

	// TimeFunc is the time source the verifier validates exp/nbf against.
	// Defaults to time.Now.
	TimeFunc func() time.Time
}

// NewEphemeralKeyManager generates NumKeys Ed25519 keypairs in memory and
// wires them into a KeySet, a round-robin-ish Signer pool, and a Verifier.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	numKeys := opts.NumKeys
	if numKeys <= 0 {
		numKeys = 3
	}
	if numKeys > 10 {
		numKeys = 10
	}

	keyset := NewKeySet()
	signers := make([]Signer, 0, numKeys)

	for i := range numKeys {
		kid, err := randomKeyID()
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate key id: %w", err)
		}

		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signer %d: %w", i+1, err)
		}

		signer, err := NewSignerEdDSA(kid, priv)
		if err != nil {
			return nil, err
		}

		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: register signer %d: %w", i+1, err)
		}
		signers = append(signers, signer)
	}

	verifier := NewVerifierEdDSA(keyset, opts.Issuer)
	if opts.TimeFunc != nil {
		verifier.WithTimeFunc(opts.TimeFunc)
	}

	return &KeyManager{
		Verifier: verifier,
		KeySet:   keyset,
		signers:  signers,
	}, nil
}

// GetSigner picks one of the signing keys at random.
func (m *KeyManager) GetSigner() Signer {
	return m.signers[mrand.IntN(len(m.signers))]
}

func randomKeyID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
