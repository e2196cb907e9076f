package catalog

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
)

// MaxKeySize is the maximum allowed size for a PGP public key (100KB).
const MaxKeySize = 100 * 1024

// SignatureError reports why a bundle signature was rejected. Verification
// failures are terminal: an unverifiable bundle is never loaded.
type SignatureError struct {
	Bundle string
	Reason string
	Err    error
}

func (e *SignatureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bundle %s: %s: %v", e.Bundle, e.Reason, e.Err)
	}
	return fmt.Sprintf("bundle %s: %s", e.Bundle, e.Reason)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// LoadSigningKey parses an armored PGP public key and, when expectedFP is
// non-empty, pins it to that fingerprint.
func LoadSigningKey(armored string, expectedFP string) (*crypto.Key, error) {
	if len(armored) > MaxKeySize {
		return nil, fmt.Errorf("signing key exceeds maximum size of %d bytes", MaxKeySize)
	}
	key, err := crypto.NewKeyFromArmored(armored)
	if err != nil {
		return nil, fmt.Errorf("parsing signing key: %w", err)
	}
	if key.IsPrivate() {
		return nil, fmt.Errorf("signing key is a private key; bundles are verified with the public key")
	}
	if expectedFP != "" {
		want, err := ParseFingerprint(expectedFP)
		if err != nil {
			return nil, err
		}
		got := strings.ToUpper(key.GetFingerprint())
		if got != want {
			return nil, fmt.Errorf("signing key fingerprint mismatch: expected %s, got %s",
				FormatFingerprint(want), FormatFingerprint(got))
		}
	}
	return key, nil
}

// VerifyBundle checks bundlePath against a detached signature using the
// given public key. Armored and binary signatures are both accepted.
func VerifyBundle(bundlePath string, signature []byte, key *crypto.Key) error {
	data, err := os.ReadFile(bundlePath)
	if err != nil {
		return &SignatureError{Bundle: bundlePath, Reason: "reading bundle", Err: err}
	}

	sig, err := crypto.NewPGPSignatureFromArmored(string(signature))
	if err != nil {
		sig = crypto.NewPGPSignature(signature)
	}

	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return &SignatureError{Bundle: bundlePath, Reason: "building keyring", Err: err}
	}

	message := crypto.NewPlainMessage(data)
	// verifyTime 0 accepts signatures regardless of when they were made.
	if err := keyRing.VerifyDetached(message, sig, 0); err != nil {
		return &SignatureError{Bundle: bundlePath, Reason: "signature verification failed", Err: err}
	}
	return nil
}

// FormatFingerprint formats a fingerprint in the standard GPG display
// format (groups of 4).
func FormatFingerprint(fp string) string {
	fp = strings.ToUpper(strings.ReplaceAll(fp, " ", ""))
	if len(fp) != 40 {
		return fp
	}
	var parts []string
	for i := 0; i < 40; i += 4 {
		parts = append(parts, fp[i:i+4])
	}
	return strings.Join(parts, " ")
}

// ParseFingerprint normalizes a fingerprint by removing spaces and
// uppercasing. It rejects anything that is not 40 hex characters.
func ParseFingerprint(fp string) (string, error) {
	fp = strings.ToUpper(strings.ReplaceAll(fp, " ", ""))
	if len(fp) != 40 {
		return "", fmt.Errorf("fingerprint must be 40 hex characters, got %d", len(fp))
	}
	if _, err := hex.DecodeString(fp); err != nil {
		return "", fmt.Errorf("fingerprint contains invalid hex characters: %w", err)
	}
	return fp, nil
}
