package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/manaf-dev/gmsa-voting-app/logging"
)

const signingKeyBits = 2048

// SignatureService signs vote payloads with RSA-PSS. It is a
// non-repudiation layer independent of the symmetric encryption key.
//
// The signing key is loaded from a PEM file so that signatures remain
// verifiable across process restarts. A missing key file degrades to a
// generated in-memory pair with a loud warning.
type SignatureService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	ephemeral  bool
}

func NewSignatureService(keyFile string) (*SignatureService, error) {
	if keyFile != "" {
		key, err := loadSigningKey(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key from %s: %w", keyFile, err)
		}
		return &SignatureService{privateKey: key, publicKey: &key.PublicKey}, nil
	}

	logging.Log.Warnf("CRYPTO: no signing key file configured, generating ephemeral key pair - signatures will NOT verify across restarts")
	key, err := rsa.GenerateKey(rand.Reader, signingKeyBits)
	if err != nil {
		return nil, err
	}
	return &SignatureService{privateKey: key, publicKey: &key.PublicKey, ephemeral: true}, nil
}

// EphemeralKey reports whether the service runs on a generated key pair.
func (s *SignatureService) EphemeralKey() bool {
	return s.ephemeral
}

func loadSigningKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("signing key is not an RSA key")
	}
	return key, nil
}

// GenerateSigningKey creates a new RSA key pair and writes it to path in
// PKCS#8 PEM form. Intended for deliberate key provisioning, not runtime.
func GenerateSigningKey(path string) error {
	key, err := rsa.GenerateKey(rand.Reader, signingKeyBits)
	if err != nil {
		return err
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return err
	}

	out := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return os.WriteFile(path, out, 0o600)
}

// Sign produces an RSA-PSS signature over the payload bytes.
func (s *SignatureService) Sign(payload []byte) ([]byte, error) {
	digest := sha256.Sum256(payload)
	return rsa.SignPSS(rand.Reader, s.privateKey, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	})
}

// Verify checks an RSA-PSS signature. Every failure mode, including
// malformed or truncated input, maps to false.
func (s *SignatureService) Verify(payload, signature []byte) bool {
	if len(signature) == 0 {
		return false
	}
	digest := sha256.Sum256(payload)
	err := rsa.VerifyPSS(s.publicKey, crypto.SHA256, digest[:], signature, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	})
	return err == nil
}

// PublicKeyPEM exposes the verification key for external auditors.
func (s *SignatureService) PublicKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(s.publicKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
