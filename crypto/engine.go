package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/manaf-dev/gmsa-voting-app/logging"
	"golang.org/x/crypto/chacha20poly1305"
)

// VotePayload is the plaintext vote record. It exists in this form only
// inside the encryption boundary - at rest the whole struct lives in a
// single ciphertext blob on the Vote row.
type VotePayload struct {
	VoterID       string `json:"voter_id"`
	VoterName     string `json:"voter_name"`
	MemberRef     string `json:"member_ref,omitempty"`
	CandidateID   string `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
	PositionID    string `json:"position_id"`
	PositionTitle string `json:"position_title"`
	ElectionID    string `json:"election_id"`
	ElectionTitle string `json:"election_title"`
	Approve       *bool  `json:"approve,omitempty"`
	Timestamp     string `json:"timestamp"`
}

type envelope struct {
	VoteData  VotePayload `json:"vote_data"`
	Nonce     string      `json:"nonce"`
	Timestamp string      `json:"timestamp"`
}

// Engine encrypts vote payloads, computes integrity hashes and derives
// anonymous voter tokens. The encryption key, the HMAC secret and the
// anonymization salt are three independent secrets.
type Engine struct {
	key        []byte
	hashSecret []byte
	anonSalt   string
	ephemeral  bool
}

// NewEngine builds an Engine from configured key material. The encryption
// key is accepted as base64url of 32 bytes, 64 hex chars, or a raw 32-byte
// string. An absent or malformed key falls back to a generated one so the
// process can still start, but votes encrypted under it are unreadable
// after a restart.
func NewEngine(encryptionKey, hashSecret, anonymizationSalt string) (*Engine, error) {
	key, err := parseSymmetricKey(encryptionKey)
	ephemeral := false
	if err != nil {
		logging.Log.Warnf("CRYPTO: %v, generating ephemeral encryption key - votes will NOT survive a restart", err)
		key = make([]byte, chacha20poly1305.KeySize)
		if _, rerr := rand.Read(key); rerr != nil {
			return nil, rerr
		}
		ephemeral = true
	}

	if hashSecret == "" {
		logging.Log.Warnf("CRYPTO: vote hash secret is not configured, using generated secret")
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		hashSecret = hex.EncodeToString(buf)
	}
	if anonymizationSalt == "" {
		logging.Log.Warnf("CRYPTO: voter anonymization salt is not configured, using generated salt")
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		anonymizationSalt = hex.EncodeToString(buf)
	}

	return &Engine{
		key:        key,
		hashSecret: []byte(hashSecret),
		anonSalt:   anonymizationSalt,
		ephemeral:  ephemeral,
	}, nil
}

// EphemeralKey reports whether the engine runs on a generated, non-durable
// encryption key. Surfaced as a startup warning by the server.
func (e *Engine) EphemeralKey() bool {
	return e.ephemeral
}

func parseSymmetricKey(material string) ([]byte, error) {
	if material == "" {
		return nil, fmt.Errorf("%w: no key configured", ErrInvalidKeyMaterial)
	}

	if decoded, err := base64.URLEncoding.DecodeString(material); err == nil && len(decoded) == chacha20poly1305.KeySize {
		return decoded, nil
	}
	if len(material) == 64 {
		if raw, err := hex.DecodeString(material); err == nil {
			return raw, nil
		}
	}
	if len(material) == chacha20poly1305.KeySize {
		return []byte(material), nil
	}

	return nil, fmt.Errorf("%w: expected base64url, hex or raw 32 bytes", ErrInvalidKeyMaterial)
}

// Encrypt seals the payload with XChaCha20-Poly1305. A random nonce field
// inside the envelope makes two identical selections produce different
// ciphertexts even before the AEAD nonce is applied.
func (e *Engine) Encrypt(payload VotePayload) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(envelope{
		VoteData:  payload,
		Nonce:     hex.EncodeToString(nonce),
		Timestamp: payload.Timestamp,
	})
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return "", err
	}

	aeadNonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(aeadNonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(aeadNonce, aeadNonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed input, a rotated key or any
// tampering with the ciphertext yields ErrDecryptionFailed.
func (e *Engine) Decrypt(encrypted string) (VotePayload, error) {
	raw, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return VotePayload{}, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if len(raw) <= chacha20poly1305.NonceSizeX {
		return VotePayload{}, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return VotePayload{}, err
	}

	nonce, sealed := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return VotePayload{}, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return VotePayload{}, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return env.VoteData, nil
}

// VoteHash computes an HMAC-SHA256 fingerprint over the identifying vote
// fields. Used for integrity re-verification only, never for lookups.
func (e *Engine) VoteHash(voterID, candidateID, positionID, electionID, timestamp string) string {
	voteString := strings.Join([]string{voterID, candidateID, positionID, electionID, timestamp}, ":")
	mac := hmac.New(sha256.New, e.hashSecret)
	mac.Write([]byte(voteString))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyVoteHash recomputes the vote hash and compares in constant time.
func (e *Engine) VerifyVoteHash(expected, voterID, candidateID, positionID, electionID, timestamp string) bool {
	computed := e.VoteHash(voterID, candidateID, positionID, electionID, timestamp)
	return hmac.Equal([]byte(expected), []byte(computed))
}

// AnonymizeVoter derives the anonymous voter token: a one-way hash of the
// voter and election identifiers plus the deployment salt. The token is
// scoped per election, not per position - the (token, position) storage key
// supplies the per-position duplicate-prevention dimension.
func (e *Engine) AnonymizeVoter(voterID, electionID string) string {
	combined := fmt.Sprintf("%s:%s:%s", voterID, electionID, e.anonSalt)
	sum := sha256.Sum256([]byte(combined))
	return "anon_" + hex.EncodeToString(sum[:])[:16]
}

// AuditHash produces a deterministic fingerprint of structured audit data
// using a sorted-key canonical serialization.
func (e *Engine) AuditHash(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(data[k])
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
