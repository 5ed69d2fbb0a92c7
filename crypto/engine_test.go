package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.URLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logging.Log = logrus.New()

	engine, err := NewEngine(testKey(), "test-hash-secret", "test-salt")
	require.NoError(t, err)
	require.False(t, engine.EphemeralKey())
	return engine
}

func TestEncryptDecrypt(t *testing.T) {
	engine := newTestEngine(t)

	payload := VotePayload{
		VoterID:       "voter-1",
		VoterName:     "Ama Mensah",
		CandidateID:   "cand-1",
		CandidateName: "Kofi Boateng",
		PositionID:    "pos-1",
		PositionTitle: "President",
		ElectionID:    "elec-1",
		ElectionTitle: "Executive Elections",
		Timestamp:     "2026-03-01T10:00:00Z",
	}

	t.Run("Happy path - round trip preserves the payload", func(t *testing.T) {
		encrypted, err := engine.Encrypt(payload)
		require.NoError(t, err)

		decrypted, err := engine.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, payload, decrypted)
	})

	t.Run("Identical payloads produce distinct ciphertexts", func(t *testing.T) {
		first, err := engine.Encrypt(payload)
		require.NoError(t, err)
		second, err := engine.Encrypt(payload)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("Tampered ciphertext fails to decrypt", func(t *testing.T) {
		encrypted, err := engine.Encrypt(payload)
		require.NoError(t, err)

		raw, err := base64.URLEncoding.DecodeString(encrypted)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0x01
		tampered := base64.URLEncoding.EncodeToString(raw)

		_, err = engine.Decrypt(tampered)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("Garbage input fails to decrypt", func(t *testing.T) {
		_, err := engine.Decrypt("not base64 at all!!!")
		assert.ErrorIs(t, err, ErrDecryptionFailed)

		_, err = engine.Decrypt(base64.URLEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("Different key cannot decrypt", func(t *testing.T) {
		encrypted, err := engine.Encrypt(payload)
		require.NoError(t, err)

		other, err := NewEngine(base64.URLEncoding.EncodeToString([]byte("fedcba9876543210fedcba9876543210")), "test-hash-secret", "test-salt")
		require.NoError(t, err)

		_, err = other.Decrypt(encrypted)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestKeyMaterialParsing(t *testing.T) {
	logging.Log = logrus.New()

	t.Run("Accepts 64 hex chars", func(t *testing.T) {
		engine, err := NewEngine(strings.Repeat("ab", 32), "s", "s")
		require.NoError(t, err)
		assert.False(t, engine.EphemeralKey())
	})

	t.Run("Accepts raw 32 byte string", func(t *testing.T) {
		engine, err := NewEngine("0123456789abcdef0123456789abcdef", "s", "s")
		require.NoError(t, err)
		assert.False(t, engine.EphemeralKey())
	})

	t.Run("Empty key falls back to an ephemeral one", func(t *testing.T) {
		engine, err := NewEngine("", "s", "s")
		require.NoError(t, err)
		assert.True(t, engine.EphemeralKey())
	})

	t.Run("Malformed key falls back to an ephemeral one", func(t *testing.T) {
		engine, err := NewEngine("way-too-short", "s", "s")
		require.NoError(t, err)
		assert.True(t, engine.EphemeralKey())
	})
}

func TestVoteHash(t *testing.T) {
	engine := newTestEngine(t)

	hash := engine.VoteHash("voter-1", "cand-1", "pos-1", "elec-1", "2026-03-01T10:00:00Z")

	t.Run("Verification succeeds for matching fields", func(t *testing.T) {
		assert.True(t, engine.VerifyVoteHash(hash, "voter-1", "cand-1", "pos-1", "elec-1", "2026-03-01T10:00:00Z"))
	})

	t.Run("Any changed field fails verification", func(t *testing.T) {
		assert.False(t, engine.VerifyVoteHash(hash, "voter-2", "cand-1", "pos-1", "elec-1", "2026-03-01T10:00:00Z"))
		assert.False(t, engine.VerifyVoteHash(hash, "voter-1", "cand-2", "pos-1", "elec-1", "2026-03-01T10:00:00Z"))
		assert.False(t, engine.VerifyVoteHash(hash, "voter-1", "cand-1", "pos-2", "elec-1", "2026-03-01T10:00:00Z"))
		assert.False(t, engine.VerifyVoteHash(hash, "voter-1", "cand-1", "pos-1", "elec-2", "2026-03-01T10:00:00Z"))
		assert.False(t, engine.VerifyVoteHash(hash, "voter-1", "cand-1", "pos-1", "elec-1", "2026-03-01T10:00:01Z"))
	})

	t.Run("Different secret produces a different hash", func(t *testing.T) {
		other, err := NewEngine(testKey(), "another-secret", "test-salt")
		require.NoError(t, err)
		assert.NotEqual(t, hash, other.VoteHash("voter-1", "cand-1", "pos-1", "elec-1", "2026-03-01T10:00:00Z"))
	})
}

func TestAnonymizeVoter(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("Token is stable for the same voter and election", func(t *testing.T) {
		first := engine.AnonymizeVoter("voter-1", "elec-1")
		second := engine.AnonymizeVoter("voter-1", "elec-1")
		assert.Equal(t, first, second)
	})

	t.Run("Token format is anon_ plus 16 hex chars", func(t *testing.T) {
		token := engine.AnonymizeVoter("voter-1", "elec-1")
		assert.True(t, strings.HasPrefix(token, "anon_"))
		assert.Len(t, token, len("anon_")+16)
	})

	t.Run("Token differs per election", func(t *testing.T) {
		assert.NotEqual(t, engine.AnonymizeVoter("voter-1", "elec-1"), engine.AnonymizeVoter("voter-1", "elec-2"))
	})

	t.Run("Token differs per voter", func(t *testing.T) {
		assert.NotEqual(t, engine.AnonymizeVoter("voter-1", "elec-1"), engine.AnonymizeVoter("voter-2", "elec-1"))
	})

	t.Run("Token does not contain the voter identifier", func(t *testing.T) {
		token := engine.AnonymizeVoter("voter-1", "elec-1")
		assert.NotContains(t, token, "voter-1")
	})

	t.Run("Token depends on the salt", func(t *testing.T) {
		other, err := NewEngine(testKey(), "test-hash-secret", "another-salt")
		require.NoError(t, err)
		assert.NotEqual(t, engine.AnonymizeVoter("voter-1", "elec-1"), other.AnonymizeVoter("voter-1", "elec-1"))
	})
}

func TestAuditHash(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("Deterministic regardless of map iteration order", func(t *testing.T) {
		data := map[string]string{"action": "vote_cast", "actor": "anon_abc", "resource": "pos-1"}
		first := engine.AuditHash(data)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, engine.AuditHash(data))
		}
	})

	t.Run("Changed value changes the hash", func(t *testing.T) {
		base := engine.AuditHash(map[string]string{"action": "vote_cast"})
		changed := engine.AuditHash(map[string]string{"action": "vote_verified"})
		assert.NotEqual(t, base, changed)
	})
}
