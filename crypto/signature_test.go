package crypto

import (
	"path/filepath"
	"testing"

	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	logging.Log = logrus.New()

	service, err := NewSignatureService("")
	require.NoError(t, err)
	require.True(t, service.EphemeralKey())

	payload := []byte(`{"candidate_id":"cand-1","position_id":"pos-1"}`)

	t.Run("Happy path - signature verifies", func(t *testing.T) {
		signature, err := service.Sign(payload)
		require.NoError(t, err)
		assert.True(t, service.Verify(payload, signature))
	})

	t.Run("Changed payload fails verification", func(t *testing.T) {
		signature, err := service.Sign(payload)
		require.NoError(t, err)
		assert.False(t, service.Verify([]byte(`{"candidate_id":"cand-2"}`), signature))
	})

	t.Run("Flipped signature bit fails verification", func(t *testing.T) {
		signature, err := service.Sign(payload)
		require.NoError(t, err)
		signature[0] ^= 0x01
		assert.False(t, service.Verify(payload, signature))
	})

	t.Run("Empty and truncated signatures fail verification", func(t *testing.T) {
		signature, err := service.Sign(payload)
		require.NoError(t, err)
		assert.False(t, service.Verify(payload, nil))
		assert.False(t, service.Verify(payload, signature[:10]))
	})

	t.Run("Different key pair fails verification", func(t *testing.T) {
		signature, err := service.Sign(payload)
		require.NoError(t, err)

		other, err := NewSignatureService("")
		require.NoError(t, err)
		assert.False(t, other.Verify(payload, signature))
	})
}

func TestPersistedSigningKey(t *testing.T) {
	logging.Log = logrus.New()

	keyFile := filepath.Join(t.TempDir(), "signing_key.pem")
	require.NoError(t, GenerateSigningKey(keyFile))

	first, err := NewSignatureService(keyFile)
	require.NoError(t, err)
	require.False(t, first.EphemeralKey())

	payload := []byte("persisted payload")
	signature, err := first.Sign(payload)
	require.NoError(t, err)

	t.Run("Signatures verify after reloading the key file", func(t *testing.T) {
		second, err := NewSignatureService(keyFile)
		require.NoError(t, err)
		assert.True(t, second.Verify(payload, signature))
	})

	t.Run("Public key exports as PEM", func(t *testing.T) {
		pemBytes, err := first.PublicKeyPEM()
		require.NoError(t, err)
		assert.Contains(t, string(pemBytes), "BEGIN PUBLIC KEY")
	})

	t.Run("Missing key file is an error", func(t *testing.T) {
		_, err := NewSignatureService(filepath.Join(t.TempDir(), "missing.pem"))
		assert.Error(t, err)
	})
}
