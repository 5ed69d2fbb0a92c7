package voting

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/manaf-dev/gmsa-voting-app/crypto"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage/memorystore"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuditTrail(t *testing.T) (*AuditTrail, *memorystore.AuditLogStore) {
	t.Helper()
	logging.Log = logrus.New()

	engine, err := crypto.NewEngine(
		base64.URLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		"test-hash-secret", "test-salt")
	require.NoError(t, err)

	store := memorystore.NewAuditLogStore()
	return NewAuditTrail(store, engine), store
}

func TestAuditRecordAndVerify(t *testing.T) {
	trail, _ := setupAuditTrail(t)

	t.Run("Recorded entry carries a verifiable hash", func(t *testing.T) {
		entry := trail.Record(context.Background(), ActionVoteCast, "voter-1", "position", "pos-1",
			map[string]string{"election_id": "elec-1"}, "1.2.3.4", "agent")
		require.NotNil(t, entry)
		assert.NotEmpty(t, entry.IntegrityHash)
		assert.True(t, trail.VerifyEntry(entry))
	})

	t.Run("Tampering with any field breaks verification", func(t *testing.T) {
		entry := trail.Record(context.Background(), ActionVoteCast, "voter-1", "position", "pos-1", nil, "", "")
		require.NotNil(t, entry)

		tampered := *entry
		tampered.ActorID = "someone-else"
		assert.False(t, trail.VerifyEntry(&tampered))

		tampered = *entry
		tampered.Action = ActionVoteVerified
		assert.False(t, trail.VerifyEntry(&tampered))

		tampered = *entry
		tampered.Details = map[string]string{"injected": "value"}
		assert.False(t, trail.VerifyEntry(&tampered))
	})
}

func TestAuditQueries(t *testing.T) {
	trail, _ := setupAuditTrail(t)
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		trail.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		entry := trail.Record(context.Background(), ActionStatusChanged, "admin-1", "election", "elec-1",
			map[string]string{"step": fmt.Sprintf("%d", i)}, "", "")
		require.NotNil(t, entry)
	}
	trail.now = func() time.Time { return base.Add(time.Minute) }
	require.NotNil(t, trail.Record(context.Background(), ActionVoteCast, "voter-1", "position", "pos-1", nil, "", ""))

	t.Run("ByResource returns matching entries newest first", func(t *testing.T) {
		entries, err := trail.ByResource(context.Background(), "election", "elec-1")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for i := 1; i < len(entries); i++ {
			assert.False(t, entries[i].Timestamp.After(entries[i-1].Timestamp))
		}
	})

	t.Run("ByActor filters on the acting principal", func(t *testing.T) {
		entries, err := trail.ByActor(context.Background(), "voter-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ActionVoteCast, entries[0].Action)
	})

	t.Run("ByTimeRange bounds the window", func(t *testing.T) {
		entries, err := trail.ByTimeRange(context.Background(), base.Add(-time.Second), base.Add(10*time.Second))
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("Queries cap at the page size", func(t *testing.T) {
		capped, _ := setupAuditTrail(t)
		for i := 0; i < maxAuditPageSize+20; i++ {
			capped.now = func() time.Time { return base.Add(time.Duration(i) * time.Millisecond) }
			require.NotNil(t, capped.Record(context.Background(), ActionVoteCast, "voter-1", "position", "pos-1",
				map[string]string{"i": fmt.Sprintf("%d", i)}, "", ""))
		}

		entries, err := capped.ByActor(context.Background(), "voter-1")
		require.NoError(t, err)
		assert.Len(t, entries, maxAuditPageSize)
	})
}
