package voting

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/manaf-dev/gmsa-voting-app/crypto"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage"
	"github.com/manaf-dev/gmsa-voting-app/storage/memorystore"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryFixture struct {
	registry   *Registry
	elections  *memorystore.ElectionStore
	positions  *memorystore.PositionStore
	candidates *memorystore.CandidateStore
	votes      *memorystore.VoteStore
	results    *memorystore.ElectionResultStore
}

func setupRegistry(t *testing.T) *registryFixture {
	t.Helper()
	logging.Log = logrus.New()

	engine, err := crypto.NewEngine(
		base64.URLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		"test-hash-secret", "test-salt")
	require.NoError(t, err)

	f := &registryFixture{
		elections:  memorystore.NewElectionStore(),
		positions:  memorystore.NewPositionStore(),
		candidates: memorystore.NewCandidateStore(),
		votes:      memorystore.NewVoteStore(),
		results:    memorystore.NewElectionResultStore(),
	}
	auditTrail := NewAuditTrail(memorystore.NewAuditLogStore(), engine)
	f.registry = NewRegistry(f.elections, f.positions, f.candidates, f.votes, f.results, auditTrail, NopNotifier{})
	return f
}

func (f *registryFixture) createElection(t *testing.T, status string) *storage.Election {
	t.Helper()
	now := time.Now().UTC()
	election := &storage.Election{
		Title:     "Executive Elections",
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	}
	require.NoError(t, f.registry.CreateElection(context.Background(), admin(), election))
	if status != storage.ElectionStatusUpcoming {
		election.Status = status
		require.NoError(t, f.elections.Update(context.Background(), election))
	}
	return election
}

func TestCreateElection(t *testing.T) {
	t.Run("Happy path - created upcoming", func(t *testing.T) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusUpcoming)

		assert.NotEmpty(t, election.ID)
		assert.Equal(t, storage.ElectionStatusUpcoming, election.Status)
		assert.Equal(t, "admin-1", election.CreatedBy)
	})

	t.Run("Non-administrator is forbidden", func(t *testing.T) {
		f := setupRegistry(t)
		err := f.registry.CreateElection(context.Background(), voter("v1"), &storage.Election{Title: "x"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Missing title and inverted dates are validation errors", func(t *testing.T) {
		f := setupRegistry(t)
		now := time.Now().UTC()

		err := f.registry.CreateElection(context.Background(), admin(), &storage.Election{
			StartDate: now, EndDate: now.Add(time.Hour),
		})
		assert.True(t, IsValidationError(err))

		err = f.registry.CreateElection(context.Background(), admin(), &storage.Election{
			Title: "x", StartDate: now.Add(time.Hour), EndDate: now,
		})
		assert.True(t, IsValidationError(err))
	})
}

func TestUpdateElection(t *testing.T) {
	t.Run("Upcoming election is editable", func(t *testing.T) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusUpcoming)

		updated := *election
		updated.Title = "Renamed"
		require.NoError(t, f.registry.UpdateElection(context.Background(), admin(), &updated))

		stored, err := f.registry.Election(context.Background(), election.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", stored.Title)
	})

	t.Run("Active, completed and cancelled elections are not editable", func(t *testing.T) {
		f := setupRegistry(t)
		for _, status := range []string{storage.ElectionStatusActive, storage.ElectionStatusCompleted, storage.ElectionStatusCancelled} {
			election := f.createElection(t, status)
			updated := *election
			updated.Title = "Renamed"
			err := f.registry.UpdateElection(context.Background(), admin(), &updated)
			assert.True(t, IsValidationError(err), "status %s should block edits", status)
		}
	})

	t.Run("Edits cannot flip state machine owned fields", func(t *testing.T) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusUpcoming)

		updated := *election
		updated.Status = storage.ElectionStatusCompleted
		updated.ResultsPublished = true
		require.NoError(t, f.registry.UpdateElection(context.Background(), admin(), &updated))

		stored, err := f.registry.Election(context.Background(), election.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.ElectionStatusUpcoming, stored.Status)
		assert.False(t, stored.ResultsPublished)
	})
}

func TestElectionStateMachine(t *testing.T) {
	t.Run("Cancel is legal from upcoming only", func(t *testing.T) {
		f := setupRegistry(t)

		upcoming := f.createElection(t, storage.ElectionStatusUpcoming)
		require.NoError(t, f.registry.CancelElection(context.Background(), admin(), upcoming.ID))

		stored, err := f.registry.Election(context.Background(), upcoming.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.ElectionStatusCancelled, stored.Status)

		active := f.createElection(t, storage.ElectionStatusActive)
		err = f.registry.CancelElection(context.Background(), admin(), active.ID)
		assert.True(t, IsValidationError(err))
	})

	t.Run("Reconcile activates due elections and completes expired ones", func(t *testing.T) {
		f := setupRegistry(t)
		now := time.Now().UTC()

		due := f.createElection(t, storage.ElectionStatusUpcoming)

		notYet := &storage.Election{
			Title:     "Future Elections",
			StartDate: now.Add(time.Hour),
			EndDate:   now.Add(2 * time.Hour),
		}
		require.NoError(t, f.registry.CreateElection(context.Background(), admin(), notYet))

		expired := f.createElection(t, storage.ElectionStatusActive)
		expired.EndDate = now.Add(-time.Minute)
		require.NoError(t, f.elections.Update(context.Background(), expired))

		require.NoError(t, f.registry.Reconcile(context.Background()))

		stored, _ := f.registry.Election(context.Background(), due.ID)
		assert.Equal(t, storage.ElectionStatusActive, stored.Status)

		stored, _ = f.registry.Election(context.Background(), notYet.ID)
		assert.Equal(t, storage.ElectionStatusUpcoming, stored.Status)

		stored, _ = f.registry.Election(context.Background(), expired.ID)
		assert.Equal(t, storage.ElectionStatusCompleted, stored.Status)
	})

	t.Run("Archive requires completed with published results", func(t *testing.T) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusCompleted)

		err := f.registry.ArchiveElection(context.Background(), admin(), election.ID)
		assert.True(t, IsValidationError(err))

		require.NoError(t, f.registry.PublishResults(context.Background(), admin(), election.ID))
		require.NoError(t, f.registry.ArchiveElection(context.Background(), admin(), election.ID))

		stored, err := f.registry.Election(context.Background(), election.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.ElectionStatusArchived, stored.Status)
	})
}

func TestPublishResults(t *testing.T) {
	t.Run("Publication is completed-only and one-way", func(t *testing.T) {
		f := setupRegistry(t)

		active := f.createElection(t, storage.ElectionStatusActive)
		err := f.registry.PublishResults(context.Background(), admin(), active.ID)
		assert.True(t, IsValidationError(err))

		completed := f.createElection(t, storage.ElectionStatusCompleted)
		require.NoError(t, f.registry.PublishResults(context.Background(), admin(), completed.ID))

		stored, err := f.registry.Election(context.Background(), completed.ID)
		require.NoError(t, err)
		assert.True(t, stored.ResultsPublished)
		require.NotNil(t, stored.ResultsPublishedAt)

		// Publishing twice is rejected.
		err = f.registry.PublishResults(context.Background(), admin(), completed.ID)
		assert.True(t, IsValidationError(err))
	})

	t.Run("Non-administrator is forbidden", func(t *testing.T) {
		f := setupRegistry(t)
		completed := f.createElection(t, storage.ElectionStatusCompleted)
		err := f.registry.PublishResults(context.Background(), voter("v1"), completed.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestGenerateResults(t *testing.T) {
	f := setupRegistry(t)
	election := f.createElection(t, storage.ElectionStatusActive)

	// Two voters, three votes: turnout counts distinct tokens, not rows.
	for i, v := range []*storage.Vote{
		{AnonymousToken: "anon_t1", SortKey: "pos#a", VoteID: "vote-1"},
		{AnonymousToken: "anon_t1", SortKey: "pos#b", VoteID: "vote-2"},
		{AnonymousToken: "anon_t2", SortKey: "pos#a", VoteID: "vote-3"},
	} {
		v.ElectionID = election.ID
		v.PositionID = "pos-x"
		require.NoError(t, f.votes.Create(context.Background(), v), "vote %d", i)
	}

	result, err := f.registry.GenerateResults(context.Background(), admin(), election.ID, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalVotesCast)
	assert.InDelta(t, 20.0, result.TurnoutPercentage, 0.001)

	// Generating results completes an active election.
	stored, err := f.registry.Election(context.Background(), election.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ElectionStatusCompleted, stored.Status)

	// The record is retrievable afterwards.
	persisted, err := f.registry.Result(context.Background(), election.ID)
	require.NoError(t, err)
	assert.Equal(t, result.TotalVotesCast, persisted.TotalVotesCast)
}

func TestVisibleElections(t *testing.T) {
	f := setupRegistry(t)

	f.createElection(t, storage.ElectionStatusUpcoming)
	f.createElection(t, storage.ElectionStatusActive)
	hidden := f.createElection(t, storage.ElectionStatusCompleted)
	f.createElection(t, storage.ElectionStatusCancelled)
	f.createElection(t, storage.ElectionStatusArchived)

	visible, err := f.registry.VisibleElections(context.Background(), voter("v1"))
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	// Publishing makes the completed election visible.
	require.NoError(t, f.registry.PublishResults(context.Background(), admin(), hidden.ID))
	visible, err = f.registry.VisibleElections(context.Background(), voter("v1"))
	require.NoError(t, err)
	assert.Len(t, visible, 3)

	// Administrators see everything.
	all, err := f.registry.VisibleElections(context.Background(), admin())
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestPositionManagement(t *testing.T) {
	t.Run("Duplicate titles within an election are rejected", func(t *testing.T) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusUpcoming)

		first := &storage.Position{ElectionID: election.ID, Title: "President"}
		require.NoError(t, f.registry.CreatePosition(context.Background(), admin(), first))

		err := f.registry.CreatePosition(context.Background(), admin(), &storage.Position{ElectionID: election.ID, Title: "President"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("Positions cannot be added to an active election", func(t *testing.T) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusActive)

		err := f.registry.CreatePosition(context.Background(), admin(), &storage.Position{ElectionID: election.ID, Title: "President"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("Positions cannot be added to a cancelled election", func(t *testing.T) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusCancelled)

		err := f.registry.CreatePosition(context.Background(), admin(), &storage.Position{ElectionID: election.ID, Title: "President"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("Delete is blocked while candidates exist", func(t *testing.T) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusUpcoming)

		position := &storage.Position{ElectionID: election.ID, Title: "President", MaxCandidates: 3}
		require.NoError(t, f.registry.CreatePosition(context.Background(), admin(), position))
		require.NoError(t, f.registry.AddCandidate(context.Background(), admin(), &storage.Candidate{PositionID: position.ID, Name: "Ama"}))

		err := f.registry.DeletePosition(context.Background(), admin(), position.ID)
		assert.True(t, IsValidationError(err))
	})
}

func TestCandidateManagement(t *testing.T) {
	setup := func(t *testing.T) (*registryFixture, *storage.Election, *storage.Position) {
		f := setupRegistry(t)
		election := f.createElection(t, storage.ElectionStatusUpcoming)
		position := &storage.Position{ElectionID: election.ID, Title: "President", MaxCandidates: 2}
		require.NoError(t, f.registry.CreatePosition(context.Background(), admin(), position))
		return f, election, position
	}

	t.Run("Candidate list caps at MaxCandidates", func(t *testing.T) {
		f, _, position := setup(t)

		require.NoError(t, f.registry.AddCandidate(context.Background(), admin(), &storage.Candidate{PositionID: position.ID, Name: "Ama", MemberRef: "M-1"}))
		require.NoError(t, f.registry.AddCandidate(context.Background(), admin(), &storage.Candidate{PositionID: position.ID, Name: "Kofi", MemberRef: "M-2"}))

		err := f.registry.AddCandidate(context.Background(), admin(), &storage.Candidate{PositionID: position.ID, Name: "Esi", MemberRef: "M-3"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("Duplicate member on a position is rejected", func(t *testing.T) {
		f, _, position := setup(t)

		require.NoError(t, f.registry.AddCandidate(context.Background(), admin(), &storage.Candidate{PositionID: position.ID, Name: "Ama", MemberRef: "M-1"}))
		err := f.registry.AddCandidate(context.Background(), admin(), &storage.Candidate{PositionID: position.ID, Name: "Ama Again", MemberRef: "M-1"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("Only the manifesto can change during an active election", func(t *testing.T) {
		f, election, position := setup(t)

		candidate := &storage.Candidate{PositionID: position.ID, Name: "Ama", MemberRef: "M-1", Manifesto: "old"}
		require.NoError(t, f.registry.AddCandidate(context.Background(), admin(), candidate))

		election.Status = storage.ElectionStatusActive
		require.NoError(t, f.elections.Update(context.Background(), election))

		updated := *candidate
		updated.Manifesto = "new"
		require.NoError(t, f.registry.UpdateCandidate(context.Background(), admin(), &updated, true))

		renamed := *candidate
		renamed.Name = "Someone Else"
		err := f.registry.UpdateCandidate(context.Background(), admin(), &renamed, false)
		assert.True(t, IsValidationError(err))
	})

	t.Run("Delete is blocked once the position has votes", func(t *testing.T) {
		f, election, position := setup(t)

		candidate := &storage.Candidate{PositionID: position.ID, Name: "Ama", MemberRef: "M-1"}
		require.NoError(t, f.registry.AddCandidate(context.Background(), admin(), candidate))

		require.NoError(t, f.votes.Create(context.Background(), &storage.Vote{
			AnonymousToken: "anon_t1",
			SortKey:        storage.VotePositionSortKey(position.ID),
			VoteID:         "vote-1",
			ElectionID:     election.ID,
			PositionID:     position.ID,
		}))

		err := f.registry.DeleteCandidate(context.Background(), admin(), candidate.ID)
		assert.True(t, IsValidationError(err))
	})
}
