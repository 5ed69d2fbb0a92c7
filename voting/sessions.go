package voting

import (
	"context"
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage"
)

// maxVotesPerSession is the velocity threshold above which a session gets
// flagged for review.
const maxVotesPerSession = 10

// SessionTracker maintains one voting session per (voter, election) and
// flags suspicious activity. The flags are advisory signals for
// administrators - they never block a vote.
type SessionTracker struct {
	store storage.VotingSessionStorage
	now   func() time.Time
}

func NewSessionTracker(store storage.VotingSessionStorage) *SessionTracker {
	return &SessionTracker{store: store, now: time.Now}
}

// RecordVote updates the caller's session after a successful cast:
// increments the vote count and compares IP and user agent against the
// values captured at session start. Tracking failures are logged and
// swallowed.
func (t *SessionTracker) RecordVote(ctx context.Context, principal Principal, electionID, ip, userAgent string) {
	session, err := t.store.Get(ctx, principal.ID, electionID)
	if err != nil {
		if !errors.Is(err, storage.ErrItemNotFound) {
			logging.Log.Warnf("SESSION: lookup failed for voter %s: %v", principal.ID, err)
			return
		}
		id, idErr := gonanoid.New()
		if idErr != nil {
			logging.Log.Warnf("SESSION: failed to generate session id: %v", idErr)
			return
		}
		session = &storage.VotingSession{
			ID:         id,
			VoterID:    principal.ID,
			ElectionID: electionID,
			StartedAt:  t.now().UTC(),
			IPAddress:  ip,
			UserAgent:  userAgent,
		}
	}

	session.VotesCast++
	session.LastSeenAt = t.now().UTC()

	if session.IPAddress != ip {
		t.markSuspicious(session, "IP address changed during session")
	}
	if session.UserAgent != userAgent {
		t.markSuspicious(session, "user agent changed during session")
	}
	if session.VotesCast > maxVotesPerSession {
		t.markSuspicious(session, "unusually high number of votes in session")
	}

	if err := t.store.Put(ctx, session); err != nil {
		logging.Log.Warnf("SESSION: failed to persist session for voter %s: %v", principal.ID, err)
	}
}

func (t *SessionTracker) markSuspicious(session *storage.VotingSession, reason string) {
	session.Suspicious = true
	for _, r := range session.SuspiciousReasons {
		if r == reason {
			return
		}
	}
	session.SuspiciousReasons = append(session.SuspiciousReasons, reason)
	logging.Log.Warnf("SESSION: session %s flagged: %s", session.ID, reason)
}

// SuspiciousSessions lists flagged sessions for the admin reporting
// endpoint.
func (t *SessionTracker) SuspiciousSessions(ctx context.Context) ([]*storage.VotingSession, error) {
	return t.store.GetSuspicious(ctx)
}
