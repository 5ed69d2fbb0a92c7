package voting

import (
	"context"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/manaf-dev/gmsa-voting-app/crypto"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage"
)

// maxAuditPageSize bounds every audit query so a reporting endpoint can
// never trigger an unbounded scan.
const maxAuditPageSize = 100

const (
	ActionVoteCast        = "vote_cast"
	ActionVoteRejected    = "vote_rejected"
	ActionVoteVerified    = "vote_verified"
	ActionBallotCast      = "ballot_cast"
	ActionElectionCreated = "election_created"
	ActionElectionUpdated = "election_updated"
	ActionStatusChanged   = "election_status_changed"
	ActionResultsCreated  = "results_generated"
	ActionResultsPublic   = "results_published"
)

// AuditTrail records security-relevant actions as tamper-evident entries.
// Recording is best-effort: a failing audit store never fails the primary
// operation that triggered it.
type AuditTrail struct {
	store  storage.AuditLogStorage
	engine *crypto.Engine
	now    func() time.Time
}

func NewAuditTrail(store storage.AuditLogStorage, engine *crypto.Engine) *AuditTrail {
	return &AuditTrail{store: store, engine: engine, now: time.Now}
}

// Record computes the integrity hash at creation time and appends the
// entry. The hash is never recomputed afterwards - a later mismatch on
// VerifyEntry signals tampering.
func (a *AuditTrail) Record(ctx context.Context, action, actorID, resourceType, resourceID string, details map[string]string, ip, userAgent string) *storage.AuditLogEntry {
	id, err := gonanoid.New()
	if err != nil {
		logging.Log.Errorf("AUDIT: failed to generate entry id: %v", err)
		return nil
	}

	ts := a.now().UTC()
	entry := &storage.AuditLogEntry{
		ResourceKey:  storage.AuditResourceKey(resourceType, resourceID),
		SortKey:      ts.Format(time.RFC3339Nano) + "#" + id,
		ID:           id,
		Action:       action,
		ActorID:      actorID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Timestamp:    ts,
		IPAddress:    ip,
		UserAgent:    userAgent,
		Details:      details,
	}
	entry.IntegrityHash = a.engine.AuditHash(canonicalAuditForm(entry))

	if err := a.store.Append(ctx, entry); err != nil {
		logging.Log.Errorf("AUDIT: failed to append %s entry for %s: %v", action, entry.ResourceKey, err)
		return nil
	}
	return entry
}

// VerifyEntry recomputes the integrity hash over the stored fields.
func (a *AuditTrail) VerifyEntry(entry *storage.AuditLogEntry) bool {
	return a.engine.AuditHash(canonicalAuditForm(entry)) == entry.IntegrityHash
}

func canonicalAuditForm(entry *storage.AuditLogEntry) map[string]string {
	form := map[string]string{
		"action":        entry.Action,
		"actor_id":      entry.ActorID,
		"resource_type": entry.ResourceType,
		"resource_id":   entry.ResourceID,
		"timestamp":     entry.Timestamp.UTC().Format(time.RFC3339Nano),
		"ip_address":    entry.IPAddress,
		"user_agent":    entry.UserAgent,
	}
	for k, v := range entry.Details {
		form["detail:"+k] = v
	}
	return form
}

func (a *AuditTrail) ByResource(ctx context.Context, resourceType, resourceID string) ([]*storage.AuditLogEntry, error) {
	return a.store.GetByResource(ctx, storage.AuditResourceKey(resourceType, resourceID), maxAuditPageSize)
}

func (a *AuditTrail) ByActor(ctx context.Context, actorID string) ([]*storage.AuditLogEntry, error) {
	return a.store.GetByActor(ctx, actorID, maxAuditPageSize)
}

func (a *AuditTrail) ByTimeRange(ctx context.Context, from, to time.Time) ([]*storage.AuditLogEntry, error) {
	return a.store.GetByTimeRange(ctx, from, to, maxAuditPageSize)
}
