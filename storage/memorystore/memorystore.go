// Package memorystore provides in-process implementations of the storage
// interfaces. Used by the test suite and by local development runs that
// have no DynamoDB available. All stores are safe for concurrent use.
package memorystore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/manaf-dev/gmsa-voting-app/storage"
)

type ElectionStore struct {
	mu    sync.RWMutex
	items map[string]storage.Election
}

func NewElectionStore() *ElectionStore {
	return &ElectionStore{items: make(map[string]storage.Election)}
}

func (s *ElectionStore) Get(_ context.Context, id string) (*storage.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return &e, nil
}

func (s *ElectionStore) GetAll(_ context.Context) ([]*storage.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*storage.Election, 0, len(s.items))
	for _, e := range s.items {
		e := e
		out = append(out, &e)
	}
	return out, nil
}

func (s *ElectionStore) GetByStatus(_ context.Context, status string) ([]*storage.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*storage.Election
	for _, e := range s.items {
		if e.Status == status {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}

func (s *ElectionStore) Create(_ context.Context, election *storage.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[election.ID]; ok {
		return storage.ErrDuplicateItem
	}
	if election.CreatedAt.IsZero() {
		election.CreatedAt = time.Now().UTC()
	}
	election.UpdatedAt = election.CreatedAt
	s.items[election.ID] = *election
	return nil
}

func (s *ElectionStore) Update(_ context.Context, election *storage.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[election.ID]; !ok {
		return storage.ErrItemNotFound
	}
	election.UpdatedAt = time.Now().UTC()
	s.items[election.ID] = *election
	return nil
}

func (s *ElectionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

type PositionStore struct {
	mu    sync.RWMutex
	items map[string]storage.Position
}

func NewPositionStore() *PositionStore {
	return &PositionStore{items: make(map[string]storage.Position)}
}

func (s *PositionStore) Get(_ context.Context, id string) (*storage.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return &p, nil
}

func (s *PositionStore) GetByElection(_ context.Context, electionID string) ([]*storage.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*storage.Position
	for _, p := range s.items {
		if p.ElectionID == electionID {
			p := p
			out = append(out, &p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *PositionStore) Create(_ context.Context, position *storage.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[position.ID]; ok {
		return storage.ErrDuplicateItem
	}
	s.items[position.ID] = *position
	return nil
}

func (s *PositionStore) Update(_ context.Context, position *storage.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[position.ID]; !ok {
		return storage.ErrItemNotFound
	}
	s.items[position.ID] = *position
	return nil
}

func (s *PositionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

type CandidateStore struct {
	mu    sync.RWMutex
	items map[string]storage.Candidate
}

func NewCandidateStore() *CandidateStore {
	return &CandidateStore{items: make(map[string]storage.Candidate)}
}

func (s *CandidateStore) Get(_ context.Context, id string) (*storage.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return &c, nil
}

func (s *CandidateStore) GetByPosition(_ context.Context, positionID string) ([]*storage.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*storage.Candidate
	for _, c := range s.items {
		if c.PositionID == positionID {
			c := c
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *CandidateStore) Create(_ context.Context, candidate *storage.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[candidate.ID]; ok {
		return storage.ErrDuplicateItem
	}
	s.items[candidate.ID] = *candidate
	return nil
}

func (s *CandidateStore) Update(_ context.Context, candidate *storage.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[candidate.ID]; !ok {
		return storage.ErrItemNotFound
	}
	s.items[candidate.ID] = *candidate
	return nil
}

func (s *CandidateStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// VoteStore keys rows by (token, sort key) and rejects duplicates under a
// single lock, matching the conditional-put semantics of the Dynamo store.
type VoteStore struct {
	mu    sync.Mutex
	items map[string]storage.Vote
}

func NewVoteStore() *VoteStore {
	return &VoteStore{items: make(map[string]storage.Vote)}
}

func voteKey(token, sortKey string) string {
	return token + "|" + sortKey
}

func (s *VoteStore) Create(_ context.Context, vote *storage.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(vote.AnonymousToken, vote.SortKey)
	if _, ok := s.items[key]; ok {
		return storage.ErrDuplicateItem
	}
	s.items[key] = *vote
	return nil
}

func (s *VoteStore) GetByID(_ context.Context, voteID string) (*storage.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.items {
		if v.VoteID == voteID {
			v := v
			return &v, nil
		}
	}
	return nil, storage.ErrItemNotFound
}

func (s *VoteStore) GetByToken(_ context.Context, token string) ([]*storage.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*storage.Vote
	for _, v := range s.items {
		if v.AnonymousToken == token {
			v := v
			out = append(out, &v)
		}
	}
	return out, nil
}

func (s *VoteStore) GetByTokenAndPosition(_ context.Context, token, positionID string) ([]*storage.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := storage.VotePositionSortKey(positionID)
	var out []*storage.Vote
	for _, v := range s.items {
		if v.AnonymousToken == token && strings.HasPrefix(v.SortKey, prefix) {
			v := v
			out = append(out, &v)
		}
	}
	return out, nil
}

func (s *VoteStore) GetByElection(_ context.Context, electionID string) ([]*storage.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*storage.Vote
	for _, v := range s.items {
		if v.ElectionID == electionID {
			v := v
			out = append(out, &v)
		}
	}
	return out, nil
}

func (s *VoteStore) UpdateVerification(_ context.Context, vote *storage.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(vote.AnonymousToken, vote.SortKey)
	stored, ok := s.items[key]
	if !ok {
		return storage.ErrItemNotFound
	}
	stored.SignatureVerified = vote.SignatureVerified
	stored.IntegrityVerified = vote.IntegrityVerified
	s.items[key] = stored
	return nil
}

func (s *VoteStore) Delete(_ context.Context, token, sortKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, voteKey(token, sortKey))
	return nil
}

// Corrupt overwrites the ciphertext of a stored vote. Test hook for the
// corrupted-row tally behavior.
func (s *VoteStore) Corrupt(token, sortKey, ciphertext string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(token, sortKey)
	if v, ok := s.items[key]; ok {
		v.EncryptedVoteData = ciphertext
		s.items[key] = v
	}
}

type AuditLogStore struct {
	mu      sync.Mutex
	entries []storage.AuditLogEntry
}

func NewAuditLogStore() *AuditLogStore {
	return &AuditLogStore{}
}

func (s *AuditLogStore) Append(_ context.Context, entry *storage.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ResourceKey == entry.ResourceKey && e.SortKey == entry.SortKey {
			return storage.ErrDuplicateItem
		}
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *AuditLogStore) GetByResource(_ context.Context, resourceKey string, limit int) ([]*storage.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(limit, func(e storage.AuditLogEntry) bool { return e.ResourceKey == resourceKey }), nil
}

func (s *AuditLogStore) GetByActor(_ context.Context, actorID string, limit int) ([]*storage.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(limit, func(e storage.AuditLogEntry) bool { return e.ActorID == actorID }), nil
}

func (s *AuditLogStore) GetByTimeRange(_ context.Context, from, to time.Time, limit int) ([]*storage.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(limit, func(e storage.AuditLogEntry) bool {
		return !e.Timestamp.Before(from) && !e.Timestamp.After(to)
	}), nil
}

func (s *AuditLogStore) filter(limit int, match func(storage.AuditLogEntry) bool) []*storage.AuditLogEntry {
	var out []*storage.AuditLogEntry
	for _, e := range s.entries {
		if match(e) {
			e := e
			out = append(out, &e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type VotingSessionStore struct {
	mu    sync.Mutex
	items map[string]storage.VotingSession
}

func NewVotingSessionStore() *VotingSessionStore {
	return &VotingSessionStore{items: make(map[string]storage.VotingSession)}
}

func (s *VotingSessionStore) Get(_ context.Context, voterID, electionID string) (*storage.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[storage.SessionKey(voterID, electionID)]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return &sess, nil
}

func (s *VotingSessionStore) Put(_ context.Context, session *storage.VotingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.SessionKey = storage.SessionKey(session.VoterID, session.ElectionID)
	s.items[session.SessionKey] = *session
	return nil
}

func (s *VotingSessionStore) GetSuspicious(_ context.Context) ([]*storage.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*storage.VotingSession
	for _, sess := range s.items {
		if sess.Suspicious {
			sess := sess
			out = append(out, &sess)
		}
	}
	return out, nil
}

type RateLimitStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{counts: make(map[string]int64)}
}

func (s *RateLimitStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := time.Now().UTC().Unix() / int64(window.Seconds())
	k := key + "#" + time.Unix(bucket, 0).UTC().Format(time.RFC3339)
	s.counts[k]++
	return s.counts[k], nil
}

type ElectionResultStore struct {
	mu    sync.Mutex
	items map[string]storage.ElectionResult
}

func NewElectionResultStore() *ElectionResultStore {
	return &ElectionResultStore{items: make(map[string]storage.ElectionResult)}
}

func (s *ElectionResultStore) Get(_ context.Context, electionID string) (*storage.ElectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[electionID]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return &r, nil
}

func (s *ElectionResultStore) Put(_ context.Context, result *storage.ElectionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[result.ElectionID] = *result
	return nil
}
