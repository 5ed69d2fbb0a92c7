package voting

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/manaf-dev/gmsa-voting-app/crypto"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage"
)

// Ledger is the authoritative, privacy-preserving store of cast votes.
// Persisted rows carry only the anonymous token, the encrypted payload and
// its integrity artifacts - the voter/candidate linkage exists at rest
// exclusively inside the ciphertext.
type Ledger struct {
	votes      storage.VoteStorage
	elections  storage.ElectionStorage
	positions  storage.PositionStorage
	candidates storage.CandidateStorage
	engine     *crypto.Engine
	signer     *crypto.SignatureService
	audit      *AuditTrail
	sessions   *SessionTracker
	now        func() time.Time
}

func NewLedger(
	votes storage.VoteStorage,
	elections storage.ElectionStorage,
	positions storage.PositionStorage,
	candidates storage.CandidateStorage,
	engine *crypto.Engine,
	signer *crypto.SignatureService,
	audit *AuditTrail,
	sessions *SessionTracker,
) *Ledger {
	return &Ledger{
		votes:      votes,
		elections:  elections,
		positions:  positions,
		candidates: candidates,
		engine:     engine,
		signer:     signer,
		audit:      audit,
		sessions:   sessions,
		now:        time.Now,
	}
}

// BallotSelection is one position's worth of a submitted ballot. Approve
// is referendum-only semantics: required for single-candidate positions,
// rejected for multi-way ones.
type BallotSelection struct {
	PositionID  string
	CandidateID string
	Approve     *bool
}

// CastVote casts a single vote for a candidate. Approve carries the
// referendum decision and is required when the candidate is the sole one
// on their position, rejected otherwise. Returns the persisted row on
// success; ErrDuplicateVote when the voter already voted for the
// position; ErrElectionNotOpen outside the voting window.
func (l *Ledger) CastVote(ctx context.Context, principal Principal, candidateID string, approve *bool, ip, userAgent string) (*storage.Vote, error) {
	candidate, err := l.candidates.Get(ctx, candidateID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, validationErrorf("invalid candidate")
		}
		return nil, err
	}
	position, err := l.positions.Get(ctx, candidate.PositionID)
	if err != nil {
		return nil, err
	}
	election, err := l.elections.Get(ctx, position.ElectionID)
	if err != nil {
		return nil, err
	}

	if err := l.requireOpen(election); err != nil {
		l.recordRejection(ctx, principal, election, position.ID, err, ip, userAgent)
		return nil, err
	}
	if err := l.requireEligible(election, principal); err != nil {
		l.recordRejection(ctx, principal, election, position.ID, err, ip, userAgent)
		return nil, err
	}

	// A single-candidate position is a referendum and counts yes/no, so
	// a bare candidate vote must not slip into its tally.
	siblings, err := l.candidates.GetByPosition(ctx, position.ID)
	if err != nil {
		return nil, err
	}
	if len(siblings) == 1 {
		if approve == nil {
			err := validationErrorf("position %q is a referendum and requires an approve value", position.Title)
			l.recordRejection(ctx, principal, election, position.ID, err, ip, userAgent)
			return nil, err
		}
	} else if approve != nil {
		err := validationErrorf("position %q is not a referendum, approve is not a valid input", position.Title)
		l.recordRejection(ctx, principal, election, position.ID, err, ip, userAgent)
		return nil, err
	}

	vote, err := l.castOne(ctx, principal, election, position, candidate, approve, ip, userAgent)
	if err != nil {
		l.recordRejection(ctx, principal, election, position.ID, err, ip, userAgent)
		return nil, err
	}

	l.audit.Record(ctx, ActionVoteCast, principal.ID, "position", position.ID,
		map[string]string{"election_id": election.ID, "vote_id": vote.VoteID}, ip, userAgent)
	l.sessions.RecordVote(ctx, principal, election.ID, ip, userAgent)
	return vote, nil
}

// CastBallot submits one selection per position for a whole election
// atomically: every selection is validated before any vote is written, and
// a failed insert rolls back the ballot's earlier inserts so no partial
// state survives.
func (l *Ledger) CastBallot(ctx context.Context, principal Principal, electionID string, selections []BallotSelection, ip, userAgent string) ([]*storage.Vote, error) {
	if len(selections) == 0 {
		return nil, validationErrorf("ballot contains no selections")
	}

	election, err := l.elections.Get(ctx, electionID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := l.requireOpen(election); err != nil {
		l.recordRejection(ctx, principal, election, "", err, ip, userAgent)
		return nil, err
	}
	if err := l.requireEligible(election, principal); err != nil {
		l.recordRejection(ctx, principal, election, "", err, ip, userAgent)
		return nil, err
	}

	resolved, err := l.resolveSelections(ctx, election, selections)
	if err != nil {
		l.recordRejection(ctx, principal, election, "", err, ip, userAgent)
		return nil, err
	}

	votes := make([]*storage.Vote, 0, len(resolved))
	for _, sel := range resolved {
		vote, err := l.castOne(ctx, principal, election, sel.position, sel.candidate, sel.approve, ip, userAgent)
		if err != nil {
			l.rollback(ctx, votes)
			l.recordRejection(ctx, principal, election, sel.position.ID, err, ip, userAgent)
			return nil, err
		}
		votes = append(votes, vote)
	}

	l.audit.Record(ctx, ActionBallotCast, principal.ID, "election", election.ID,
		map[string]string{"positions": strconv.Itoa(len(votes))}, ip, userAgent)
	l.sessions.RecordVote(ctx, principal, election.ID, ip, userAgent)
	return votes, nil
}

type resolvedSelection struct {
	position  *storage.Position
	candidate *storage.Candidate
	approve   *bool
}

// resolveSelections validates the whole ballot against the election before
// anything is written.
func (l *Ledger) resolveSelections(ctx context.Context, election *storage.Election, selections []BallotSelection) ([]resolvedSelection, error) {
	positions, err := l.positions.GetByElection(ctx, election.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*storage.Position, len(positions))
	for _, p := range positions {
		byID[p.ID] = p
	}

	seen := make(map[string]struct{}, len(selections))
	resolved := make([]resolvedSelection, 0, len(selections))

	for _, sel := range selections {
		position, ok := byID[sel.PositionID]
		if !ok {
			return nil, validationErrorf("position %s does not belong to this election", sel.PositionID)
		}
		if _, dup := seen[sel.PositionID]; dup {
			return nil, validationErrorf("ballot contains two selections for position %q", position.Title)
		}
		seen[sel.PositionID] = struct{}{}

		candidates, err := l.candidates.GetByPosition(ctx, position.ID)
		if err != nil {
			return nil, err
		}

		if len(candidates) == 1 {
			// Referendum position: approve/reject the sole candidate.
			if sel.Approve == nil {
				return nil, validationErrorf("position %q is a referendum and requires an approve value", position.Title)
			}
			if sel.CandidateID != "" && sel.CandidateID != candidates[0].ID {
				return nil, validationErrorf("candidate does not belong to position %q", position.Title)
			}
			resolved = append(resolved, resolvedSelection{position: position, candidate: candidates[0], approve: sel.Approve})
			continue
		}

		if sel.Approve != nil {
			return nil, validationErrorf("position %q is not a referendum, approve is not a valid input", position.Title)
		}
		if sel.CandidateID == "" {
			return nil, validationErrorf("a candidate is required for position %q", position.Title)
		}

		var candidate *storage.Candidate
		for _, c := range candidates {
			if c.ID == sel.CandidateID {
				candidate = c
				break
			}
		}
		if candidate == nil {
			return nil, validationErrorf("candidate does not belong to position %q", position.Title)
		}
		resolved = append(resolved, resolvedSelection{position: position, candidate: candidate})
	}

	return resolved, nil
}

// castOne encrypts, hashes, signs and inserts a single vote. The insert is
// optimistic: the storage-layer uniqueness constraint on (token, position)
// is the canonical duplicate signal, so concurrent submissions for the
// same voter and position cannot both succeed.
func (l *Ledger) castOne(ctx context.Context, principal Principal, election *storage.Election, position *storage.Position, candidate *storage.Candidate, approve *bool, ip, userAgent string) (*storage.Vote, error) {
	token := l.engine.AnonymizeVoter(principal.ID, election.ID)
	voteID := uuid.NewString()
	timestamp := l.now().UTC()

	payload := crypto.VotePayload{
		VoterID:       principal.ID,
		VoterName:     principal.Name,
		MemberRef:     principal.MemberRef,
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		PositionID:    position.ID,
		PositionTitle: position.Title,
		ElectionID:    election.ID,
		ElectionTitle: election.Title,
		Approve:       approve,
		Timestamp:     timestamp.Format(time.RFC3339Nano),
	}

	encrypted, err := l.engine.Encrypt(payload)
	if err != nil {
		logging.Log.Errorf("VOTE: encryption failed: %v", err)
		return nil, err
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	signature, err := l.signer.Sign(plaintext)
	if err != nil {
		logging.Log.Errorf("VOTE: signing failed: %v", err)
		return nil, err
	}

	sortKey := storage.VotePositionSortKey(position.ID)
	if election.AllowMultipleVotesPerPosition {
		sortKey += "#" + voteID
	}

	vote := &storage.Vote{
		AnonymousToken:    token,
		SortKey:           sortKey,
		VoteID:            voteID,
		ElectionID:        election.ID,
		PositionID:        position.ID,
		Timestamp:         timestamp,
		IPAddress:         ip,
		EncryptedVoteData: encrypted,
		VoteHash:          l.engine.VoteHash(principal.ID, candidate.ID, position.ID, election.ID, payload.Timestamp),
		DigitalSignature:  hex.EncodeToString(signature),
	}

	if err := l.votes.Create(ctx, vote); err != nil {
		if errors.Is(err, storage.ErrDuplicateItem) {
			return nil, ErrDuplicateVote
		}
		return nil, err
	}
	return vote, nil
}

// recordRejection leaves a best-effort audit trace of a failed vote
// attempt. The entry names the attempt category only, never the
// candidate, so repeated double-vote probes are visible without
// weakening anonymity.
func (l *Ledger) recordRejection(ctx context.Context, principal Principal, election *storage.Election, positionID string, cause error, ip, userAgent string) {
	details := map[string]string{
		"election_id": election.ID,
		"reason":      rejectionReason(cause),
	}
	resourceType, resourceID := "election", election.ID
	if positionID != "" {
		resourceType, resourceID = "position", positionID
	}
	l.audit.Record(ctx, ActionVoteRejected, principal.ID, resourceType, resourceID, details, ip, userAgent)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateVote):
		return "duplicate_vote"
	case errors.Is(err, ErrElectionNotOpen):
		return "election_not_open"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case IsValidationError(err):
		return "invalid_submission"
	default:
		return "internal_error"
	}
}

func (l *Ledger) rollback(ctx context.Context, votes []*storage.Vote) {
	for _, v := range votes {
		if err := l.votes.Delete(ctx, v.AnonymousToken, v.SortKey); err != nil {
			logging.Log.Errorf("VOTE: ballot rollback failed for vote %s: %v", v.VoteID, err)
		}
	}
}

// HasVoted re-derives the caller's anonymous token and checks for an
// existing vote on the position, without touching any ciphertext.
func (l *Ledger) HasVoted(ctx context.Context, principal Principal, positionID string) (bool, error) {
	position, err := l.positions.Get(ctx, positionID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	token := l.engine.AnonymizeVoter(principal.ID, position.ElectionID)
	votes, err := l.votes.GetByTokenAndPosition(ctx, token, positionID)
	if err != nil {
		return false, err
	}
	return len(votes) > 0, nil
}

// VotedPosition is a single entry of a voter's own voting record. It
// exposes when the vote happened, never what it was for.
type VotedPosition struct {
	PositionID string    `json:"position_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// MyVotes lists the positions the caller has already voted on in an
// election.
func (l *Ledger) MyVotes(ctx context.Context, principal Principal, electionID string) ([]VotedPosition, error) {
	token := l.engine.AnonymizeVoter(principal.ID, electionID)
	votes, err := l.votes.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	voted := make([]VotedPosition, 0, len(votes))
	for _, v := range votes {
		if v.ElectionID == electionID {
			voted = append(voted, VotedPosition{PositionID: v.PositionID, Timestamp: v.Timestamp})
		}
	}
	return voted, nil
}

// PositionTally is the per-position aggregation. Multi-way positions fill
// Candidates; referendum votes are split into YesCount/NoCount instead.
type PositionTally struct {
	PositionID string         `json:"position_id"`
	Candidates map[string]int `json:"candidates"`
	YesCount   int            `json:"yes_count"`
	NoCount    int            `json:"no_count"`
	TotalVotes int            `json:"total_votes"`
}

type TallyResult struct {
	ElectionID     string                    `json:"election_id"`
	Positions      map[string]*PositionTally `json:"positions"`
	TotalVotes     int                       `json:"total_votes"`
	CorruptedVotes int                       `json:"corrupted_votes"`
}

// Tally decrypts every vote row for the election and accumulates counts.
// Rows that fail to decrypt are skipped and reported in CorruptedVotes -
// one bad row never fails the whole tally. Counts are raw; any ordering or
// tie presentation is the caller's concern.
func (l *Ledger) Tally(ctx context.Context, electionID string) (*TallyResult, error) {
	votes, err := l.votes.GetByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}

	result := &TallyResult{
		ElectionID: electionID,
		Positions:  make(map[string]*PositionTally),
	}

	for _, vote := range votes {
		payload, err := l.engine.Decrypt(vote.EncryptedVoteData)
		if err != nil {
			logging.Log.Warnf("VOTE: skipping undecryptable vote %s in tally: %v", vote.VoteID, err)
			result.CorruptedVotes++
			continue
		}

		tally, ok := result.Positions[vote.PositionID]
		if !ok {
			tally = &PositionTally{PositionID: vote.PositionID, Candidates: make(map[string]int)}
			result.Positions[vote.PositionID] = tally
		}

		if payload.Approve != nil {
			if *payload.Approve {
				tally.YesCount++
			} else {
				tally.NoCount++
			}
		} else {
			tally.Candidates[payload.CandidateID]++
		}
		tally.TotalVotes++
		result.TotalVotes++
	}

	return result, nil
}

// IntegrityReport is the outcome of a forensic spot-check on one vote.
type IntegrityReport struct {
	VoteID            string `json:"vote_id"`
	IsValid           bool   `json:"is_valid"`
	SignatureVerified bool   `json:"signature_verified"`
	IntegrityVerified bool   `json:"integrity_verified"`
	Reason            string `json:"reason,omitempty"`
}

// VerifyVoteIntegrity decrypts a stored vote, recomputes its hash and
// re-verifies its signature, persisting both verification flags. A failed
// check reports is_valid false - it is never coerced to true.
func (l *Ledger) VerifyVoteIntegrity(ctx context.Context, principal Principal, voteID string) (*IntegrityReport, error) {
	if !principal.IsAdministrator() {
		return nil, ErrForbidden
	}

	vote, err := l.votes.GetByID(ctx, voteID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	report := &IntegrityReport{VoteID: voteID}

	payload, err := l.engine.Decrypt(vote.EncryptedVoteData)
	if err != nil {
		report.Reason = "vote data could not be decrypted"
		l.persistVerification(ctx, vote, false, false)
		return report, nil
	}

	report.IntegrityVerified = l.engine.VerifyVoteHash(
		vote.VoteHash,
		payload.VoterID, payload.CandidateID, payload.PositionID, payload.ElectionID, payload.Timestamp,
	)

	plaintext, err := json.Marshal(payload)
	if err == nil {
		if sig, decErr := hex.DecodeString(vote.DigitalSignature); decErr == nil {
			report.SignatureVerified = l.signer.Verify(plaintext, sig)
		}
	}

	report.IsValid = report.IntegrityVerified && report.SignatureVerified
	if !report.IsValid && report.Reason == "" {
		report.Reason = "integrity or signature verification failed"
	}

	l.persistVerification(ctx, vote, report.SignatureVerified, report.IntegrityVerified)
	l.audit.Record(ctx, ActionVoteVerified, principal.ID, "vote", voteID,
		map[string]string{"is_valid": boolString(report.IsValid)}, "", "")
	return report, nil
}

func (l *Ledger) persistVerification(ctx context.Context, vote *storage.Vote, signatureOK, integrityOK bool) {
	vote.SignatureVerified = signatureOK
	vote.IntegrityVerified = integrityOK
	if err := l.votes.UpdateVerification(ctx, vote); err != nil {
		logging.Log.Warnf("VOTE: failed to persist verification flags for %s: %v", vote.VoteID, err)
	}
}

func (l *Ledger) requireOpen(election *storage.Election) error {
	if election.Status != storage.ElectionStatusActive {
		return ErrElectionNotOpen
	}
	now := l.now().UTC()
	if now.Before(election.StartDate) || now.After(election.EndDate) {
		return ErrElectionNotOpen
	}
	return nil
}

func (l *Ledger) requireEligible(election *storage.Election, principal Principal) error {
	if election.RequireEligibilityCheck && !principal.CanVote {
		return ErrNotEligible
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
