package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage"
)

// Registry owns the election/position/candidate hierarchy and the election
// status state machine:
//
//	upcoming -> active -> completed -> archived
//	upcoming -> cancelled
//
// Activation and completion are time-driven via Reconcile; completion can
// also happen through an explicit generate-results action. Archiving and
// cancellation are always manual.
type Registry struct {
	elections  storage.ElectionStorage
	positions  storage.PositionStorage
	candidates storage.CandidateStorage
	votes      storage.VoteStorage
	results    storage.ElectionResultStorage
	audit      *AuditTrail
	notifier   Notifier
	now        func() time.Time
}

func NewRegistry(
	elections storage.ElectionStorage,
	positions storage.PositionStorage,
	candidates storage.CandidateStorage,
	votes storage.VoteStorage,
	results storage.ElectionResultStorage,
	audit *AuditTrail,
	notifier Notifier,
) *Registry {
	return &Registry{
		elections:  elections,
		positions:  positions,
		candidates: candidates,
		votes:      votes,
		results:    results,
		audit:      audit,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (r *Registry) Election(ctx context.Context, id string) (*storage.Election, error) {
	election, err := r.elections.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return election, nil
}

// VisibleElections filters the election list for non-administrators, who
// only see upcoming and active elections plus completed ones with
// published results.
func (r *Registry) VisibleElections(ctx context.Context, principal Principal) ([]*storage.Election, error) {
	elections, err := r.elections.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if principal.IsAdministrator() {
		return elections, nil
	}

	visible := make([]*storage.Election, 0, len(elections))
	for _, e := range elections {
		switch e.Status {
		case storage.ElectionStatusUpcoming, storage.ElectionStatusActive:
			visible = append(visible, e)
		case storage.ElectionStatusCompleted:
			if e.ResultsPublished {
				visible = append(visible, e)
			}
		}
	}
	return visible, nil
}

func (r *Registry) CreateElection(ctx context.Context, principal Principal, election *storage.Election) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}
	if election.Title == "" {
		return validationErrorf("election title is required")
	}
	if !election.EndDate.After(election.StartDate) {
		return validationErrorf("election end date must be after start date")
	}

	election.ID = uuid.NewString()
	election.Status = storage.ElectionStatusUpcoming
	election.CreatedBy = principal.ID
	election.ResultsPublished = false
	election.ResultsPublishedAt = nil

	if err := r.elections.Create(ctx, election); err != nil {
		return err
	}
	r.audit.Record(ctx, ActionElectionCreated, principal.ID, "election", election.ID,
		map[string]string{"title": election.Title}, "", "")
	return nil
}

func (r *Registry) UpdateElection(ctx context.Context, principal Principal, election *storage.Election) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	current, err := r.Election(ctx, election.ID)
	if err != nil {
		return err
	}
	switch current.Status {
	case storage.ElectionStatusActive, storage.ElectionStatusCompleted,
		storage.ElectionStatusCancelled, storage.ElectionStatusArchived:
		return validationErrorf("cannot edit an election with status %s", current.Status)
	}
	if !election.EndDate.After(election.StartDate) {
		return validationErrorf("election end date must be after start date")
	}

	// Status and publication state are owned by the state machine, not the
	// edit surface.
	election.Status = current.Status
	election.CreatedBy = current.CreatedBy
	election.CreatedAt = current.CreatedAt
	election.ResultsPublished = current.ResultsPublished
	election.ResultsPublishedAt = current.ResultsPublishedAt

	if err := r.elections.Update(ctx, election); err != nil {
		return err
	}
	r.audit.Record(ctx, ActionElectionUpdated, principal.ID, "election", election.ID, nil, "", "")
	return nil
}

// CancelElection is the alternate terminal transition, legal from upcoming
// only.
func (r *Registry) CancelElection(ctx context.Context, principal Principal, electionID string) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	election, err := r.Election(ctx, electionID)
	if err != nil {
		return err
	}
	if election.Status != storage.ElectionStatusUpcoming {
		return validationErrorf("only upcoming elections can be cancelled, current status is %s", election.Status)
	}

	return r.transition(ctx, election, storage.ElectionStatusCancelled, principal.ID)
}

// GenerateResults completes an active election (or revisits a completed
// one), computes turnout against the eligible-voter count supplied by the
// identity provider, and stores the official result record.
func (r *Registry) GenerateResults(ctx context.Context, principal Principal, electionID string, totalEligibleVoters int) (*storage.ElectionResult, error) {
	if !principal.IsAdministrator() {
		return nil, ErrForbidden
	}

	election, err := r.Election(ctx, electionID)
	if err != nil {
		return nil, err
	}
	switch election.Status {
	case storage.ElectionStatusActive, storage.ElectionStatusCompleted:
	default:
		return nil, validationErrorf("cannot generate results for an election with status %s", election.Status)
	}

	votes, err := r.votes.GetByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}

	voters := make(map[string]struct{})
	for _, v := range votes {
		voters[v.AnonymousToken] = struct{}{}
	}

	turnout := 0.0
	if totalEligibleVoters > 0 {
		turnout = float64(len(voters)) / float64(totalEligibleVoters) * 100
	}

	result := &storage.ElectionResult{
		ElectionID:          electionID,
		TotalEligibleVoters: totalEligibleVoters,
		TotalVotesCast:      len(votes),
		TurnoutPercentage:   turnout,
		GeneratedAt:         r.now().UTC(),
		GeneratedBy:         principal.ID,
	}
	if err := r.results.Put(ctx, result); err != nil {
		return nil, err
	}

	if election.Status == storage.ElectionStatusActive {
		if err := r.transition(ctx, election, storage.ElectionStatusCompleted, principal.ID); err != nil {
			return nil, err
		}
	}

	r.audit.Record(ctx, ActionResultsCreated, principal.ID, "election", electionID,
		map[string]string{"total_votes": fmt.Sprintf("%d", len(votes))}, "", "")
	return result, nil
}

// PublishResults is a one-way manual transition, legal only for completed
// elections. It stamps the publication time permanently and fires the
// outbound notifier without blocking on delivery.
func (r *Registry) PublishResults(ctx context.Context, principal Principal, electionID string) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	election, err := r.Election(ctx, electionID)
	if err != nil {
		return err
	}
	if election.Status != storage.ElectionStatusCompleted {
		return validationErrorf("results can only be published for completed elections, current status is %s", election.Status)
	}
	if election.ResultsPublished {
		return validationErrorf("results are already published")
	}

	publishedAt := r.now().UTC()
	election.ResultsPublished = true
	election.ResultsPublishedAt = &publishedAt

	if err := r.elections.Update(ctx, election); err != nil {
		return err
	}

	r.audit.Record(ctx, ActionResultsPublic, principal.ID, "election", electionID, nil, "", "")
	if err := r.notifier.Send(ctx, "members", fmt.Sprintf("Results for %q are now available.", election.Title)); err != nil {
		logging.Log.Warnf("ELECTION: results notification for %s failed: %v", electionID, err)
	}
	return nil
}

// ArchiveElection is manual and only permitted after results were
// published.
func (r *Registry) ArchiveElection(ctx context.Context, principal Principal, electionID string) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	election, err := r.Election(ctx, electionID)
	if err != nil {
		return err
	}
	if election.Status != storage.ElectionStatusCompleted {
		return validationErrorf("only completed elections can be archived, current status is %s", election.Status)
	}
	if !election.ResultsPublished {
		return validationErrorf("results must be published before archiving")
	}

	return r.transition(ctx, election, storage.ElectionStatusArchived, principal.ID)
}

// Reconcile applies the time-driven transitions: upcoming elections whose
// start has passed become active, active elections past their end become
// completed. Run periodically, not per request.
func (r *Registry) Reconcile(ctx context.Context) error {
	now := r.now().UTC()

	upcoming, err := r.elections.GetByStatus(ctx, storage.ElectionStatusUpcoming)
	if err != nil {
		return err
	}
	for _, e := range upcoming {
		if !now.Before(e.StartDate) {
			if err := r.transition(ctx, e, storage.ElectionStatusActive, ""); err != nil {
				logging.Log.Errorf("ELECTION: failed to activate %s: %v", e.ID, err)
			}
		}
	}

	active, err := r.elections.GetByStatus(ctx, storage.ElectionStatusActive)
	if err != nil {
		return err
	}
	for _, e := range active {
		if now.After(e.EndDate) {
			if err := r.transition(ctx, e, storage.ElectionStatusCompleted, ""); err != nil {
				logging.Log.Errorf("ELECTION: failed to complete %s: %v", e.ID, err)
			}
		}
	}
	return nil
}

func (r *Registry) transition(ctx context.Context, election *storage.Election, newStatus, actorID string) error {
	oldStatus := election.Status
	election.Status = newStatus
	if err := r.elections.Update(ctx, election); err != nil {
		election.Status = oldStatus
		return err
	}

	logging.Log.Infof("ELECTION: %s transitioned %s -> %s", election.ID, oldStatus, newStatus)
	r.audit.Record(ctx, ActionStatusChanged, actorID, "election", election.ID,
		map[string]string{"from": oldStatus, "to": newStatus}, "", "")
	return nil
}

// Positions lists an election's positions ordered for display.
func (r *Registry) Positions(ctx context.Context, electionID string) ([]*storage.Position, error) {
	return r.positions.GetByElection(ctx, electionID)
}

func (r *Registry) Position(ctx context.Context, id string) (*storage.Position, error) {
	position, err := r.positions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return position, nil
}

func (r *Registry) CreatePosition(ctx context.Context, principal Principal, position *storage.Position) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	election, err := r.Election(ctx, position.ElectionID)
	if err != nil {
		return err
	}
	if err := r.requireEditable(election); err != nil {
		return err
	}
	if position.Title == "" {
		return validationErrorf("position title is required")
	}

	existing, err := r.positions.GetByElection(ctx, position.ElectionID)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.Title == position.Title {
			return validationErrorf("a position titled %q already exists in this election", position.Title)
		}
	}

	position.ID = uuid.NewString()
	return r.positions.Create(ctx, position)
}

func (r *Registry) UpdatePosition(ctx context.Context, principal Principal, position *storage.Position) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	current, err := r.Position(ctx, position.ID)
	if err != nil {
		return err
	}
	election, err := r.Election(ctx, current.ElectionID)
	if err != nil {
		return err
	}
	if err := r.requireEditable(election); err != nil {
		return err
	}

	position.ElectionID = current.ElectionID
	return r.positions.Update(ctx, position)
}

func (r *Registry) DeletePosition(ctx context.Context, principal Principal, positionID string) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	position, err := r.Position(ctx, positionID)
	if err != nil {
		return err
	}
	election, err := r.Election(ctx, position.ElectionID)
	if err != nil {
		return err
	}
	if err := r.requireEditable(election); err != nil {
		return err
	}

	candidates, err := r.candidates.GetByPosition(ctx, positionID)
	if err != nil {
		return err
	}
	if len(candidates) > 0 {
		return validationErrorf("cannot delete a position that has candidates")
	}

	return r.positions.Delete(ctx, positionID)
}

func (r *Registry) Candidates(ctx context.Context, positionID string) ([]*storage.Candidate, error) {
	return r.candidates.GetByPosition(ctx, positionID)
}

func (r *Registry) Candidate(ctx context.Context, id string) (*storage.Candidate, error) {
	candidate, err := r.candidates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return candidate, nil
}

func (r *Registry) AddCandidate(ctx context.Context, principal Principal, candidate *storage.Candidate) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	position, err := r.Position(ctx, candidate.PositionID)
	if err != nil {
		return err
	}
	election, err := r.Election(ctx, position.ElectionID)
	if err != nil {
		return err
	}
	if err := r.requireEditable(election); err != nil {
		return err
	}
	if candidate.Name == "" {
		return validationErrorf("candidate name is required")
	}

	existing, err := r.candidates.GetByPosition(ctx, candidate.PositionID)
	if err != nil {
		return err
	}
	if position.MaxCandidates > 0 && len(existing) >= position.MaxCandidates {
		return validationErrorf("position already has the maximum of %d candidates", position.MaxCandidates)
	}
	for _, c := range existing {
		if candidate.MemberRef != "" && c.MemberRef == candidate.MemberRef {
			return validationErrorf("this member is already a candidate for the position")
		}
	}

	candidate.ID = uuid.NewString()
	return r.candidates.Create(ctx, candidate)
}

// UpdateCandidate allows full edits while the election is editable, and
// manifesto-only edits while it is active.
func (r *Registry) UpdateCandidate(ctx context.Context, principal Principal, candidate *storage.Candidate, manifestoOnly bool) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	current, err := r.Candidate(ctx, candidate.ID)
	if err != nil {
		return err
	}
	position, err := r.Position(ctx, current.PositionID)
	if err != nil {
		return err
	}
	election, err := r.Election(ctx, position.ElectionID)
	if err != nil {
		return err
	}

	if election.Status == storage.ElectionStatusActive {
		if !manifestoOnly {
			return validationErrorf("during active elections only the manifesto can be updated")
		}
		current.Manifesto = candidate.Manifesto
		return r.candidates.Update(ctx, current)
	}
	if err := r.requireEditable(election); err != nil {
		return err
	}

	candidate.PositionID = current.PositionID
	return r.candidates.Update(ctx, candidate)
}

func (r *Registry) DeleteCandidate(ctx context.Context, principal Principal, candidateID string) error {
	if !principal.IsAdministrator() {
		return ErrForbidden
	}

	candidate, err := r.Candidate(ctx, candidateID)
	if err != nil {
		return err
	}
	position, err := r.Position(ctx, candidate.PositionID)
	if err != nil {
		return err
	}
	election, err := r.Election(ctx, position.ElectionID)
	if err != nil {
		return err
	}
	if err := r.requireEditable(election); err != nil {
		return err
	}

	votes, err := r.votes.GetByElection(ctx, election.ID)
	if err != nil {
		return err
	}
	for _, v := range votes {
		if v.PositionID == candidate.PositionID {
			return validationErrorf("cannot remove a candidate from a position that already has votes")
		}
	}

	return r.candidates.Delete(ctx, candidateID)
}

func (r *Registry) Result(ctx context.Context, electionID string) (*storage.ElectionResult, error) {
	result, err := r.results.Get(ctx, electionID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return result, nil
}

func (r *Registry) requireEditable(election *storage.Election) error {
	switch election.Status {
	case storage.ElectionStatusActive, storage.ElectionStatusCompleted,
		storage.ElectionStatusCancelled, storage.ElectionStatusArchived:
		return validationErrorf("cannot modify positions or candidates for an election with status %s", election.Status)
	}
	return nil
}
