package storage

import "time"

const (
	ElectionStatusUpcoming  = "upcoming"
	ElectionStatusActive    = "active"
	ElectionStatusCompleted = "completed"
	ElectionStatusCancelled = "cancelled"
	ElectionStatusArchived  = "archived"
)

type Election struct {
	ID                            string     `dynamodbav:"PK" json:"id"`
	Title                         string     `dynamodbav:"Title" json:"title"`
	Description                   string     `dynamodbav:"Description" json:"description"`
	StartDate                     time.Time  `dynamodbav:"StartDate" json:"start_date"`
	EndDate                       time.Time  `dynamodbav:"EndDate" json:"end_date"`
	Status                        string     `dynamodbav:"Status" json:"status"`
	CreatedBy                     string     `dynamodbav:"CreatedBy" json:"created_by"`
	CreatedAt                     time.Time  `dynamodbav:"CreatedAt" json:"created_at"`
	UpdatedAt                     time.Time  `dynamodbav:"UpdatedAt" json:"updated_at"`
	AllowMultipleVotesPerPosition bool       `dynamodbav:"AllowMultipleVotes" json:"allow_multiple_votes_per_position"`
	RequireEligibilityCheck       bool       `dynamodbav:"RequireEligibility" json:"require_eligibility_check"`
	ShowResultsAfterVoting        bool       `dynamodbav:"ShowResultsAfterVoting" json:"show_results_after_voting"`
	ResultsPublished              bool       `dynamodbav:"ResultsPublished" json:"results_published"`
	ResultsPublishedAt            *time.Time `dynamodbav:"ResultsPublishedAt,omitempty" json:"results_published_at,omitempty"`
}

type Position struct {
	ID            string `dynamodbav:"PK" json:"id"`
	ElectionID    string `dynamodbav:"ElectionID" json:"election_id"`
	Title         string `dynamodbav:"Title" json:"title"`
	Description   string `dynamodbav:"Description" json:"description"`
	MaxCandidates int    `dynamodbav:"MaxCandidates" json:"max_candidates"`
	Order         int    `dynamodbav:"DisplayOrder" json:"order"`
}

type Candidate struct {
	ID         string `dynamodbav:"PK" json:"id"`
	PositionID string `dynamodbav:"PositionID" json:"position_id"`
	MemberRef  string `dynamodbav:"MemberRef,omitempty" json:"member_ref,omitempty"`
	Name       string `dynamodbav:"Name" json:"name"`
	Manifesto  string `dynamodbav:"Manifesto" json:"manifesto"`
	Order      int    `dynamodbav:"DisplayOrder" json:"order"`
}

// Vote is the at-rest form of a cast ballot selection. The partition key is
// the anonymous voter token and the sort key identifies the position, which
// makes (token, position) a storage-level uniqueness constraint - the final
// backstop against double voting. There is deliberately no voter or
// candidate attribute on the row.
type Vote struct {
	AnonymousToken    string    `dynamodbav:"PK" json:"anonymous_voter_token"`
	SortKey           string    `dynamodbav:"SK" json:"-"`
	VoteID            string    `dynamodbav:"VoteID" json:"id"`
	ElectionID        string    `dynamodbav:"ElectionID" json:"election_id"`
	PositionID        string    `dynamodbav:"PositionID" json:"position_id"`
	Timestamp         time.Time `dynamodbav:"Timestamp" json:"timestamp"`
	IPAddress         string    `dynamodbav:"IPAddress,omitempty" json:"-"`
	EncryptedVoteData string    `dynamodbav:"EncryptedVoteData" json:"-"`
	VoteHash          string    `dynamodbav:"VoteHash" json:"-"`
	DigitalSignature  string    `dynamodbav:"DigitalSignature" json:"-"`
	SignatureVerified bool      `dynamodbav:"SignatureVerified" json:"signature_verified"`
	IntegrityVerified bool      `dynamodbav:"IntegrityVerified" json:"integrity_verified"`
}

// VotePositionSortKey builds the sort key for a vote row.
func VotePositionSortKey(positionID string) string {
	return "pos#" + positionID
}

type AuditLogEntry struct {
	ResourceKey   string            `dynamodbav:"PK" json:"-"`
	SortKey       string            `dynamodbav:"SK" json:"-"`
	ID            string            `dynamodbav:"EntryID" json:"id"`
	Action        string            `dynamodbav:"Action" json:"action"`
	ActorID       string            `dynamodbav:"ActorID,omitempty" json:"actor_id,omitempty"`
	ResourceType  string            `dynamodbav:"ResourceType" json:"resource_type"`
	ResourceID    string            `dynamodbav:"ResourceID" json:"resource_id"`
	Timestamp     time.Time         `dynamodbav:"Timestamp" json:"timestamp"`
	IPAddress     string            `dynamodbav:"IPAddress,omitempty" json:"ip_address,omitempty"`
	UserAgent     string            `dynamodbav:"UserAgent,omitempty" json:"user_agent,omitempty"`
	Details       map[string]string `dynamodbav:"Details,omitempty" json:"details,omitempty"`
	IntegrityHash string            `dynamodbav:"IntegrityHash" json:"integrity_hash"`
}

// AuditResourceKey builds the partition key grouping entries per resource.
func AuditResourceKey(resourceType, resourceID string) string {
	return resourceType + "#" + resourceID
}

type VotingSession struct {
	SessionKey        string    `dynamodbav:"PK" json:"-"`
	ID                string    `dynamodbav:"SessionID" json:"id"`
	VoterID           string    `dynamodbav:"VoterID" json:"voter_id"`
	ElectionID        string    `dynamodbav:"ElectionID" json:"election_id"`
	StartedAt         time.Time `dynamodbav:"StartedAt" json:"started_at"`
	LastSeenAt        time.Time `dynamodbav:"LastSeenAt" json:"last_seen_at"`
	IPAddress         string    `dynamodbav:"IPAddress" json:"ip_address"`
	UserAgent         string    `dynamodbav:"UserAgent" json:"user_agent"`
	VotesCast         int       `dynamodbav:"VotesCast" json:"votes_cast"`
	Suspicious        bool      `dynamodbav:"Suspicious" json:"suspicious"`
	SuspiciousReasons []string  `dynamodbav:"SuspiciousReasons,omitempty" json:"suspicious_reasons,omitempty"`
}

// SessionKey builds the partition key for one (voter, election) session.
func SessionKey(voterID, electionID string) string {
	return voterID + "#" + electionID
}

type ElectionResult struct {
	ElectionID          string    `dynamodbav:"PK" json:"election_id"`
	TotalEligibleVoters int       `dynamodbav:"TotalEligibleVoters" json:"total_eligible_voters"`
	TotalVotesCast      int       `dynamodbav:"TotalVotesCast" json:"total_votes_cast"`
	TurnoutPercentage   float64   `dynamodbav:"TurnoutPercentage" json:"voter_turnout_percentage"`
	GeneratedAt         time.Time `dynamodbav:"GeneratedAt" json:"generated_at"`
	GeneratedBy         string    `dynamodbav:"GeneratedBy" json:"generated_by"`
}
