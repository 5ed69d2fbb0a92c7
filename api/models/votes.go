package models

import (
	"time"

	"github.com/manaf-dev/gmsa-voting-app/voting"
)

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
	// Approve is the referendum decision, required when the candidate is
	// the only one standing for their position.
	Approve *bool `json:"approve,omitempty"`
}

type CastVoteResponse struct {
	Message string `json:"message"`
	VoteID  string `json:"vote_id"`
}

type BallotSelectionEntry struct {
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id,omitempty"`
	Approve     *bool  `json:"approve,omitempty"`
}

type CastBallotRequest struct {
	ElectionID string                 `json:"election_id"`
	Selections []BallotSelectionEntry `json:"selections"`
}

func (r CastBallotRequest) ToSelections() []voting.BallotSelection {
	selections := make([]voting.BallotSelection, 0, len(r.Selections))
	for _, s := range r.Selections {
		selections = append(selections, voting.BallotSelection{
			PositionID:  s.PositionID,
			CandidateID: s.CandidateID,
			Approve:     s.Approve,
		})
	}
	return selections
}

type CastBallotResponse struct {
	Message   string   `json:"message"`
	VoteIDs   []string `json:"vote_ids"`
	Positions int      `json:"positions"`
}

type VoteStatusResponse struct {
	PositionID string `json:"position_id"`
	HasVoted   bool   `json:"has_voted"`
}

type MyVotesResponse struct {
	ElectionID     string                 `json:"election_id"`
	VotedPositions []voting.VotedPosition `json:"voted_positions"`
	CanStillVote   bool                   `json:"can_still_vote"`
}

type PositionTallyResponse struct {
	PositionID string         `json:"position_id"`
	Title      string         `json:"title"`
	Candidates map[string]int `json:"candidates"`
	YesCount   int            `json:"yes_count"`
	NoCount    int            `json:"no_count"`
	TotalVotes int            `json:"total_votes"`
}

type TallyResponse struct {
	ElectionID     string                  `json:"election_id"`
	Positions      []PositionTallyResponse `json:"positions"`
	TotalVotes     int                     `json:"total_votes"`
	CorruptedVotes int                     `json:"corrupted_votes"`
	GeneratedAt    time.Time               `json:"generated_at"`
}
