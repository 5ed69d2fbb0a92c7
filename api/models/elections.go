package models

import (
	"time"

	"github.com/manaf-dev/gmsa-voting-app/storage"
)

type CreateElectionRequest struct {
	Title                         string    `json:"title"`
	Description                   string    `json:"description"`
	StartDate                     time.Time `json:"start_date"`
	EndDate                       time.Time `json:"end_date"`
	AllowMultipleVotesPerPosition bool      `json:"allow_multiple_votes_per_position"`
	RequireEligibilityCheck       bool      `json:"require_eligibility_check"`
	ShowResultsAfterVoting        bool      `json:"show_results_after_voting"`
}

type ElectionResponse struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            time.Time          `json:"end_date"`
	Status             string             `json:"status"`
	CreatedBy          string             `json:"created_by"`
	CreatedAt          time.Time          `json:"created_at"`
	ResultsPublished   bool               `json:"results_published"`
	ResultsPublishedAt *time.Time         `json:"results_published_at,omitempty"`
	Positions          []PositionResponse `json:"positions,omitempty"`
}

func TransformElectionFromStorage(e *storage.Election) ElectionResponse {
	return ElectionResponse{
		ID:                 e.ID,
		Title:              e.Title,
		Description:        e.Description,
		StartDate:          e.StartDate,
		EndDate:            e.EndDate,
		Status:             e.Status,
		CreatedBy:          e.CreatedBy,
		CreatedAt:          e.CreatedAt,
		ResultsPublished:   e.ResultsPublished,
		ResultsPublishedAt: e.ResultsPublishedAt,
	}
}

func (r CreateElectionRequest) ToStorage() *storage.Election {
	return &storage.Election{
		Title:                         r.Title,
		Description:                   r.Description,
		StartDate:                     r.StartDate.UTC(),
		EndDate:                       r.EndDate.UTC(),
		AllowMultipleVotesPerPosition: r.AllowMultipleVotesPerPosition,
		RequireEligibilityCheck:       r.RequireEligibilityCheck,
		ShowResultsAfterVoting:        r.ShowResultsAfterVoting,
	}
}

type GenerateResultsRequest struct {
	TotalEligibleVoters int `json:"total_eligible_voters"`
}

type ElectionResultResponse struct {
	ElectionID          string    `json:"election_id"`
	TotalEligibleVoters int       `json:"total_eligible_voters"`
	TotalVotesCast      int       `json:"total_votes_cast"`
	TurnoutPercentage   float64   `json:"voter_turnout_percentage"`
	GeneratedAt         time.Time `json:"generated_at"`
	GeneratedBy         string    `json:"generated_by"`
}

func TransformElectionResultFromStorage(r *storage.ElectionResult) ElectionResultResponse {
	return ElectionResultResponse{
		ElectionID:          r.ElectionID,
		TotalEligibleVoters: r.TotalEligibleVoters,
		TotalVotesCast:      r.TotalVotesCast,
		TurnoutPercentage:   r.TurnoutPercentage,
		GeneratedAt:         r.GeneratedAt,
		GeneratedBy:         r.GeneratedBy,
	}
}
