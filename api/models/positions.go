package models

import "github.com/manaf-dev/gmsa-voting-app/storage"

type CreatePositionRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	MaxCandidates int    `json:"max_candidates"`
	Order         int    `json:"order"`
}

type PositionResponse struct {
	ID            string              `json:"id"`
	ElectionID    string              `json:"election_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	MaxCandidates int                 `json:"max_candidates"`
	Order         int                 `json:"order"`
	Candidates    []CandidateResponse `json:"candidates,omitempty"`
}

func TransformPositionFromStorage(p *storage.Position) PositionResponse {
	return PositionResponse{
		ID:            p.ID,
		ElectionID:    p.ElectionID,
		Title:         p.Title,
		Description:   p.Description,
		MaxCandidates: p.MaxCandidates,
		Order:         p.Order,
	}
}

func (r CreatePositionRequest) ToStorage(electionID string) *storage.Position {
	return &storage.Position{
		ElectionID:    electionID,
		Title:         r.Title,
		Description:   r.Description,
		MaxCandidates: r.MaxCandidates,
		Order:         r.Order,
	}
}
