package models

import "github.com/manaf-dev/gmsa-voting-app/storage"

type CreateCandidateRequest struct {
	Name      string `json:"name"`
	MemberRef string `json:"member_ref,omitempty"`
	Manifesto string `json:"manifesto"`
	Order     int    `json:"order"`
}

type UpdateCandidateRequest struct {
	Name      string `json:"name,omitempty"`
	Manifesto string `json:"manifesto,omitempty"`
	Order     int    `json:"order,omitempty"`
	// ManifestoOnly marks an edit that is legal while the election is
	// active.
	ManifestoOnly bool `json:"manifesto_only,omitempty"`
}

type CandidateResponse struct {
	ID         string `json:"id"`
	PositionID string `json:"position_id"`
	Name       string `json:"name"`
	MemberRef  string `json:"member_ref,omitempty"`
	Manifesto  string `json:"manifesto"`
	Order      int    `json:"order"`
}

func TransformCandidateFromStorage(c *storage.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:         c.ID,
		PositionID: c.PositionID,
		Name:       c.Name,
		MemberRef:  c.MemberRef,
		Manifesto:  c.Manifesto,
		Order:      c.Order,
	}
}

func (r CreateCandidateRequest) ToStorage(positionID string) *storage.Candidate {
	return &storage.Candidate{
		PositionID: positionID,
		Name:       r.Name,
		MemberRef:  r.MemberRef,
		Manifesto:  r.Manifesto,
		Order:      r.Order,
	}
}
