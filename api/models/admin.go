package models

import (
	"time"

	"github.com/manaf-dev/gmsa-voting-app/storage"
)

type AuditEntryResponse struct {
	ID            string            `json:"id"`
	Action        string            `json:"action"`
	ActorID       string            `json:"actor_id,omitempty"`
	ResourceType  string            `json:"resource_type"`
	ResourceID    string            `json:"resource_id"`
	Timestamp     time.Time         `json:"timestamp"`
	IPAddress     string            `json:"ip_address,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	IntegrityHash string            `json:"integrity_hash"`
	HashValid     bool              `json:"hash_valid"`
}

func TransformAuditEntryFromStorage(e *storage.AuditLogEntry, hashValid bool) AuditEntryResponse {
	return AuditEntryResponse{
		ID:            e.ID,
		Action:        e.Action,
		ActorID:       e.ActorID,
		ResourceType:  e.ResourceType,
		ResourceID:    e.ResourceID,
		Timestamp:     e.Timestamp,
		IPAddress:     e.IPAddress,
		UserAgent:     e.UserAgent,
		Details:       e.Details,
		IntegrityHash: e.IntegrityHash,
		HashValid:     hashValid,
	}
}

type SuspiciousSessionResponse struct {
	ID                string    `json:"id"`
	VoterID           string    `json:"voter_id"`
	ElectionID        string    `json:"election_id"`
	StartedAt         time.Time `json:"started_at"`
	LastSeenAt        time.Time `json:"last_seen_at"`
	IPAddress         string    `json:"ip_address"`
	VotesCast         int       `json:"votes_cast"`
	SuspiciousReasons []string  `json:"suspicious_reasons"`
}

func TransformSessionFromStorage(s *storage.VotingSession) SuspiciousSessionResponse {
	return SuspiciousSessionResponse{
		ID:                s.ID,
		VoterID:           s.VoterID,
		ElectionID:        s.ElectionID,
		StartedAt:         s.StartedAt,
		LastSeenAt:        s.LastSeenAt,
		IPAddress:         s.IPAddress,
		VotesCast:         s.VotesCast,
		SuspiciousReasons: s.SuspiciousReasons,
	}
}

type AdminStatsResponse struct {
	TotalElections     int            `json:"total_elections"`
	ElectionsByStatus  map[string]int `json:"elections_by_status"`
	SuspiciousSessions int            `json:"suspicious_sessions"`
}
