package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	testutils "github.com/manaf-dev/gmsa-voting-app/api/controllers/testing"
	"github.com/manaf-dev/gmsa-voting-app/api/models"
	"github.com/manaf-dev/gmsa-voting-app/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminEndpointsRequireAdministrator(t *testing.T) {
	f := setupControllers(t)

	for _, path := range []string{
		"/api/admin/audit?resource_type=election&resource_id=elec-1",
		"/api/admin/audit/actor/v1",
		"/api/admin/sessions/suspicious",
		"/api/admin/stats",
	} {
		res := testutils.PerformRequest(f.router, http.MethodGet, path, nil, memberHeaders("v1"))
		assert.Equal(t, http.StatusForbidden, res.Code, path)
	}
}

func TestVerifyVoteEndpoint(t *testing.T) {
	f := setupControllers(t)

	res := testutils.PerformRequest(f.router, http.MethodPost, "/api/vote",
		models.CastVoteRequest{CandidateID: "cand-a"}, memberHeaders("v1"))
	require.Equal(t, http.StatusCreated, res.Code)
	var cast models.CastVoteResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &cast))

	t.Run("Intact vote verifies", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/admin/votes/"+cast.VoteID+"/verify", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var report voting.IntegrityReport
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &report))
		assert.True(t, report.IsValid)
	})

	t.Run("Member cannot verify", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/admin/votes/"+cast.VoteID+"/verify", nil, memberHeaders("v1"))
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("Unknown vote is not found", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/admin/votes/nope/verify", nil, adminHeaders())
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestAuditQueryEndpoints(t *testing.T) {
	f := setupControllers(t)

	res := testutils.PerformRequest(f.router, http.MethodPost, "/api/vote",
		models.CastVoteRequest{CandidateID: "cand-a"}, memberHeaders("v1"))
	require.Equal(t, http.StatusCreated, res.Code)

	t.Run("By resource returns the cast entry with a valid hash", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodGet,
			"/api/admin/audit?resource_type=position&resource_id=pos-president", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var entries []models.AuditEntryResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "vote_cast", entries[0].Action)
		assert.True(t, entries[0].HashValid)
	})

	t.Run("Missing query parameters are a bad request", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/admin/audit", nil, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("By actor filters on the voter", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/admin/audit/actor/v1", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var entries []models.AuditEntryResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &entries))
		assert.NotEmpty(t, entries)
	})

	t.Run("Time range rejects malformed bounds", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/admin/audit/range?from=bogus&to=bogus", nil, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestAdminStatsEndpoint(t *testing.T) {
	f := setupControllers(t)

	res := testutils.PerformRequest(f.router, http.MethodGet, "/api/admin/stats", nil, adminHeaders())
	require.Equal(t, http.StatusOK, res.Code)

	var stats models.AdminStatsResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalElections)
	assert.Equal(t, 1, stats.ElectionsByStatus["active"])
	assert.Equal(t, 0, stats.SuspiciousSessions)
}
