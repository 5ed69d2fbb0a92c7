package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	testutils "github.com/manaf-dev/gmsa-voting-app/api/controllers/testing"
	"github.com/manaf-dev/gmsa-voting-app/api/models"
	"github.com/manaf-dev/gmsa-voting-app/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElectionLifecycleEndpoints(t *testing.T) {
	f := setupControllers(t)
	now := time.Now().UTC()

	var created models.ElectionResponse

	t.Run("Create requires administrator", func(t *testing.T) {
		req := models.CreateElectionRequest{
			Title:     "Departmental Elections",
			StartDate: now.Add(time.Hour),
			EndDate:   now.Add(2 * time.Hour),
		}

		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/elections", req, memberHeaders("v1"))
		assert.Equal(t, http.StatusForbidden, res.Code)

		res = testutils.PerformRequest(f.router, http.MethodPost, "/api/elections", req, adminHeaders())
		require.Equal(t, http.StatusCreated, res.Code)
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
		assert.Equal(t, "upcoming", created.Status)
	})

	t.Run("Invalid dates are a bad request", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/elections", models.CreateElectionRequest{
			Title:     "Broken",
			StartDate: now.Add(2 * time.Hour),
			EndDate:   now.Add(time.Hour),
		}, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("Update works while upcoming", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPut, "/api/elections/"+created.ID, models.CreateElectionRequest{
			Title:     "Departmental Elections 2026",
			StartDate: now.Add(time.Hour),
			EndDate:   now.Add(3 * time.Hour),
		}, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var updated models.ElectionResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &updated))
		assert.Equal(t, "Departmental Elections 2026", updated.Title)
	})

	t.Run("Cancel works while upcoming", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/"+created.ID+"/cancel", nil, adminHeaders())
		assert.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/"+created.ID+"/cancel", nil, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestResultsLifecycleEndpoints(t *testing.T) {
	f := setupControllers(t)

	// One vote so turnout has something to count.
	res := testutils.PerformRequest(f.router, http.MethodPost, "/api/vote",
		models.CastVoteRequest{CandidateID: "cand-a"}, memberHeaders("v1"))
	require.Equal(t, http.StatusCreated, res.Code)

	t.Run("Generate results completes the election", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/elec-1/generate-results",
			models.GenerateResultsRequest{TotalEligibleVoters: 10}, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var result models.ElectionResultResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &result))
		assert.Equal(t, 1, result.TotalVotesCast)
		assert.InDelta(t, 10.0, result.TurnoutPercentage, 0.001)

		stored, err := f.elections.Get(context.Background(), "elec-1")
		require.NoError(t, err)
		assert.Equal(t, storage.ElectionStatusCompleted, stored.Status)
	})

	t.Run("Publish then archive", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/elec-1/archive", nil, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code, "archive before publish must fail")

		res = testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/elec-1/publish-results", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/elec-1/publish-results", nil, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code, "publication is one-way")

		res = testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/elec-1/archive", nil, adminHeaders())
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Result summary is visible to members after publication", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/elections/elec-1/result-summary", nil, memberHeaders("v1"))
		require.Equal(t, http.StatusOK, res.Code)

		var result models.ElectionResultResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &result))
		assert.Equal(t, "elec-1", result.ElectionID)
	})
}

func TestElectionListingEndpoints(t *testing.T) {
	f := setupControllers(t)

	t.Run("Get returns positions with candidates", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/elections/elec-1", nil, memberHeaders("v1"))
		require.Equal(t, http.StatusOK, res.Code)

		var election models.ElectionResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &election))
		require.Len(t, election.Positions, 1)
		assert.Equal(t, "President", election.Positions[0].Title)
		assert.Len(t, election.Positions[0].Candidates, 2)
	})

	t.Run("Unknown election is not found", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/elections/nope", nil, memberHeaders("v1"))
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("List hides unpublished completed elections from members", func(t *testing.T) {
		f.election.Status = storage.ElectionStatusCompleted
		require.NoError(t, f.elections.Update(context.Background(), f.election))

		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/elections", nil, memberHeaders("v1"))
		require.Equal(t, http.StatusOK, res.Code)
		var list []models.ElectionResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &list))
		assert.Empty(t, list)

		res = testutils.PerformRequest(f.router, http.MethodGet, "/api/elections", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &list))
		assert.Len(t, list, 1)
	})
}

func TestPositionAndCandidateEndpoints(t *testing.T) {
	f := setupControllers(t)

	// Seed an upcoming election so the roster is editable.
	res := testutils.PerformRequest(f.router, http.MethodPost, "/api/elections", models.CreateElectionRequest{
		Title:     "Upcoming Elections",
		StartDate: time.Now().UTC().Add(time.Hour),
		EndDate:   time.Now().UTC().Add(2 * time.Hour),
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, res.Code)
	var election models.ElectionResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &election))

	var position models.PositionResponse

	t.Run("Create position", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/"+election.ID+"/positions",
			models.CreatePositionRequest{Title: "Treasurer", MaxCandidates: 3}, adminHeaders())
		require.Equal(t, http.StatusCreated, res.Code)
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &position))
		assert.NotEmpty(t, position.ID)

		res = testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/"+election.ID+"/positions",
			models.CreatePositionRequest{Title: "Treasurer"}, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code, "duplicate title must fail")

		res = testutils.PerformRequest(f.router, http.MethodPost, "/api/elections/"+election.ID+"/positions",
			models.CreatePositionRequest{Title: "Auditor"}, memberHeaders("v1"))
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("Add candidates up to the cap", func(t *testing.T) {
		for _, name := range []string{"Ama", "Kofi", "Esi"} {
			res := testutils.PerformRequest(f.router, http.MethodPost, "/api/positions/"+position.ID+"/candidates",
				models.CreateCandidateRequest{Name: name, MemberRef: "M-" + name}, adminHeaders())
			require.Equal(t, http.StatusCreated, res.Code)
		}

		res := testutils.PerformRequest(f.router, http.MethodPost, "/api/positions/"+position.ID+"/candidates",
			models.CreateCandidateRequest{Name: "Kwame", MemberRef: "M-Kwame"}, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("Position lists its candidates", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodGet, "/api/positions/"+position.ID, nil, memberHeaders("v1"))
		require.Equal(t, http.StatusOK, res.Code)

		var got models.PositionResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
		assert.Len(t, got.Candidates, 3)
	})

	t.Run("Delete position is blocked while candidates exist", func(t *testing.T) {
		res := testutils.PerformRequest(f.router, http.MethodDelete, "/api/positions/"+position.ID, nil, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}
