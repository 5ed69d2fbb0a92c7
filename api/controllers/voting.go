package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/manaf-dev/gmsa-voting-app/api/models"
	"github.com/manaf-dev/gmsa-voting-app/api/transport"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage"
	"github.com/manaf-dev/gmsa-voting-app/voting"
)

type VotingController struct {
	ledger   *voting.Ledger
	registry *voting.Registry
	gate     *voting.SecurityGate
}

func NewVotingController(ledger *voting.Ledger, registry *voting.Registry, gate *voting.SecurityGate) *VotingController {
	return &VotingController{
		ledger:   ledger,
		registry: registry,
		gate:     gate,
	}
}

func (c *VotingController) RegisterRoutes(engine *gin.Engine, authSecret string) {
	group := engine.Group("/api", transport.PrincipalAuthMiddleware(authSecret))

	voteLimited := group.Group("", transport.RateLimitMiddleware(c.gate, voting.ClassVote))
	voteLimited.POST("/vote", c.castVote)
	voteLimited.POST("/ballot", c.castBallot)

	group.GET("/vote/status/:positionId", c.voteStatus)
	group.GET("/elections/:id/my-votes", c.myVotes)
	group.GET("/elections/:id/results", c.electionResults)
}

// castVote godoc
// @Summary Cast a single vote
// @Description Casts an anonymous, encrypted vote for a candidate
// @Tags voting
// @Accept json
// @Produce json
// @Param vote body models.CastVoteRequest true "Vote submission"
// @Success 201 {object} models.CastVoteResponse
// @Failure 400 {object} models.ErrorResponse "Invalid selection"
// @Failure 409 {object} models.ErrorResponse "Already voted or election not open"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Router /api/vote [post]
func (c *VotingController) castVote(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.CastVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.CandidateID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	vote, err := c.ledger.CastVote(g.Request.Context(), principal, req.CandidateID, req.Approve, g.ClientIP(), g.Request.UserAgent())
	if err != nil {
		respondVotingError(g, err)
		return
	}

	g.JSON(http.StatusCreated, &models.CastVoteResponse{
		Message: "Vote cast successfully",
		VoteID:  vote.VoteID,
	})
}

// castBallot godoc
// @Summary Cast a full ballot
// @Description Submits one selection per position for an election atomically
// @Tags voting
// @Accept json
// @Produce json
// @Param ballot body models.CastBallotRequest true "Ballot submission"
// @Success 201 {object} models.CastBallotResponse
// @Failure 400 {object} models.ErrorResponse "Invalid ballot"
// @Failure 409 {object} models.ErrorResponse "Already voted or election not open"
// @Router /api/ballot [post]
func (c *VotingController) castBallot(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.CastBallotRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.ElectionID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	votes, err := c.ledger.CastBallot(g.Request.Context(), principal, req.ElectionID, req.ToSelections(), g.ClientIP(), g.Request.UserAgent())
	if err != nil {
		respondVotingError(g, err)
		return
	}

	voteIDs := make([]string, 0, len(votes))
	for _, v := range votes {
		voteIDs = append(voteIDs, v.VoteID)
	}
	g.JSON(http.StatusCreated, &models.CastBallotResponse{
		Message:   "Ballot cast successfully",
		VoteIDs:   voteIDs,
		Positions: len(votes),
	})
}

// voteStatus godoc
// @Summary Check whether the caller voted for a position
// @Tags voting
// @Produce json
// @Param positionId path string true "Position ID"
// @Success 200 {object} models.VoteStatusResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/vote/status/{positionId} [get]
func (c *VotingController) voteStatus(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	positionID := g.Param("positionId")
	voted, err := c.ledger.HasVoted(g.Request.Context(), principal, positionID)
	if err != nil {
		respondVotingError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.VoteStatusResponse{PositionID: positionID, HasVoted: voted})
}

// myVotes godoc
// @Summary List the positions the caller has voted on
// @Tags voting
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.MyVotesResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/elections/{id}/my-votes [get]
func (c *VotingController) myVotes(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	electionID := g.Param("id")
	election, err := c.registry.Election(g.Request.Context(), electionID)
	if err != nil {
		respondVotingError(g, err)
		return
	}

	voted, err := c.ledger.MyVotes(g.Request.Context(), principal, electionID)
	if err != nil {
		respondVotingError(g, err)
		return
	}

	now := time.Now().UTC()
	canStillVote := election.Status == storage.ElectionStatusActive &&
		!now.Before(election.StartDate) && !now.After(election.EndDate)

	g.JSON(http.StatusOK, &models.MyVotesResponse{
		ElectionID:     electionID,
		VotedPositions: voted,
		CanStillVote:   canStillVote,
	})
}

// electionResults godoc
// @Summary Get tallied results for an election
// @Description Decrypts and aggregates votes; corrupted rows are excluded and counted separately
// @Tags voting
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.TallyResponse
// @Failure 403 {object} models.ErrorResponse "Results not yet available"
// @Failure 404 {object} models.ErrorResponse
// @Router /api/elections/{id}/results [get]
func (c *VotingController) electionResults(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	electionID := g.Param("id")
	election, err := c.registry.Election(g.Request.Context(), electionID)
	if err != nil {
		respondVotingError(g, err)
		return
	}

	if !principal.IsAdministrator() && !election.ResultsPublished && !election.ShowResultsAfterVoting {
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "results are not yet available"})
		return
	}

	tally, err := c.ledger.Tally(g.Request.Context(), electionID)
	if err != nil {
		logging.Log.Errorf("VOTE: tally for election %s failed: %v", electionID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not compute results"})
		return
	}

	positions, err := c.registry.Positions(g.Request.Context(), electionID)
	if err != nil {
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load positions"})
		return
	}
	titles := make(map[string]string, len(positions))
	for _, p := range positions {
		titles[p.ID] = p.Title
	}

	response := models.TallyResponse{
		ElectionID:     tally.ElectionID,
		Positions:      make([]models.PositionTallyResponse, 0, len(tally.Positions)),
		TotalVotes:     tally.TotalVotes,
		CorruptedVotes: tally.CorruptedVotes,
		GeneratedAt:    time.Now().UTC(),
	}
	for _, pt := range tally.Positions {
		response.Positions = append(response.Positions, models.PositionTallyResponse{
			PositionID: pt.PositionID,
			Title:      titles[pt.PositionID],
			Candidates: pt.Candidates,
			YesCount:   pt.YesCount,
			NoCount:    pt.NoCount,
			TotalVotes: pt.TotalVotes,
		})
	}

	g.JSON(http.StatusOK, response)
}

// respondVotingError maps core error kinds onto HTTP statuses.
func respondVotingError(g *gin.Context, err error) {
	switch {
	case voting.IsValidationError(err):
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, voting.ErrDuplicateVote):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "you have already voted for this position"})
	case errors.Is(err, voting.ErrElectionNotOpen):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "this election is not currently open for voting"})
	case errors.Is(err, voting.ErrNotEligible):
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "you are not eligible to vote in this election"})
	case errors.Is(err, voting.ErrForbidden):
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "administrator privileges required"})
	case errors.Is(err, voting.ErrNotFound):
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "resource not found"})
	default:
		logging.Log.Errorf("VOTE: unexpected error: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "internal error"})
	}
}
