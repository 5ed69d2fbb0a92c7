package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manaf-dev/gmsa-voting-app/api/models"
	"github.com/manaf-dev/gmsa-voting-app/api/transport"
	"github.com/manaf-dev/gmsa-voting-app/voting"
)

type ElectionsController struct {
	registry *voting.Registry
	gate     *voting.SecurityGate
}

func NewElectionsController(registry *voting.Registry, gate *voting.SecurityGate) *ElectionsController {
	return &ElectionsController{registry: registry, gate: gate}
}

func (c *ElectionsController) RegisterRoutes(engine *gin.Engine, authSecret string) {
	group := engine.Group("/api/elections", transport.PrincipalAuthMiddleware(authSecret))

	group.GET("", c.listElections)
	group.GET("/:id", c.getElection)
	group.POST("", c.createElection)
	group.PUT("/:id", c.updateElection)
	group.POST("/:id/cancel", c.cancelElection)
	group.POST("/:id/generate-results", c.generateResults)
	group.POST("/:id/publish-results", c.publishResults)
	group.POST("/:id/archive", c.archiveElection)
	group.GET("/:id/result-summary", c.resultSummary)
}

// listElections godoc
// @Summary List elections visible to the caller
// @Tags elections
// @Produce json
// @Success 200 {array} models.ElectionResponse
// @Router /api/elections [get]
func (c *ElectionsController) listElections(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	elections, err := c.registry.VisibleElections(g.Request.Context(), principal)
	if err != nil {
		respondVotingError(g, err)
		return
	}

	response := make([]models.ElectionResponse, 0, len(elections))
	for _, e := range elections {
		response = append(response, models.TransformElectionFromStorage(e))
	}
	g.JSON(http.StatusOK, response)
}

// getElection godoc
// @Summary Get an election with its positions and candidates
// @Tags elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.ElectionResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/elections/{id} [get]
func (c *ElectionsController) getElection(g *gin.Context) {
	election, err := c.registry.Election(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}

	response := models.TransformElectionFromStorage(election)

	positions, err := c.registry.Positions(g.Request.Context(), election.ID)
	if err != nil {
		respondVotingError(g, err)
		return
	}
	for _, p := range positions {
		positionResponse := models.TransformPositionFromStorage(p)
		candidates, err := c.registry.Candidates(g.Request.Context(), p.ID)
		if err != nil {
			respondVotingError(g, err)
			return
		}
		for _, candidate := range candidates {
			positionResponse.Candidates = append(positionResponse.Candidates, models.TransformCandidateFromStorage(candidate))
		}
		response.Positions = append(response.Positions, positionResponse)
	}

	g.JSON(http.StatusOK, response)
}

// createElection godoc
// @Summary Create a new election
// @Description Creates an election in the upcoming state. Administrators only.
// @Tags elections
// @Accept json
// @Produce json
// @Param election body models.CreateElectionRequest true "Election definition"
// @Success 201 {object} models.ElectionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/elections [post]
func (c *ElectionsController) createElection(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.CreateElectionRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	election := req.ToStorage()
	if err := c.registry.CreateElection(g.Request.Context(), principal, election); err != nil {
		respondVotingError(g, err)
		return
	}

	g.JSON(http.StatusCreated, models.TransformElectionFromStorage(election))
}

// updateElection godoc
// @Summary Update an election that has not started
// @Tags elections
// @Accept json
// @Produce json
// @Param id path string true "Election ID"
// @Param election body models.CreateElectionRequest true "Updated fields"
// @Success 200 {object} models.ElectionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/elections/{id} [put]
func (c *ElectionsController) updateElection(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.CreateElectionRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	election := req.ToStorage()
	election.ID = g.Param("id")
	if err := c.registry.UpdateElection(g.Request.Context(), principal, election); err != nil {
		respondVotingError(g, err)
		return
	}

	updated, err := c.registry.Election(g.Request.Context(), election.ID)
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, models.TransformElectionFromStorage(updated))
}

// cancelElection godoc
// @Summary Cancel an upcoming election
// @Tags elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/elections/{id}/cancel [post]
func (c *ElectionsController) cancelElection(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := c.registry.CancelElection(g.Request.Context(), principal, g.Param("id")); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "Election cancelled"})
}

// generateResults godoc
// @Summary Generate and store turnout results for an election
// @Description Completes an active election and computes turnout figures. Administrators only.
// @Tags elections
// @Accept json
// @Produce json
// @Param id path string true "Election ID"
// @Param body body models.GenerateResultsRequest true "Eligible voter count"
// @Success 200 {object} models.ElectionResultResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/elections/{id}/generate-results [post]
func (c *ElectionsController) generateResults(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.GenerateResultsRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	result, err := c.registry.GenerateResults(g.Request.Context(), principal, g.Param("id"), req.TotalEligibleVoters)
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, models.TransformElectionResultFromStorage(result))
}

// publishResults godoc
// @Summary Publish results for a completed election
// @Description Makes results visible to non-administrators. Publication is one-way.
// @Tags elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/elections/{id}/publish-results [post]
func (c *ElectionsController) publishResults(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := c.registry.PublishResults(g.Request.Context(), principal, g.Param("id")); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "Results published"})
}

// archiveElection godoc
// @Summary Archive a completed election with published results
// @Tags elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/elections/{id}/archive [post]
func (c *ElectionsController) archiveElection(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := c.registry.ArchiveElection(g.Request.Context(), principal, g.Param("id")); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "Election archived"})
}

// resultSummary godoc
// @Summary Get stored turnout figures for an election
// @Tags elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.ElectionResultResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/elections/{id}/result-summary [get]
func (c *ElectionsController) resultSummary(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	election, err := c.registry.Election(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}
	if !principal.IsAdministrator() && !election.ResultsPublished {
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "results are not yet available"})
		return
	}

	result, err := c.registry.Result(g.Request.Context(), election.ID)
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, models.TransformElectionResultFromStorage(result))
}
