package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manaf-dev/gmsa-voting-app/api/models"
	"github.com/manaf-dev/gmsa-voting-app/api/transport"
	"github.com/manaf-dev/gmsa-voting-app/voting"
)

type CandidatesController struct {
	registry *voting.Registry
}

func NewCandidatesController(registry *voting.Registry) *CandidatesController {
	return &CandidatesController{registry: registry}
}

func (c *CandidatesController) RegisterRoutes(engine *gin.Engine, authSecret string) {
	group := engine.Group("/api", transport.PrincipalAuthMiddleware(authSecret))

	group.GET("/positions/:id/candidates", c.listCandidates)
	group.POST("/positions/:id/candidates", c.addCandidate)
	group.GET("/candidates/:id", c.getCandidate)
	group.PUT("/candidates/:id", c.updateCandidate)
	group.DELETE("/candidates/:id", c.deleteCandidate)
}

// listCandidates godoc
// @Summary List candidates standing for a position
// @Tags candidates
// @Produce json
// @Param id path string true "Position ID"
// @Success 200 {array} models.CandidateResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/positions/{id}/candidates [get]
func (c *CandidatesController) listCandidates(g *gin.Context) {
	positionID := g.Param("id")
	if _, err := c.registry.Position(g.Request.Context(), positionID); err != nil {
		respondVotingError(g, err)
		return
	}

	candidates, err := c.registry.Candidates(g.Request.Context(), positionID)
	if err != nil {
		respondVotingError(g, err)
		return
	}

	response := make([]models.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		response = append(response, models.TransformCandidateFromStorage(candidate))
	}
	g.JSON(http.StatusOK, response)
}

// addCandidate godoc
// @Summary Add a candidate to a position
// @Description Administrators only. Rejects duplicates and full candidate lists.
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path string true "Position ID"
// @Param candidate body models.CreateCandidateRequest true "Candidate definition"
// @Success 201 {object} models.CandidateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/positions/{id}/candidates [post]
func (c *CandidatesController) addCandidate(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.CreateCandidateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	candidate := req.ToStorage(g.Param("id"))
	if err := c.registry.AddCandidate(g.Request.Context(), principal, candidate); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusCreated, models.TransformCandidateFromStorage(candidate))
}

// getCandidate godoc
// @Summary Get a single candidate
// @Tags candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} models.CandidateResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/candidates/{id} [get]
func (c *CandidatesController) getCandidate(g *gin.Context) {
	candidate, err := c.registry.Candidate(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, models.TransformCandidateFromStorage(candidate))
}

// updateCandidate godoc
// @Summary Update a candidate
// @Description During an active election only the manifesto may change.
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param candidate body models.UpdateCandidateRequest true "Updated fields"
// @Success 200 {object} models.CandidateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/candidates/{id} [put]
func (c *CandidatesController) updateCandidate(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.UpdateCandidateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	current, err := c.registry.Candidate(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}

	updated := *current
	if req.Name != "" {
		updated.Name = req.Name
	}
	if req.Manifesto != "" {
		updated.Manifesto = req.Manifesto
	}
	if req.Order != 0 {
		updated.Order = req.Order
	}

	if err := c.registry.UpdateCandidate(g.Request.Context(), principal, &updated, req.ManifestoOnly); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, models.TransformCandidateFromStorage(&updated))
}

// deleteCandidate godoc
// @Summary Remove a candidate that has received no votes
// @Tags candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/candidates/{id} [delete]
func (c *CandidatesController) deleteCandidate(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := c.registry.DeleteCandidate(g.Request.Context(), principal, g.Param("id")); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "Candidate removed"})
}
