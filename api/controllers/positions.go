package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manaf-dev/gmsa-voting-app/api/models"
	"github.com/manaf-dev/gmsa-voting-app/api/transport"
	"github.com/manaf-dev/gmsa-voting-app/voting"
)

type PositionsController struct {
	registry *voting.Registry
}

func NewPositionsController(registry *voting.Registry) *PositionsController {
	return &PositionsController{registry: registry}
}

func (c *PositionsController) RegisterRoutes(engine *gin.Engine, authSecret string) {
	group := engine.Group("/api", transport.PrincipalAuthMiddleware(authSecret))

	group.GET("/elections/:id/positions", c.listPositions)
	group.POST("/elections/:id/positions", c.createPosition)
	group.GET("/positions/:id", c.getPosition)
	group.PUT("/positions/:id", c.updatePosition)
	group.DELETE("/positions/:id", c.deletePosition)
}

// listPositions godoc
// @Summary List positions for an election
// @Tags positions
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {array} models.PositionResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/elections/{id}/positions [get]
func (c *PositionsController) listPositions(g *gin.Context) {
	electionID := g.Param("id")
	if _, err := c.registry.Election(g.Request.Context(), electionID); err != nil {
		respondVotingError(g, err)
		return
	}

	positions, err := c.registry.Positions(g.Request.Context(), electionID)
	if err != nil {
		respondVotingError(g, err)
		return
	}

	response := make([]models.PositionResponse, 0, len(positions))
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
		response = append(response, positionResponse)
	}
	g.JSON(http.StatusOK, response)
}

// createPosition godoc
// @Summary Add a position to an election
// @Description Administrators only. The election must not have started.
// @Tags positions
// @Accept json
// @Produce json
// @Param id path string true "Election ID"
// @Param position body models.CreatePositionRequest true "Position definition"
// @Success 201 {object} models.PositionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/elections/{id}/positions [post]
func (c *PositionsController) createPosition(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.CreatePositionRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	position := req.ToStorage(g.Param("id"))
	if err := c.registry.CreatePosition(g.Request.Context(), principal, position); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusCreated, models.TransformPositionFromStorage(position))
}

// getPosition godoc
// @Summary Get a position with its candidates
// @Tags positions
// @Produce json
// @Param id path string true "Position ID"
// @Success 200 {object} models.PositionResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/positions/{id} [get]
func (c *PositionsController) getPosition(g *gin.Context) {
	position, err := c.registry.Position(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}

	response := models.TransformPositionFromStorage(position)
	candidates, err := c.registry.Candidates(g.Request.Context(), position.ID)
	if err != nil {
		respondVotingError(g, err)
		return
	}
	for _, candidate := range candidates {
		response.Candidates = append(response.Candidates, models.TransformCandidateFromStorage(candidate))
	}
	g.JSON(http.StatusOK, response)
}

// updatePosition godoc
// @Summary Update a position on an election that has not started
// @Tags positions
// @Accept json
// @Produce json
// @Param id path string true "Position ID"
// @Param position body models.CreatePositionRequest true "Updated fields"
// @Success 200 {object} models.PositionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/positions/{id} [put]
func (c *PositionsController) updatePosition(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.CreatePositionRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	position := req.ToStorage("")
	position.ID = g.Param("id")
	if err := c.registry.UpdatePosition(g.Request.Context(), principal, position); err != nil {
		respondVotingError(g, err)
		return
	}

	updated, err := c.registry.Position(g.Request.Context(), position.ID)
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, models.TransformPositionFromStorage(updated))
}

// deletePosition godoc
// @Summary Delete a position that has no candidates
// @Tags positions
// @Produce json
// @Param id path string true "Position ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/positions/{id} [delete]
func (c *PositionsController) deletePosition(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := c.registry.DeletePosition(g.Request.Context(), principal, g.Param("id")); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "Position deleted"})
}
