package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/manaf-dev/gmsa-voting-app/api/models"
	"github.com/manaf-dev/gmsa-voting-app/api/transport"
	"github.com/manaf-dev/gmsa-voting-app/storage"
	"github.com/manaf-dev/gmsa-voting-app/voting"
)

type AdminController struct {
	ledger    *voting.Ledger
	registry  *voting.Registry
	audit     *voting.AuditTrail
	sessions  *voting.SessionTracker
	elections storage.ElectionStorage
}

func NewAdminController(ledger *voting.Ledger, registry *voting.Registry, audit *voting.AuditTrail, sessions *voting.SessionTracker, elections storage.ElectionStorage) *AdminController {
	return &AdminController{
		ledger:    ledger,
		registry:  registry,
		audit:     audit,
		sessions:  sessions,
		elections: elections,
	}
}

func (c *AdminController) RegisterRoutes(engine *gin.Engine, authSecret string) {
	group := engine.Group("/api/admin", transport.PrincipalAuthMiddleware(authSecret), c.requireAdmin)

	group.POST("/votes/:id/verify", c.verifyVote)
	group.GET("/audit", c.auditByResource)
	group.GET("/audit/actor/:actorId", c.auditByActor)
	group.GET("/audit/range", c.auditByTimeRange)
	group.GET("/sessions/suspicious", c.suspiciousSessions)
	group.GET("/stats", c.stats)
}

func (c *AdminController) requireAdmin(g *gin.Context) {
	principal, ok := transport.PrincipalFromContext(g)
	if !ok || !principal.IsAdministrator() {
		g.AbortWithStatusJSON(http.StatusForbidden, &models.ErrorResponse{Error: "administrator privileges required"})
		return
	}
	g.Next()
}

// verifyVote godoc
// @Summary Re-verify a stored vote's hash and signature
// @Description Decrypts the vote, recomputes its integrity hash and re-checks the signature. Administrators only.
// @Tags admin
// @Produce json
// @Param id path string true "Vote ID"
// @Success 200 {object} voting.IntegrityReport
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/votes/{id}/verify [post]
func (c *AdminController) verifyVote(g *gin.Context) {
	principal, _ := transport.PrincipalFromContext(g)

	report, err := c.ledger.VerifyVoteIntegrity(g.Request.Context(), principal, g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, report)
}

// auditByResource godoc
// @Summary Query the audit trail for a resource
// @Tags admin
// @Produce json
// @Param resource_type query string true "Resource type"
// @Param resource_id query string true "Resource ID"
// @Success 200 {array} models.AuditEntryResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/audit [get]
func (c *AdminController) auditByResource(g *gin.Context) {
	resourceType := g.Query("resource_type")
	resourceID := g.Query("resource_id")
	if resourceType == "" || resourceID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "resource_type and resource_id are required"})
		return
	}

	entries, err := c.audit.ByResource(g.Request.Context(), resourceType, resourceID)
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, c.transformEntries(entries))
}

// auditByActor godoc
// @Summary Query the audit trail for an actor
// @Tags admin
// @Produce json
// @Param actorId path string true "Actor ID"
// @Success 200 {array} models.AuditEntryResponse
// @Router /api/admin/audit/actor/{actorId} [get]
func (c *AdminController) auditByActor(g *gin.Context) {
	entries, err := c.audit.ByActor(g.Request.Context(), g.Param("actorId"))
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, c.transformEntries(entries))
}

// auditByTimeRange godoc
// @Summary Query the audit trail for a time window
// @Tags admin
// @Produce json
// @Param from query string true "Window start (RFC3339)"
// @Param to query string true "Window end (RFC3339)"
// @Success 200 {array} models.AuditEntryResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/admin/audit/range [get]
func (c *AdminController) auditByTimeRange(g *gin.Context) {
	from, err := time.Parse(time.RFC3339, g.Query("from"))
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "from must be an RFC3339 timestamp"})
		return
	}
	to, err := time.Parse(time.RFC3339, g.Query("to"))
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "to must be an RFC3339 timestamp"})
		return
	}

	entries, err := c.audit.ByTimeRange(g.Request.Context(), from, to)
	if err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, c.transformEntries(entries))
}

func (c *AdminController) transformEntries(entries []*storage.AuditLogEntry) []models.AuditEntryResponse {
	response := make([]models.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, models.TransformAuditEntryFromStorage(entry, c.audit.VerifyEntry(entry)))
	}
	return response
}

// suspiciousSessions godoc
// @Summary List voting sessions flagged as suspicious
// @Tags admin
// @Produce json
// @Success 200 {array} models.SuspiciousSessionResponse
// @Router /api/admin/sessions/suspicious [get]
func (c *AdminController) suspiciousSessions(g *gin.Context) {
	sessions, err := c.sessions.SuspiciousSessions(g.Request.Context())
	if err != nil {
		respondVotingError(g, err)
		return
	}

	response := make([]models.SuspiciousSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, models.TransformSessionFromStorage(s))
	}
	g.JSON(http.StatusOK, response)
}

// stats godoc
// @Summary Aggregate counts for the admin dashboard
// @Tags admin
// @Produce json
// @Success 200 {object} models.AdminStatsResponse
// @Router /api/admin/stats [get]
func (c *AdminController) stats(g *gin.Context) {
	elections, err := c.elections.GetAll(g.Request.Context())
	if err != nil {
		respondVotingError(g, err)
		return
	}

	byStatus := make(map[string]int)
	for _, e := range elections {
		byStatus[e.Status]++
	}

	suspicious, err := c.sessions.SuspiciousSessions(g.Request.Context())
	if err != nil {
		respondVotingError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.AdminStatsResponse{
		TotalElections:     len(elections),
		ElectionsByStatus:  byStatus,
		SuspiciousSessions: len(suspicious),
	})
}
