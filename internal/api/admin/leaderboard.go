// leaderboard.go implements the admin point-adjustment endpoint.
package admin

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/db/repositories"
	"github.com/event-registry/event-registry/internal/telemetry"
)

// updateLeaderboardRequest is the POST /api/admin/leaderboard request body.
// PointsToAdd may be negative to revoke points.
type updateLeaderboardRequest struct {
	RegistrationID string `json:"registrationId"`
	PointsToAdd    int    `json:"pointsToAdd"`
}

// @Summary      Adjust leaderboard points
// @Description  Adds (or with a negative value, subtracts) points on a participant's leaderboard entry.
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        adjustment  body  updateLeaderboardRequest  true  "Registration ID and point delta"
// @Success      200  {object}  map[string]interface{}  "Leaderboard updated"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Registration not found"
// @Failure      500  {object}  map[string]interface{}  "Server error"
// @Router       /api/admin/leaderboard [post]
// UpdateLeaderboardHandler adjusts a participant's points
// POST /api/admin/leaderboard
func UpdateLeaderboardHandler(db *sql.DB) gin.HandlerFunc {
	regRepo := repositories.NewRegistrationRepository(db)
	lbRepo := repositories.NewLeaderboardRepository(db)

	return func(c *gin.Context) {
		var req updateLeaderboardRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RegistrationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "registrationId and pointsToAdd are required",
			})
			return
		}

		ctx := c.Request.Context()

		reg, err := regRepo.GetRegistrationByID(ctx, req.RegistrationID)
		if err != nil {
			slog.Error("failed to look up registration for point adjustment",
				"registration_id", req.RegistrationID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error while updating points",
			})
			return
		}
		if reg == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Registration not found",
			})
			return
		}

		points, err := lbRepo.AdjustPoints(ctx, req.RegistrationID, req.PointsToAdd)
		if err != nil {
			slog.Error("failed to adjust points",
				"registration_id", req.RegistrationID, "delta", req.PointsToAdd, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error while updating points",
			})
			return
		}

		telemetry.LeaderboardAdjustmentsTotal.Inc()
		slog.Info("leaderboard adjusted",
			"registration_id", req.RegistrationID,
			"delta", req.PointsToAdd,
			"points", points,
			"admin", c.GetString("admin_username"))

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Leaderboard updated",
			"points":  points,
		})
	}
}
