// stats.go implements the public seat-availability endpoint shown on the
// registration landing page.
package registrations

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/config"
	"github.com/event-registry/event-registry/internal/db/repositories"
)

// @Summary      Get registration statistics
// @Description  Returns the current registration count and the number of seats still available. Seats left never goes below zero even when registrations exceed capacity.
// @Tags         Registrations
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "registeredCount and seatsLeft"
// @Failure      500  {object}  map[string]interface{}  "Server error"
// @Router       /api/stats [get]
// StatsHandler reports the registration count and remaining seats
// GET /api/stats
func StatsHandler(db *sql.DB, cfg *config.Config) gin.HandlerFunc {
	repo := repositories.NewRegistrationRepository(db)

	return func(c *gin.Context) {
		count, err := repo.CountRegistrations(c.Request.Context())
		if err != nil {
			slog.Error("failed to count registrations", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Error fetching stats",
			})
			return
		}

		seatsLeft := cfg.Event.TotalSeats - count
		if seatsLeft < 0 {
			seatsLeft = 0
		}

		c.JSON(http.StatusOK, gin.H{
			"registeredCount": count,
			"seatsLeft":       seatsLeft,
		})
	}
}
