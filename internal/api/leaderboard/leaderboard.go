// Package leaderboard implements the public leaderboard endpoint.
package leaderboard

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/db/repositories"
)

// Entry is one row of the public leaderboard response, ordered highest points
// first. RegistrationID is null for an orphaned entry whose registration has
// been removed out-of-band; such rows show "User Not Found" instead of
// breaking the listing.
type Entry struct {
	Name           string  `json:"name"`
	Points         int     `json:"points"`
	RegistrationID *string `json:"registrationId"`
}

// @Summary      Get the leaderboard
// @Description  Returns all participants ranked by points, highest first. Ties are broken by registration time, oldest first.
// @Tags         Leaderboard
// @Produce      json
// @Success      200  {array}   Entry
// @Failure      500  {object}  map[string]interface{}  "Server error"
// @Router       /api/leaderboard [get]
// GetHandler returns the ranked public leaderboard
// GET /api/leaderboard
func GetHandler(db *sql.DB) gin.HandlerFunc {
	repo := repositories.NewLeaderboardRepository(db)

	return func(c *gin.Context) {
		ranked, err := repo.ListRanked(c.Request.Context())
		if err != nil {
			slog.Error("failed to list leaderboard", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Error fetching leaderboard",
			})
			return
		}

		entries := make([]Entry, 0, len(ranked))
		for _, row := range ranked {
			entry := Entry{
				Points:         row.Points,
				RegistrationID: row.RegistrationID,
			}
			if row.Name != nil {
				entry.Name = *row.Name
			} else {
				entry.Name = "User Not Found"
			}
			entries = append(entries, entry)
		}

		c.JSON(http.StatusOK, entries)
	}
}
