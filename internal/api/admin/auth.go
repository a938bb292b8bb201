// Package admin implements the token-gated admin endpoints: login,
// registration management, leaderboard point adjustments, and spreadsheet
// exports. Every route except login sits behind the admin JWT middleware.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/auth"
	"github.com/event-registry/event-registry/internal/config"
)

// loginRequest is the POST /api/admin/login request body
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// @Summary      Admin login
// @Description  Authenticates the configured admin credential pair and returns a short-lived JWT for the admin endpoints.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        credentials  body  loginRequest  true  "Admin username and password"
// @Success      200  {object}  map[string]interface{}  "success and token"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Failure      500  {object}  map[string]interface{}  "Server error"
// @Router       /api/admin/login [post]
// LoginHandler authenticates the admin and issues a session token
// POST /api/admin/login
func LoginHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid credentials",
			})
			return
		}

		if !auth.VerifyAdminCredentials(req.Username, req.Password, cfg.Auth.AdminUsername, cfg.Auth.AdminPasswordHash) {
			slog.Warn("admin login rejected", "username", req.Username, "ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid credentials",
			})
			return
		}

		token, err := auth.GenerateAdminToken(req.Username, cfg.Auth.TokenExpiry)
		if err != nil {
			slog.Error("failed to generate admin token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error during login.",
			})
			return
		}

		slog.Info("admin login", "username", req.Username, "ip", c.ClientIP())

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"token":   token,
		})
	}
}
