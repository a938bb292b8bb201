// registrations.go implements the admin registration management endpoints.
package admin

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/db/models"
	"github.com/event-registry/event-registry/internal/db/repositories"
	"github.com/event-registry/event-registry/internal/storage"
)

// screenshotURLTTL bounds how long a screenshot link handed to the dashboard
// stays valid. Only S3 presigned URLs actually expire; local URLs ignore it.
const screenshotURLTTL = 15 * time.Minute

// @Summary      List registrations
// @Description  Returns every registration in the order it was submitted. Hashed audit copies of the unique fields are never included in the response.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   models.Registration
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Server error"
// @Router       /api/admin/registrations [get]
// ListHandler returns all registrations for the admin dashboard
// GET /api/admin/registrations
func ListHandler(db *sql.DB) gin.HandlerFunc {
	repo := repositories.NewRegistrationRepository(db)

	return func(c *gin.Context) {
		registrations, err := repo.ListRegistrations(c.Request.Context())
		if err != nil {
			slog.Error("failed to list registrations", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error",
			})
			return
		}

		// An empty table serializes as [] rather than null.
		if registrations == nil {
			registrations = []*models.Registration{}
		}

		c.JSON(http.StatusOK, registrations)
	}
}

// @Summary      Get a payment screenshot link
// @Description  Returns a short-lived URL for the registration's payment screenshot. S3 backends presign the link; local storage points at the /files route.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Registration ID"
// @Success      200  {object}  map[string]interface{}  "Screenshot URL"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Server error"
// @Router       /api/admin/registrations/{id}/screenshot [get]
// ScreenshotURLHandler hands out the download URL for a stored screenshot
// GET /api/admin/registrations/:id/screenshot
func ScreenshotURLHandler(db *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	repo := repositories.NewRegistrationRepository(db)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		reg, err := repo.GetRegistrationByID(ctx, id)
		if err != nil {
			slog.Error("failed to look up registration for screenshot", "registration_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error",
			})
			return
		}
		if reg == nil || reg.PaymentScreenshotPath == "" {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "User not found.",
			})
			return
		}

		url, err := storageBackend.GetURL(ctx, reg.PaymentScreenshotPath, screenshotURLTTL)
		if err != nil {
			slog.Error("failed to build screenshot URL",
				"registration_id", id, "path", reg.PaymentScreenshotPath, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"url":     url,
		})
	}
}

// @Summary      Delete a registration
// @Description  Removes a registration, its leaderboard entry, and its stored payment screenshot.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Registration ID"
// @Success      200  {object}  map[string]interface{}  "User deleted"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Server error"
// @Router       /api/admin/registrations/{id} [delete]
// DeleteHandler removes a registration and everything attached to it
// DELETE /api/admin/registrations/:id
func DeleteHandler(db *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	repo := repositories.NewRegistrationRepository(db)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		// Fetch first so the screenshot path survives the row deletion.
		reg, err := repo.GetRegistrationByID(ctx, id)
		if err != nil {
			slog.Error("failed to look up registration for deletion", "registration_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error while deleting user.",
			})
			return
		}
		if reg == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "User not found.",
			})
			return
		}

		deleted, err := repo.DeleteRegistration(ctx, id)
		if err != nil {
			slog.Error("failed to delete registration", "registration_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error while deleting user.",
			})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "User not found.",
			})
			return
		}

		// Screenshot cleanup is best-effort; the registration is already gone.
		if reg.PaymentScreenshotPath != "" {
			if err := storageBackend.Delete(ctx, reg.PaymentScreenshotPath); err != nil {
				slog.Warn("failed to delete payment screenshot",
					"registration_id", id, "path", reg.PaymentScreenshotPath, "error", err)
			}
		}

		slog.Info("registration deleted", "registration_id", id, "admin", c.GetString("admin_username"))

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "User deleted successfully.",
		})
	}
}
