// Package registrations implements the public registration endpoints: form
// submission with payment-screenshot upload, seat statistics, and screenshot
// serving for the local storage backend.
package registrations

import (
	"bytes"
	"database/sql"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/event-registry/event-registry/internal/config"
	"github.com/event-registry/event-registry/internal/db/models"
	"github.com/event-registry/event-registry/internal/db/repositories"
	"github.com/event-registry/event-registry/internal/storage"
	"github.com/event-registry/event-registry/internal/telemetry"
	"github.com/event-registry/event-registry/internal/validation"
)

// duplicateMessages maps a violated uniqueness column to the message shown on
// the registration form for it.
var duplicateMessages = map[string]string{
	"sap_id":         "SAP ID already registered.",
	"email":          "Email already registered.",
	"transaction_id": "Transaction ID already used.",
}

// hashField produces the bcrypt audit copy stored alongside a unique form
// field.
func hashField(value string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// @Summary      Register for the event
// @Description  Creates a registration from the public form. Expects multipart/form-data with the participant fields and a paymentScreenshot image file. Duplicate SAP ID, email, or transaction ID submissions are rejected.
// @Tags         Registrations
// @Accept       multipart/form-data
// @Produce      json
// @Param        name               formData  string  true  "Participant name"
// @Param        sapId              formData  string  true  "SAP ID"
// @Param        email              formData  string  true  "Email address"
// @Param        year               formData  string  true  "Year of study"
// @Param        course             formData  string  true  "Course"
// @Param        section            formData  string  true  "Section"
// @Param        transactionId      formData  string  true  "Payment transaction ID"
// @Param        paymentScreenshot  formData  file    true  "Payment screenshot image"
// @Success      201  {object}  map[string]interface{}  "Registration created"
// @Failure      400  {object}  map[string]interface{}  "Validation failure or duplicate field"
// @Failure      500  {object}  map[string]interface{}  "Server error"
// @Router       /api/register [post]
// CreateHandler handles new event registrations
// POST /api/register
func CreateHandler(db *sql.DB, storageBackend storage.Storage, cfg *config.Config) gin.HandlerFunc {
	repo := repositories.NewRegistrationRepository(db)
	maxBytes := int64(cfg.Event.MaxScreenshotSizeMB) << 20

	return func(c *gin.Context) {
		form := &validation.RegistrationForm{
			Name:          c.PostForm("name"),
			SapID:         c.PostForm("sapId"),
			Email:         c.PostForm("email"),
			Year:          c.PostForm("year"),
			Course:        c.PostForm("course"),
			Section:       c.PostForm("section"),
			TransactionID: c.PostForm("transactionId"),
		}

		fileHeader, fileErr := c.FormFile("paymentScreenshot")

		if err := validation.ValidateRegistrationForm(form, fileErr == nil); err != nil {
			telemetry.RegistrationsRejectedTotal.WithLabelValues("validation").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": err.Error(),
			})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error during registration.",
			})
			return
		}
		// Read one byte past the cap so ValidateScreenshot can tell an
		// oversized upload apart from one that is exactly at the limit.
		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error during registration.",
			})
			return
		}

		if err := validation.ValidateScreenshot(data, maxBytes); err != nil {
			telemetry.RegistrationsRejectedTotal.WithLabelValues("screenshot").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": err.Error(),
			})
			return
		}

		ctx := c.Request.Context()

		// Duplicate pre-checks run in form-field order so the participant sees
		// the first conflicting field. The database unique constraints remain
		// the real guard against concurrent submissions.
		checks := []struct {
			column string
			value  string
			exists func(string) (bool, error)
		}{
			{"sap_id", form.SapID, func(v string) (bool, error) { return repo.ExistsBySapID(ctx, v) }},
			{"email", form.Email, func(v string) (bool, error) { return repo.ExistsByEmail(ctx, v) }},
			{"transaction_id", form.TransactionID, func(v string) (bool, error) { return repo.ExistsByTransactionID(ctx, v) }},
		}
		for _, check := range checks {
			exists, err := check.exists(check.value)
			if err != nil {
				slog.Error("duplicate pre-check failed", "column", check.column, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Server error during registration.",
				})
				return
			}
			if exists {
				telemetry.RegistrationsRejectedTotal.WithLabelValues("duplicate_" + check.column).Inc()
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"message": duplicateMessages[check.column],
				})
				return
			}
		}

		if err := createRegistration(c, repo, storageBackend, form, data); err != nil {
			slog.Error("registration failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Server error during registration.",
			})
		}
	}
}

// createRegistration uploads the screenshot and persists the registration.
// It writes the HTTP response itself for every outcome except internal errors,
// which it returns for the caller's catch-all 500.
func createRegistration(
	c *gin.Context,
	repo *repositories.RegistrationRepository,
	storageBackend storage.Storage,
	form *validation.RegistrationForm,
	screenshot []byte,
) error {
	ctx := c.Request.Context()

	hashedSapID, err := hashField(form.SapID)
	if err != nil {
		return err
	}
	hashedEmail, err := hashField(form.Email)
	if err != nil {
		return err
	}
	hashedTransactionID, err := hashField(form.TransactionID)
	if err != nil {
		return err
	}

	screenshotPath := "screenshots/" + uuid.New().String() + validation.ScreenshotExtension(screenshot)
	upload, err := storageBackend.Upload(ctx, screenshotPath, bytes.NewReader(screenshot), int64(len(screenshot)))
	if err != nil {
		return err
	}
	telemetry.ScreenshotUploadBytes.Observe(float64(upload.Size))

	reg := &models.Registration{
		Name:                  form.Name,
		SapID:                 form.SapID,
		Email:                 form.Email,
		Year:                  form.Year,
		Course:                form.Course,
		Section:               form.Section,
		TransactionID:         form.TransactionID,
		PaymentScreenshotPath: screenshotPath,
		HashedSapID:           hashedSapID,
		HashedEmail:           hashedEmail,
		HashedTransactionID:   hashedTransactionID,
	}

	if err := repo.CreateRegistration(ctx, reg); err != nil {
		// Don't leave an orphaned screenshot behind.
		if delErr := storageBackend.Delete(ctx, screenshotPath); delErr != nil {
			slog.Warn("failed to clean up screenshot after failed registration",
				"path", screenshotPath, "error", delErr)
		}

		// A concurrent submission can slip past the pre-checks; the unique
		// constraint violation still maps to the same form message.
		if column := repositories.UniqueViolationColumn(err); column != "" {
			telemetry.RegistrationsRejectedTotal.WithLabelValues("duplicate_" + column).Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": duplicateMessages[column],
			})
			return nil
		}

		return err
	}

	telemetry.RegistrationsCreatedTotal.Inc()
	slog.Info("registration created", "registration_id", reg.ID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful!",
	})
	return nil
}
