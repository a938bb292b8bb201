// export.go implements the admin spreadsheet exports. Both endpoints build an
// xlsx workbook in memory with excelize and send it as an attachment; the
// datasets are bounded by the event's seat capacity, so there is no need to
// stream.
package admin

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/event-registry/event-registry/internal/db/repositories"
	"github.com/event-registry/event-registry/internal/telemetry"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeSheetHeader renames the default sheet, writes the header row, and sets
// the column widths.
func writeSheetHeader(f *excelize.File, sheet string, headers []string, widths []float64) error {
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, header := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, col+"1", header); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return err
		}
	}
	return nil
}

// sendWorkbook serializes the workbook and writes it as an xlsx attachment.
func sendWorkbook(c *gin.Context, f *excelize.File, filename string) error {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	return nil
}

// @Summary      Export registrations
// @Description  Downloads every registration as an xlsx workbook.
// @Tags         Admin
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file  "registrations.xlsx"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Export failure"
// @Router       /api/admin/export/registrations [get]
// ExportRegistrationsHandler downloads all registrations as a spreadsheet
// GET /api/admin/export/registrations
func ExportRegistrationsHandler(db *sql.DB) gin.HandlerFunc {
	repo := repositories.NewRegistrationRepository(db)

	return func(c *gin.Context) {
		registrations, err := repo.ListRegistrations(c.Request.Context())
		if err != nil {
			slog.Error("registrations export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to export data",
			})
			return
		}

		f := excelize.NewFile()
		defer f.Close()

		const sheet = "Registrations"
		headers := []string{"Name", "SAP ID", "Email", "Year", "Course", "Section", "Transaction ID"}
		widths := []float64{30, 20, 40, 10, 40, 15, 30}

		err = writeSheetHeader(f, sheet, headers, widths)
		if err == nil {
			for i, reg := range registrations {
				cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
				if cellErr != nil {
					err = cellErr
					break
				}
				if err = f.SetSheetRow(sheet, cell, &[]interface{}{
					reg.Name, reg.SapID, reg.Email, reg.Year, reg.Course, reg.Section, reg.TransactionID,
				}); err != nil {
					break
				}
			}
		}
		if err == nil {
			err = sendWorkbook(c, f, "registrations.xlsx")
		}
		if err != nil {
			slog.Error("registrations export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to export data",
			})
			return
		}

		telemetry.ExportDownloadsTotal.WithLabelValues("registrations").Inc()
	}
}

// @Summary      Export leaderboard
// @Description  Downloads the ranked leaderboard as an xlsx workbook. Orphaned entries show N/A for name and SAP ID.
// @Tags         Admin
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file  "leaderboard.xlsx"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Export failure"
// @Router       /api/admin/export/leaderboard [get]
// ExportLeaderboardHandler downloads the ranked leaderboard as a spreadsheet
// GET /api/admin/export/leaderboard
func ExportLeaderboardHandler(db *sql.DB) gin.HandlerFunc {
	repo := repositories.NewLeaderboardRepository(db)

	return func(c *gin.Context) {
		ranked, err := repo.ListRanked(c.Request.Context())
		if err != nil {
			slog.Error("leaderboard export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to export leaderboard data",
			})
			return
		}

		f := excelize.NewFile()
		defer f.Close()

		const sheet = "Leaderboard"
		headers := []string{"Rank", "Name", "SAP ID", "Points"}
		widths := []float64{10, 30, 20, 15}

		err = writeSheetHeader(f, sheet, headers, widths)
		if err == nil {
			for i, row := range ranked {
				name, sapID := "N/A", "N/A"
				if row.Name != nil {
					name = *row.Name
				}
				if row.SapID != nil {
					sapID = *row.SapID
				}

				cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
				if cellErr != nil {
					err = cellErr
					break
				}
				if err = f.SetSheetRow(sheet, cell, &[]interface{}{
					i + 1, name, sapID, row.Points,
				}); err != nil {
					break
				}
			}
		}
		if err == nil {
			err = sendWorkbook(c, f, "leaderboard.xlsx")
		}
		if err != nil {
			slog.Error("leaderboard export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to export leaderboard data",
			})
			return
		}

		telemetry.ExportDownloadsTotal.WithLabelValues("leaderboard").Inc()
	}
}
