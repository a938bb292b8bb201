package admin

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

var rankedColumns = []string{"registration_id", "name", "sap_id", "points"}

func newExportRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	r := gin.New()
	r.GET("/api/admin/export/registrations", ExportRegistrationsHandler(db))
	r.GET("/api/admin/export/leaderboard", ExportLeaderboardHandler(db))
	return r, mock
}

func doExport(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

// openWorkbook parses the response body as an xlsx workbook.
func openWorkbook(t *testing.T, w *httptest.ResponseRecorder) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("response body is not a valid xlsx workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	value, err := f.GetCellValue(sheet, cell)
	if err != nil {
		t.Fatalf("GetCellValue(%s, %s): %v", sheet, cell, err)
	}
	return value
}

// ---------------------------------------------------------------------------
// Registrations export
// ---------------------------------------------------------------------------

func TestExportRegistrationsHandler(t *testing.T) {
	r, mock := newExportRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM registrations")).
		WillReturnRows(sampleRegistrationRows("reg-1", "reg-2"))

	w := doExport(r, "/api/admin/export/registrations")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename=registrations.xlsx" {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f := openWorkbook(t, w)
	const sheet = "Registrations"

	wantHeaders := []string{"Name", "SAP ID", "Email", "Year", "Course", "Section", "Transaction ID"}
	for i, want := range wantHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if got := cellValue(t, f, sheet, col+"1"); got != want {
			t.Errorf("header %s1 = %q, want %q", col, got, want)
		}
	}

	if got := cellValue(t, f, sheet, "A2"); got != "Asha Verma" {
		t.Errorf("A2 = %q, want Asha Verma", got)
	}
	if got := cellValue(t, f, sheet, "G3"); got != "TXN-reg-2" {
		t.Errorf("G3 = %q, want TXN-reg-2", got)
	}
}

func TestExportRegistrationsHandler_DBError(t *testing.T) {
	r, mock := newExportRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM registrations")).
		WillReturnError(errDB())

	w := doExport(r, "/api/admin/export/registrations")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Failed to export data")) {
		t.Errorf("body = %s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Leaderboard export
// ---------------------------------------------------------------------------

func TestExportLeaderboardHandler(t *testing.T) {
	r, mock := newExportRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id AS registration_id, r.name, r.sap_id, e.points")).
		WillReturnRows(sqlmock.NewRows(rankedColumns).
			AddRow("reg-1", "Asha Verma", "500098765", 40).
			AddRow(nil, nil, nil, 15))

	w := doExport(r, "/api/admin/export/leaderboard")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename=leaderboard.xlsx" {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f := openWorkbook(t, w)
	const sheet = "Leaderboard"

	wantHeaders := []string{"Rank", "Name", "SAP ID", "Points"}
	for i, want := range wantHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if got := cellValue(t, f, sheet, col+"1"); got != want {
			t.Errorf("header %s1 = %q, want %q", col, got, want)
		}
	}

	// Ranked row.
	if got := cellValue(t, f, sheet, "A2"); got != "1" {
		t.Errorf("A2 = %q, want 1", got)
	}
	if got := cellValue(t, f, sheet, "B2"); got != "Asha Verma" {
		t.Errorf("B2 = %q, want Asha Verma", got)
	}

	// Orphaned row falls back to N/A sentinels.
	if got := cellValue(t, f, sheet, "B3"); got != "N/A" {
		t.Errorf("B3 = %q, want N/A", got)
	}
	if got := cellValue(t, f, sheet, "C3"); got != "N/A" {
		t.Errorf("C3 = %q, want N/A", got)
	}
	if got := cellValue(t, f, sheet, "D3"); got != "15" {
		t.Errorf("D3 = %q, want 15", got)
	}
}

func TestExportLeaderboardHandler_DBError(t *testing.T) {
	r, mock := newExportRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id AS registration_id, r.name, r.sap_id, e.points")).
		WillReturnError(errDB())

	w := doExport(r, "/api/admin/export/leaderboard")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Failed to export leaderboard data")) {
		t.Errorf("body = %s", w.Body.String())
	}
}
