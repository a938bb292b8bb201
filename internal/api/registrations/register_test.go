package registrations

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Event: config.EventConfig{
			TotalSeats:          100,
			MaxScreenshotSizeMB: 5,
		},
	}
}

// validFields is a complete registration form.
func validFields() map[string]string {
	return map[string]string{
		"name":          "Asha Verma",
		"sapId":         "500098765",
		"email":         "asha@example.com",
		"year":          "2",
		"course":        "B.Tech CSE",
		"section":       "B",
		"transactionId": "TXN-001",
	}
}

// multipartBody builds a multipart form with the given fields and, when
// screenshot is non-nil, a paymentScreenshot file.
func multipartBody(t *testing.T, fields map[string]string, screenshot []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatal("WriteField:", err)
		}
	}
	if screenshot != nil {
		part, err := writer.CreateFormFile("paymentScreenshot", "payment.png")
		if err != nil {
			t.Fatal("CreateFormFile:", err)
		}
		if _, err := part.Write(screenshot); err != nil {
			t.Fatal("write screenshot:", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal("close writer:", err)
	}

	return body, writer.FormDataContentType()
}

func newRegisterRouter(t *testing.T, store *memStorage) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal("sqlmock.New:", err)
	}
	t.Cleanup(func() { db.Close() })

	r := gin.New()
	r.POST("/api/register", CreateHandler(db, store, testConfig()))
	return r, mock
}

func doRegister(r *gin.Engine, fields map[string]string, screenshot []byte, t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, screenshot)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)
	return w
}

func responseMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	message, _ := body["message"].(string)
	return message
}

// expectExistsCheck queues one EXISTS query result for the given column.
func expectExistsCheck(mock sqlmock.Sqlmock, column string, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM registrations WHERE ` + column + ` = \$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

// expectCreateTx queues the insert transaction for a successful registration.
func expectCreateTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO leaderboard_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

// ---------------------------------------------------------------------------
// Validation failures
// ---------------------------------------------------------------------------

func TestCreateHandler_MissingField(t *testing.T) {
	store := newMemStorage()
	r, _ := newRegisterRouter(t, store)

	fields := validFields()
	delete(fields, "email")

	w := doRegister(r, fields, pngBytes(), t)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := responseMessage(t, w); msg != "All fields are mandatory." {
		t.Errorf("message = %q", msg)
	}
}

func TestCreateHandler_MissingScreenshot(t *testing.T) {
	store := newMemStorage()
	r, _ := newRegisterRouter(t, store)

	w := doRegister(r, validFields(), nil, t)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := responseMessage(t, w); msg != "All fields are mandatory." {
		t.Errorf("message = %q", msg)
	}
}

func TestCreateHandler_InvalidEmail(t *testing.T) {
	store := newMemStorage()
	r, _ := newRegisterRouter(t, store)

	fields := validFields()
	fields["email"] = "not-an-email"

	w := doRegister(r, fields, pngBytes(), t)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := responseMessage(t, w); msg != "Please provide a valid email address." {
		t.Errorf("message = %q", msg)
	}
}

func TestCreateHandler_InvalidYear(t *testing.T) {
	store := newMemStorage()
	r, _ := newRegisterRouter(t, store)

	fields := validFields()
	fields["year"] = "banana"

	w := doRegister(r, fields, pngBytes(), t)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := responseMessage(t, w); msg != "Please select a valid year." {
		t.Errorf("message = %q", msg)
	}
	if store.fileCount() != 0 {
		t.Errorf("screenshot stored for rejected registration")
	}
}

func TestCreateHandler_ScreenshotNotImage(t *testing.T) {
	store := newMemStorage()
	r, _ := newRegisterRouter(t, store)

	w := doRegister(r, validFields(), []byte("definitely not an image"), t)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := responseMessage(t, w); msg != "Payment screenshot must be an image file." {
		t.Errorf("message = %q", msg)
	}
	if store.fileCount() != 0 {
		t.Error("rejected screenshot should not be stored")
	}
}

// ---------------------------------------------------------------------------
// Duplicate pre-checks
// ---------------------------------------------------------------------------

func TestCreateHandler_DuplicateSapID(t *testing.T) {
	store := newMemStorage()
	r, mock := newRegisterRouter(t, store)

	expectExistsCheck(mock, "sap_id", true)

	w := doRegister(r, validFields(), pngBytes(), t)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := responseMessage(t, w); msg != "SAP ID already registered." {
		t.Errorf("message = %q", msg)
	}
}

func TestCreateHandler_DuplicateEmail(t *testing.T) {
	store := newMemStorage()
	r, mock := newRegisterRouter(t, store)

	expectExistsCheck(mock, "sap_id", false)
	expectExistsCheck(mock, "email", true)

	w := doRegister(r, validFields(), pngBytes(), t)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := responseMessage(t, w); msg != "Email already registered." {
		t.Errorf("message = %q", msg)
	}
}

func TestCreateHandler_DuplicateTransactionID(t *testing.T) {
	store := newMemStorage()
	r, mock := newRegisterRouter(t, store)

	expectExistsCheck(mock, "sap_id", false)
	expectExistsCheck(mock, "email", false)
	expectExistsCheck(mock, "transaction_id", true)

	w := doRegister(r, validFields(), pngBytes(), t)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := responseMessage(t, w); msg != "Transaction ID already used." {
		t.Errorf("message = %q", msg)
	}
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func TestCreateHandler_Success(t *testing.T) {
	store := newMemStorage()
	r, mock := newRegisterRouter(t, store)

	expectExistsCheck(mock, "sap_id", false)
	expectExistsCheck(mock, "email", false)
	expectExistsCheck(mock, "transaction_id", false)
	expectCreateTx(mock)

	w := doRegister(r, validFields(), pngBytes(), t)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}
	if msg := responseMessage(t, w); msg != "Registration successful!" {
		t.Errorf("message = %q", msg)
	}
	if store.fileCount() != 1 {
		t.Errorf("stored files = %d, want 1", store.fileCount())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateHandler_DBErrorCleansUpScreenshot(t *testing.T) {
	store := newMemStorage()
	r, mock := newRegisterRouter(t, store)

	expectExistsCheck(mock, "sap_id", false)
	expectExistsCheck(mock, "email", false)
	expectExistsCheck(mock, "transaction_id", false)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WillReturnError(errDB())
	mock.ExpectRollback()

	w := doRegister(r, validFields(), pngBytes(), t)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if msg := responseMessage(t, w); msg != "Server error during registration." {
		t.Errorf("message = %q", msg)
	}
	if store.fileCount() != 0 {
		t.Error("screenshot should be removed after a failed insert")
	}
}

func TestCreateHandler_UploadFailure(t *testing.T) {
	store := newMemStorage()
	store.failUpload = true
	r, mock := newRegisterRouter(t, store)

	expectExistsCheck(mock, "sap_id", false)
	expectExistsCheck(mock, "email", false)
	expectExistsCheck(mock, "transaction_id", false)

	w := doRegister(r, validFields(), pngBytes(), t)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if msg := responseMessage(t, w); msg != "Server error during registration." {
		t.Errorf("message = %q", msg)
	}
}
