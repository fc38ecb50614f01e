package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chirp/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for unit tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"tweetId", "tweet ID"},
		{"targetUserId", "target user ID"},
		{"memberId", "member ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- parsePagination ---

func paginationApp() *fiber.App {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p, err := parsePagination(c, 25)
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit})
	})
	return app
}

func TestParsePagination_Defaults(t *testing.T) {
	resp, err := paginationApp().Test(httptest.NewRequest(http.MethodGet, "/items", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(25), body["limit"])
}

func TestParsePagination_Custom(t *testing.T) {
	resp, err := paginationApp().Test(httptest.NewRequest(http.MethodGet, "/items?page=3&limit=10", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, float64(3), body["page"])
	assert.Equal(t, float64(10), body["limit"])
}

// Out-of-range values pass through untouched; the service layer rejects them.
func TestParsePagination_NoClamping(t *testing.T) {
	resp, err := paginationApp().Test(httptest.NewRequest(http.MethodGet, "/items?page=0&limit=500", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, float64(0), body["page"])
	assert.Equal(t, float64(500), body["limit"])
}

func TestParsePagination_NonNumericIsBadRequest(t *testing.T) {
	tests := []struct {
		query  string
		fields []string
	}{
		{"limit=abc", []string{"limit"}},
		{"page=2x", []string{"page"}},
		{"page=one&limit=ten", []string{"page", "limit"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := paginationApp().Test(httptest.NewRequest(http.MethodGet, "/items?"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, models.CodeValidation, body.Code)
			fields := make([]string, 0, len(body.Details))
			for _, d := range body.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

// --- parseID ---

func TestParseID_ValidID(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseID_ContextSpecificErrorMessage(t *testing.T) {
	tests := []struct {
		param       string
		value       string
		expectedMsg string
	}{
		{"id", "abc", "Invalid ID"},
		{"tweetId", "abc", "Invalid tweet ID"},
		{"targetUserId", "-4", "Invalid target user ID"},
		{"memberId", "0", "Invalid member ID"},
	}
	for _, tt := range tests {
		t.Run(tt.param+"="+tt.value, func(t *testing.T) {
			app := fiber.New()
			s := &Server{}
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				_, _ = s.parseID(c, tt.param)
				return nil
			})

			req := httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedMsg, body["error"])
			assert.Equal(t, models.CodeValidation, body["code"])
		})
	}
}

// --- error mapping ---

func TestFiberErrorCode(t *testing.T) {
	assert.Equal(t, models.CodeValidation, fiberErrorCode(fiber.StatusBadRequest))
	assert.Equal(t, models.CodeValidation, fiberErrorCode(fiber.StatusRequestEntityTooLarge))
	assert.Equal(t, models.CodeValidation, fiberErrorCode(fiber.StatusUpgradeRequired))
	assert.Equal(t, models.CodeUnauthorized, fiberErrorCode(fiber.StatusUnauthorized))
	assert.Equal(t, models.CodeForbidden, fiberErrorCode(fiber.StatusForbidden))
	assert.Equal(t, models.CodeNotFound, fiberErrorCode(fiber.StatusMethodNotAllowed))
	assert.Equal(t, models.CodeInternal, fiberErrorCode(fiber.StatusBadGateway))
}

func TestMapServiceError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, mapServiceError(models.NewNotFoundMessage("Tweet not found")))
	assert.Equal(t, http.StatusConflict, mapServiceError(models.NewConflictError("Like already exists")))
	assert.Equal(t, http.StatusInternalServerError, mapServiceError(errors.New("boom")))
}

// --- readiness ---

func readinessStatus(t *testing.T, s *Server) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/health/ready", s.ReadinessCheck)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestReadinessCheck_Healthy(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mock.ExpectPing()

	status, body := readinessStatus(t, &Server{db: gormDB, redis: rdb})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	status, body := readinessStatus(t, &Server{db: gormDB, redis: rdb})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "unhealthy", checks["database"])
	assert.Equal(t, "healthy", checks["redis"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadinessCheck_RedisMissing(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	mock.ExpectPing()

	status, body := readinessStatus(t, &Server{db: gormDB})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}
