package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"No header", "", "", false},
		{"Bearer", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Lowercase scheme", "bearer abc", "abc", true},
		{"Extra whitespace", "Bearer   abc  ", "abc", true},
		{"Basic scheme", "Basic dXNlcjpwYXNz", "", false},
		{"Scheme only", "Bearer", "", false},
		{"Empty token", "Bearer    ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				token, ok := BearerToken(c)
				assert.Equal(t, tt.wantOK, ok)
				assert.Equal(t, tt.wantToken, token)
				return c.SendStatus(fiber.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		})
	}
}

func TestSetUserID(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := UserIDFromLocals(c)
		assert.False(t, ok)

		SetUserID(c, 7)
		id, ok := UserIDFromLocals(c)
		assert.True(t, ok)
		assert.Equal(t, uint(7), id)
		assert.Equal(t, uint(7), c.UserContext().Value(UserIDKey))
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
