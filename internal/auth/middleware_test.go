package auth

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/appointment-service/internal/domain"
	apperrors "github.com/spec-kit/appointment-service/pkg/util/errorutil"
)

func newAuthApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var domainErr *apperrors.DomainError
			if errors.As(err, &domainErr) {
				return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/whoami", mw.Handle, func(c *fiber.Ctx) error {
		return c.SendString(string(ActorFromContext(c).Role))
	})
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString(ActorFromContext(c).SubjectID)
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestMiddlewareResolvesActor(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newAuthApp(tm)
	token, _, err := tm.GenerateToken("op-1", domain.ActorRoleAdmin)
	require.NoError(t, err)

	status, body := call(t, app, "/whoami", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, string(domain.ActorRoleCustomer), body)

	status, body = call(t, app, "/whoami", "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, string(domain.ActorRoleAdmin), body)

	status, body = call(t, app, "/whoami", "Basic abc")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, body)

	status, _ = call(t, app, "/whoami", "Bearer garbage")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequireAdmin(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	app := newAuthApp(tm)
	token, _, err := tm.GenerateToken("op-1", domain.ActorRoleAdmin)
	require.NoError(t, err)

	status, body := call(t, app, "/admin", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, body)

	status, body = call(t, app, "/admin", "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "op-1", body)
}
