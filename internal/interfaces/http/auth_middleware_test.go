package http_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/internal/application/auth"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/authz"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	apphttp "github.com/jhoicas/materiales-api/internal/interfaces/http"
	"github.com/jhoicas/materiales-api/internal/testutil"
	pkgjwt "github.com/jhoicas/materiales-api/pkg/jwt"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "materiales-api-test"
	testExpMin    = 60
)

// buildMiddlewareApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para parsear el JWT
//   - PrincipalMiddleware para resolver roles contra el store
//   - RequirePermission(op, kind) para autorizar
//   - Un handler dummy que devuelve el principal si pasa los middlewares
func buildMiddlewareApp(store *testutil.Store, op authz.Operation, kind authz.EntityKind) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(logger.Nop())})
	roles := auth.NewRoleRegistry(store.Users(), logger.Nop())
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.PrincipalMiddleware(roles, logger.Nop()),
		apphttp.RequirePermission(op, kind),
		func(c *fiber.Ctx) error {
			p := apphttp.GetPrincipal(c)
			return c.JSON(fiber.Map{"ok": true, "user_id": p.ID, "roles": p.Roles.Slice()})
		},
	)
	return app
}

// bearer genera un JWT para userID.
func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequirePermission
// ──────────────────────────────────────────────────────────────────────────────

func TestRequirePermission_AlmaceneroRegistraMovimiento(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedUser("almacen@josafat.com", entity.RoleAlmacenero)
	app := buildMiddlewareApp(store, authz.OpCreate, authz.EntityMovement)

	resp := doRequest(t, app, bearer(t, id))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, id, body["user_id"])
	assert.Equal(t, []interface{}{"almacenero"}, body["roles"])
}

func TestRequirePermission_ProduccionBloqueadoEnEscritura(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedUser("produccion@josafat.com", entity.RoleProduccion)
	app := buildMiddlewareApp(store, authz.OpCreate, authz.EntityMovement)

	resp := doRequest(t, app, bearer(t, id))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode,
		"produccion no debe poder registrar movimientos")
	assert.Contains(t, bodyString(t, resp), "FORBIDDEN")
}

func TestRequirePermission_ProduccionLeeReportes(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedUser("produccion@josafat.com", entity.RoleProduccion)
	app := buildMiddlewareApp(store, authz.OpRead, authz.EntityReport)

	resp := doRequest(t, app, bearer(t, id))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequirePermission_UsuarioDesconocidoSinRoles(t *testing.T) {
	store := testutil.NewStore()
	app := buildMiddlewareApp(store, authz.OpRead, authz.EntityMaterial)

	resp := doRequest(t, app, bearer(t, "00000000-0000-0000-0000-000000000099"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode,
		"un token válido de un usuario inexistente no concede ningún rol")
}

func TestRequirePermission_RevocacionInmediata(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedUser("almacen@josafat.com", entity.RoleAlmacenero)
	app := buildMiddlewareApp(store, authz.OpCreate, authz.EntityMaterial)
	token := bearer(t, id)

	resp := doRequest(t, app, token)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	u, err := store.Users().GetByID(t.Context(), id)
	require.NoError(t, err)
	u.Roles = []string{entity.RoleProduccion}
	require.NoError(t, store.Users().Update(t.Context(), u))

	resp = doRequest(t, app, token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode,
		"el mismo token debe perder el permiso en la siguiente petición")
}

func TestPrincipalMiddleware_RegistroCaido_Retorna503(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedUser("admin@josafat.com", entity.RoleAdmin)
	store.FailReads(errors.New("connection refused"))
	app := buildMiddlewareApp(store, authz.OpRead, authz.EntityMaterial)

	resp := doRequest(t, app, bearer(t, id))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode,
		"un fallo del registro nunca se traduce en acceso concedido ni denegado")
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Contains(t, bodyString(t, resp), "AUTH_UNAVAILABLE")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinAuthHeader_Retorna401(t *testing.T) {
	app := buildMiddlewareApp(testutil.NewStore(), authz.OpRead, authz.EntityMaterial)
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "MISSING_TOKEN")
}

func TestAuthMiddleware_FormatoInvalido_Retorna401(t *testing.T) {
	app := buildMiddlewareApp(testutil.NewStore(), authz.OpRead, authz.EntityMaterial)
	resp := doRequest(t, app, "Token abc")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "INVALID_TOKEN")
}

func TestAuthMiddleware_TokenInvalido_Retorna401(t *testing.T) {
	app := buildMiddlewareApp(testutil.NewStore(), authz.OpRead, authz.EntityMaterial)
	resp := doRequest(t, app, "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_SecretIncorrecto_Retorna401(t *testing.T) {
	store := testutil.NewStore()
	id := store.SeedUser("admin@josafat.com", entity.RoleAdmin)
	app := buildMiddlewareApp(store, authz.OpRead, authz.EntityMaterial)

	tok, err := pkgjwt.Generate("otro-secret-completamente-distinto", id, testIssuer, testExpMin)
	require.NoError(t, err)
	resp := doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_ExtraeUserID(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.SendString(apphttp.GetUserID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, "00000000-0000-0000-0000-000000000001"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", strings.TrimSpace(bodyString(t, resp)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests ErrorHandler
// ──────────────────────────────────────────────────────────────────────────────

func TestErrorHandler_MapeaErroresDeDominio(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest, "VALIDATION"},
		{domain.ErrMaterialNotFound, http.StatusNotFound, "MATERIAL_NOT_FOUND"},
		{domain.ErrDuplicateCode, http.StatusConflict, "DUPLICATE_CODE"},
		{domain.ErrMaterialInUse, http.StatusConflict, "MATERIAL_IN_USE"},
		{domain.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrPersistenceUnavailable, http.StatusServiceUnavailable, "PERSISTENCE_UNAVAILABLE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(logger.Nop())})
			app.Get("/", func(c *fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Contains(t, bodyString(t, resp), tc.code)
		})
	}
}
