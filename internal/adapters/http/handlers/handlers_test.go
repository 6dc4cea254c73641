package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"sigebi-web/internal/config"
	"sigebi-web/internal/core/domain"
	"sigebi-web/internal/core/services"
	"sigebi-web/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Fakes
// -------------------------

type fakeLoanService struct {
	byUser      map[uuid.UUID][]*domain.Loan
	createErr   error
	createCalls int
	lastInput   services.CreateLoanInput
	returnErr   error
}

func (f *fakeLoanService) GetLoansByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	return f.byUser[userID], nil
}

func (f *fakeLoanService) GetOverdueLoans(ctx context.Context, asOf time.Time) ([]*domain.Loan, error) {
	return nil, nil
}

func (f *fakeLoanService) CreateLoan(ctx context.Context, input services.CreateLoanInput) (*domain.Loan, error) {
	f.createCalls++
	f.lastInput = input
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Loan{
		ID:     uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		BookID: input.BookID,
		UserID: input.UserID,
		Status: domain.LoanActive,
		Period: domain.LoanPeriod{StartUTC: input.StartUTC, DueUTC: input.DueUTC},
	}, nil
}

func (f *fakeLoanService) ReturnLoan(ctx context.Context, loanID uuid.UUID, at time.Time) (*domain.Loan, error) {
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	return &domain.Loan{ID: loanID, UserID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Status: domain.LoanReturned}, nil
}

func (f *fakeLoanService) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	return 0, nil
}

type fakeDashboard struct {
	data *services.DashboardData
	err  error
}

func (f *fakeDashboard) Load(ctx context.Context, asOf time.Time) (*services.DashboardData, error) {
	return f.data, f.err
}

type fakeAuth struct {
	err error
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.LoginResult{User: &domain.User{Email: email}, AccessToken: "token-123"}, nil
}

// -------------------------
// Helpers
// -------------------------

const (
	testUserID = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	testBookID = "9b2e6a4c-1d3f-4e5a-8b7c-6d5e4f3a2b1c"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		Views:       web.NewEngine(),
		ViewsLayout: web.Layout,
	})
}

func newPrestamoApp(loans *fakeLoanService) *fiber.App {
	app := newTestApp()
	h := NewPrestamoHandler(loans, NewFlash(session.New()), config.LibraryConfig{LoanDefaultDays: 7})
	h.now = func() time.Time { return testNow }

	app.Get("/Prestamo", h.Index)
	app.Post("/Prestamo", h.Search)
	app.Get("/Prestamo/Create", h.CreateForm)
	app.Post("/Prestamo/Create", h.Create)
	app.Post("/Prestamo/Devolver/:id", h.Return)
	return app
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func withCookies(req *http.Request, resp *http.Response) *http.Request {
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}
	return req
}

// -------------------------
// Home
// -------------------------

func Test_HomeIndex_RendersDashboard(t *testing.T) {
	// arrange
	data := sampleDashboardData()
	data.OverdueLoans = []*domain.Loan{
		overdueLoan("00000000-0000-0000-0000-0000000000aa", testNow.AddDate(0, 0, -3)),
	}
	h := NewHomeHandler(&fakeDashboard{data: data})
	h.now = func() time.Time { return testNow }
	app := newTestApp()
	app.Get("/", h.Index)

	// act
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?categoria=catalogo", nil))
	require.NoError(t, err)
	body := readBody(t, resp)

	// assert
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Bienvenido a SIGEBI")
	assert.Contains(t, body, "00000000-0000-0000-0000-0000000000aa")
	assert.Contains(t, body, "Venció hace 3 días")
	assert.Contains(t, body, `id="capacityRange"`)
	assert.Contains(t, body, "/static/js/dashboard.js")
	assert.Equal(t, 5, strings.Count(body, `col-md-4 d-none" data-module-card`))
	assert.Contains(t, body, `col-md-4" data-module-card data-category="catalogo"`)
}

func Test_HomeIndex_PropagatesLoadFailure(t *testing.T) {
	h := NewHomeHandler(&fakeDashboard{err: errors.New("db down")})
	app := newTestApp()
	app.Get("/", h.Index)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func Test_HomeError_IsNotCached(t *testing.T) {
	h := NewHomeHandler(&fakeDashboard{})
	app := newTestApp()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalRequestID, "req-42")
		return c.Next()
	})
	app.Get("/Home/Error", h.Error)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/Home/Error", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderCacheControl), "no-store")
	assert.Contains(t, readBody(t, resp), "req-42")
}

// -------------------------
// Prestamo search
// -------------------------

func Test_PrestamoIndex(t *testing.T) {
	userID := uuid.MustParse(testUserID)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	loans := &fakeLoanService{byUser: map[uuid.UUID][]*domain.Loan{
		userID: {{
			ID:     uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"),
			BookID: uuid.MustParse(testBookID),
			UserID: userID,
			Status: domain.LoanActive,
			Period: domain.LoanPeriod{StartUTC: start, DueUTC: start.AddDate(0, 0, 7)},
			Notes:  "Primer préstamo",
		}},
	}}

	testCases := []struct {
		name        string
		target      string
		contains    []string
		notContains []string
	}{
		{
			name:        "no user id shows an empty form",
			target:      "/Prestamo",
			notContains: []string{"prestamoResultados", "sinResultados", msgInvalidGUID},
		},
		{
			name:     "valid user id lists loans",
			target:   "/Prestamo?usuarioId=" + testUserID,
			contains: []string{"prestamoResultados", "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", "Activo", "01/03/2024 - 08/03/2024", "Primer préstamo", "Devolver"},
		},
		{
			name:        "nil guid is rejected",
			target:      "/Prestamo?usuarioId=00000000-0000-0000-0000-000000000000",
			contains:    []string{msgInvalidGUID, "sinResultados"},
			notContains: []string{"prestamoResultados"},
		},
		{
			name:        "malformed guid is rejected",
			target:      "/Prestamo?usuarioId=abc",
			contains:    []string{msgInvalidGUID},
			notContains: []string{"prestamoResultados"},
		},
		{
			name:     "user without loans",
			target:   "/Prestamo?usuarioId=" + uuid.NewString(),
			contains: []string{"sinResultados"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newPrestamoApp(loans)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.target, nil))
			require.NoError(t, err)
			body := readBody(t, resp)

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			for _, s := range tc.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tc.notContains {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func Test_PrestamoSearch_Post(t *testing.T) {
	testCases := []struct {
		name    string
		userID  string
		message string
	}{
		{name: "empty user id", userID: "", message: msgUserRequired},
		{name: "whitespace user id", userID: "   ", message: msgUserRequired},
		{name: "malformed user id", userID: "no-es-un-guid", message: msgInvalidGUID},
		{name: "nil user id", userID: uuid.Nil.String(), message: msgInvalidGUID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newPrestamoApp(&fakeLoanService{})

			resp, err := app.Test(postForm("/Prestamo", url.Values{"UsuarioId": {tc.userID}}))
			require.NoError(t, err)
			body := readBody(t, resp)

			assert.Contains(t, body, tc.message)
			assert.Contains(t, body, "sinResultados")
			assert.NotContains(t, body, "prestamoResultados")
		})
	}
}

// -------------------------
// Prestamo create
// -------------------------

func Test_PrestamoCreateForm_Defaults(t *testing.T) {
	app := newPrestamoApp(&fakeLoanService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/Prestamo/Create", nil))
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="2024-03-15"`)
	assert.Contains(t, body, `value="2024-03-22"`)
}

func Test_PrestamoCreate_RejectedBeforeService(t *testing.T) {
	testCases := []struct {
		name     string
		form     url.Values
		messages []string
	}{
		{
			name:     "missing fields",
			form:     url.Values{},
			messages: []string{msgBookRequired, msgUserRequired, msgStartRequired, msgDueRequired},
		},
		{
			name: "malformed values",
			form: url.Values{
				"LibroId": {"x"}, "UsuarioId": {testUserID},
				"FechaInicio": {"15/03/2024"}, "FechaFin": {"2024-03-22"},
			},
			messages: []string{msgInvalidGUID, msgInvalidDate},
		},
		{
			name: "end equal to start",
			form: url.Values{
				"LibroId": {testBookID}, "UsuarioId": {testUserID},
				"FechaInicio": {"2024-03-15"}, "FechaFin": {"2024-03-15"},
			},
			messages: []string{msgDueNotAfter},
		},
		{
			name: "end before start",
			form: url.Values{
				"LibroId": {testBookID}, "UsuarioId": {testUserID},
				"FechaInicio": {"2024-03-15"}, "FechaFin": {"2024-03-10"},
			},
			messages: []string{msgDueNotAfter},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			loans := &fakeLoanService{}
			app := newPrestamoApp(loans)

			// act
			resp, err := app.Test(postForm("/Prestamo/Create", tc.form))
			require.NoError(t, err)
			body := readBody(t, resp)

			// assert
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			for _, m := range tc.messages {
				assert.Contains(t, body, m)
			}
			assert.Zero(t, loans.createCalls)
		})
	}
}

func Test_PrestamoCreate_ServiceErrors(t *testing.T) {
	verr := &domain.ValidationError{}
	verr.Add(services.FieldDueDate, "El préstamo no puede superar 30 días.")

	testCases := []struct {
		name    string
		err     error
		message string
	}{
		{name: "validation", err: verr, message: "El préstamo no puede superar 30 días."},
		{name: "not found", err: domain.NotFound("El libro %s no existe.", testBookID), message: "El libro " + testBookID + " no existe."},
		{name: "conflict", err: domain.Conflict("El usuario Ana tiene una penalización activa."), message: "El usuario Ana tiene una penalización activa."},
	}

	form := url.Values{
		"LibroId": {testBookID}, "UsuarioId": {testUserID},
		"FechaInicio": {"2024-03-15"}, "FechaFin": {"2024-03-22"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loans := &fakeLoanService{createErr: tc.err}
			app := newPrestamoApp(loans)

			resp, err := app.Test(postForm("/Prestamo/Create", form))
			require.NoError(t, err)
			body := readBody(t, resp)

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, 1, loans.createCalls)
			assert.Contains(t, body, tc.message)
			assert.Contains(t, body, `value="`+testBookID+`"`)
		})
	}
}

func Test_PrestamoCreate_UnexpectedErrorPropagates(t *testing.T) {
	app := newPrestamoApp(&fakeLoanService{createErr: errors.New("deadlock")})

	resp, err := app.Test(postForm("/Prestamo/Create", url.Values{
		"LibroId": {testBookID}, "UsuarioId": {testUserID},
		"FechaInicio": {"2024-03-15"}, "FechaFin": {"2024-03-22"},
	}))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func Test_PrestamoCreate_SuccessRedirectsWithFlash(t *testing.T) {
	// arrange
	loans := &fakeLoanService{byUser: map[uuid.UUID][]*domain.Loan{}}
	app := newPrestamoApp(loans)

	// act
	resp, err := app.Test(postForm("/Prestamo/Create", url.Values{
		"LibroId": {testBookID}, "UsuarioId": {testUserID},
		"FechaInicio": {"2024-03-15"}, "FechaFin": {"2024-03-22"},
		"Observaciones": {"  Sala de lectura  "},
	}))
	require.NoError(t, err)

	// assert
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/Prestamo?usuarioId="+testUserID, resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, "Sala de lectura", loans.lastInput.Notes)
	assert.True(t, loans.lastInput.StartUTC.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, loans.lastInput.DueUTC.Equal(time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)))

	next := withCookies(httptest.NewRequest(http.MethodGet, "/Prestamo?usuarioId="+testUserID, nil), resp)
	resp, err = app.Test(next)
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Préstamo 11111111-1111-1111-1111-111111111111 registrado correctamente.")
}

// -------------------------
// Prestamo return
// -------------------------

func Test_PrestamoReturn(t *testing.T) {
	t.Run("success goes back to the borrower", func(t *testing.T) {
		app := newPrestamoApp(&fakeLoanService{})

		resp, err := app.Test(postForm("/Prestamo/Devolver/aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", url.Values{}))

		require.NoError(t, err)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/Prestamo?usuarioId=22222222-2222-2222-2222-222222222222", resp.Header.Get(fiber.HeaderLocation))
	})

	t.Run("conflict is shown as a flash error", func(t *testing.T) {
		app := newPrestamoApp(&fakeLoanService{returnErr: domain.Conflict("El préstamo está Devuelto y no admite devolución.")})

		resp, err := app.Test(postForm("/Prestamo/Devolver/aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", url.Values{"UsuarioId": {testUserID}}))
		require.NoError(t, err)
		assert.Equal(t, "/Prestamo?usuarioId="+testUserID, resp.Header.Get(fiber.HeaderLocation))

		resp, err = app.Test(withCookies(httptest.NewRequest(http.MethodGet, "/Prestamo", nil), resp))
		require.NoError(t, err)
		assert.Contains(t, readBody(t, resp), "El préstamo está Devuelto y no admite devolución.")
	})
}

// -------------------------
// Account
// -------------------------

func Test_AccountLogin(t *testing.T) {
	cfg := &config.Config{
		JWT:    config.JWTConfig{AccessTokenMins: 60},
		Cookie: config.CookieConfig{SameSite: "lax"},
	}

	testCases := []struct {
		name         string
		auth         *fakeAuth
		form         url.Values
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name:         "valid credentials redirect to the return url",
			auth:         &fakeAuth{},
			form:         url.Values{"Email": {"admin@sigebi.edu"}, "Password": {"secreto123"}, "ReturnUrl": {"/Prestamo/Create"}},
			wantStatus:   fiber.StatusFound,
			wantLocation: "/Prestamo/Create",
		},
		{
			name:         "external return url falls back to home",
			auth:         &fakeAuth{},
			form:         url.Values{"Email": {"admin@sigebi.edu"}, "Password": {"secreto123"}, "ReturnUrl": {"//evil.example"}},
			wantStatus:   fiber.StatusFound,
			wantLocation: "/",
		},
		{
			name:       "wrong password",
			auth:       &fakeAuth{err: domain.ErrInvalidCredentials},
			form:       url.Values{"Email": {"admin@sigebi.edu"}, "Password": {"otra"}},
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "Correo o contraseña incorrectos.",
		},
		{
			name:       "inactive account",
			auth:       &fakeAuth{err: domain.ErrUserInactive},
			form:       url.Values{"Email": {"baja@sigebi.edu"}, "Password": {"secreto123"}},
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   "La cuenta está inactiva.",
		},
		{
			name:       "missing fields",
			auth:       &fakeAuth{},
			form:       url.Values{},
			wantStatus: fiber.StatusOK,
			wantBody:   "Debe indicar el correo.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp()
			h := NewAccountHandler(tc.auth, cfg)
			app.Post("/Account/Login", h.Login)

			resp, err := app.Test(postForm("/Account/Login", tc.form))
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			if tc.wantLocation != "" {
				assert.Equal(t, tc.wantLocation, resp.Header.Get(fiber.HeaderLocation))
				assert.Contains(t, resp.Header.Get(fiber.HeaderSetCookie), AccessTokenCookie+"=token-123")
			}
			if tc.wantBody != "" {
				assert.Contains(t, readBody(t, resp), tc.wantBody)
			}
		})
	}
}

func Test_AccountLogout_ClearsCookie(t *testing.T) {
	app := newTestApp()
	h := NewAccountHandler(&fakeAuth{}, &config.Config{})
	app.Post("/Account/Logout", h.Logout)

	resp, err := app.Test(postForm("/Account/Logout", url.Values{}))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderSetCookie), AccessTokenCookie+"=;")
}

// -------------------------
// Health
// -------------------------

func Test_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", (&HealthHandler{check: func() error { return nil }}).HealthCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `"database":"healthy"`)
	})

	t.Run("database down", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", (&HealthHandler{check: func() error { return errors.New("refused") }}).HealthCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `"database":"unhealthy"`)
	})
}
