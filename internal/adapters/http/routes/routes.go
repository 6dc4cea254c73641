package routes

import (
	"time"

	"sigebi-web/internal/adapters/http/handlers"
	"sigebi-web/internal/adapters/http/middleware"
	"sigebi-web/internal/adapters/persistence/repositories"
	"sigebi-web/internal/config"
	"sigebi-web/internal/core/services"
	"sigebi-web/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"gorm.io/gorm"
)

// Services groups the application services shared by routes and background jobs
type Services struct {
	Admin     services.AdminService
	Report    services.ReportService
	Loan      services.LoanService
	Dashboard *services.DashboardService
	Auth      *services.AuthService
}

// NewServices wires repositories into services
func NewServices(db *gorm.DB, cfg *config.Config) *Services {
	// Initialize repositories
	loanRepo := repositories.NewLoanRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	userRepo := repositories.NewUserRepository(db)
	penaltyRepo := repositories.NewPenaltyRepository(db)

	// Initialize services
	adminService := services.NewAdminService(loanRepo, bookRepo, userRepo, penaltyRepo)
	reportService := services.NewReportService(loanRepo, bookRepo)
	loanService := services.NewLoanService(loanRepo, bookRepo, userRepo, penaltyRepo, cfg.Library)

	return &Services{
		Admin:     adminService,
		Report:    reportService,
		Loan:      loanService,
		Dashboard: services.NewDashboardService(adminService, reportService, loanService),
		Auth:      services.NewAuthService(userRepo, cfg),
	}
}

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *Services, cfg *config.Config) {
	store := middleware.NewSessionStore(cfg)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	homeHandler := handlers.NewHomeHandler(svc.Dashboard)
	prestamoHandler := handlers.NewPrestamoHandler(svc.Loan, handlers.NewFlash(store), cfg.Library)
	accountHandler := handlers.NewAccountHandler(svc.Auth, cfg)

	// Operational & static routes
	app.Get("/health", healthHandler.HealthCheck)
	app.Use("/static", middleware.CacheControl(24*time.Hour), filesystem.New(filesystem.Config{
		Root: web.Static(),
	}))

	// Pages
	app.Use(middleware.OptionalAuth(cfg), middleware.CSRF(cfg))

	setupHomeRoutes(app, homeHandler)
	setupPrestamoRoutes(app.Group("/Prestamo", middleware.StaffOnly(), middleware.NoCacheHeaders()), prestamoHandler)
	setupAccountRoutes(app.Group("/Account", middleware.NoCacheHeaders()), accountHandler)
}

// setupHomeRoutes configures dashboard and static pages
func setupHomeRoutes(router fiber.Router, h *handlers.HomeHandler) {
	router.Get("/", h.Index)
	router.Get("/Home", h.Index)
	router.Get("/Home/Index", h.Index)
	router.Get("/Home/Privacy", h.Privacy)
	router.Get("/Home/Error", h.Error)
}

// setupPrestamoRoutes configures loan routes (staff only)
func setupPrestamoRoutes(router fiber.Router, h *handlers.PrestamoHandler) {
	router.Get("/", h.Index)
	router.Post("/", h.Search)
	router.Get("/Index", h.Index)
	router.Post("/Index", h.Search)
	router.Get("/Create", h.CreateForm)
	router.Post("/Create", h.Create)
	router.Post("/Devolver/:id", h.Return)
}

// setupAccountRoutes configures staff login routes
func setupAccountRoutes(router fiber.Router, h *handlers.AccountHandler) {
	router.Get("/Login", h.LoginForm)
	router.Post("/Login", middleware.AuthRateLimiter(), h.Login)
	router.Post("/Logout", h.Logout)
}
