package routes

import (
	"openshelf/internal/adapters/http/handlers"
	"openshelf/internal/adapters/http/middleware"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"
	"openshelf/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application.
// It returns the fine sweep scheduler so the caller can manage its lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.FineSweepScheduler {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	libraryRepo := repositories.NewLibraryRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	borrowRepo := repositories.NewBorrowRecordRepository(db)
	fineRepo := repositories.NewFineRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, fineRepo)
	libraryService := services.NewLibraryService(libraryRepo, bookRepo)
	bookService := services.NewBookService(bookRepo, libraryRepo)
	loanService := services.NewLoanService(bookRepo, userRepo, borrowRepo, fineRepo, cfg)
	fineService := services.NewFineService(fineRepo, borrowRepo, cfg)
	reviewService := services.NewReviewService(reviewRepo, bookRepo)
	scheduler := services.NewFineSweepScheduler(fineService, cfg)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	libraryHandler := handlers.NewLibraryHandler(libraryService)
	bookHandler := handlers.NewBookHandler(bookService, loanService)
	fineHandler := handlers.NewFineHandler(fineService, scheduler)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	// Health check routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	api.Get("/", healthHandler.APIInfo)

	// Auth routes (rate limited)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)
	auth.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Profile routes (self service)
	profile := api.Group("/profile", middleware.AuthMiddleware(cfg))
	profile.Get("/", userHandler.GetProfile)
	profile.Put("/", userHandler.UpdateProfile)
	profile.Put("/password", middleware.StrictRateLimiter(), userHandler.ChangePassword)

	// User routes (admin)
	users := api.Group("/users", middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	users.Get("/", userHandler.ListUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id/role", userHandler.SetUserRole)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)

	// Library routes (public reads, admin writes)
	libraries := api.Group("/libraries")
	libraries.Get("/", middleware.CatalogCache(), libraryHandler.ListLibraries)
	libraries.Get("/:id", middleware.CatalogCache(), libraryHandler.GetLibrary)
	libraries.Get("/:id/stats", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), libraryHandler.GetLibraryStats)
	libraries.Post("/", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), libraryHandler.CreateLibrary)
	libraries.Put("/:id", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), libraryHandler.UpdateLibrary)
	libraries.Delete("/:id", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), libraryHandler.DeleteLibrary)

	// Book routes (public reads, librarian/admin writes)
	books := api.Group("/books")
	books.Get("/", middleware.CatalogCache(), bookHandler.ListBooks)
	books.Get("/my-records", middleware.AuthMiddleware(cfg), bookHandler.MyBorrowRecords)
	books.Post("/search", bookHandler.SearchBooks)
	books.Post("/borrow", middleware.AuthMiddleware(cfg), bookHandler.BorrowBook)
	books.Get("/:id", middleware.CatalogCache(), bookHandler.GetBook)
	books.Get("/:id/reviews", middleware.CatalogCache(), reviewHandler.ListBookReviews)
	books.Put("/:id/return", middleware.AuthMiddleware(cfg), bookHandler.ReturnBook)
	books.Post("/", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), bookHandler.CreateBook)
	books.Put("/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), bookHandler.UpdateBook)
	books.Delete("/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), bookHandler.DeleteBook)

	// Borrow record routes (staff lookups)
	api.Get("/borrow-records/:id", middleware.AuthMiddleware(cfg), middleware.LibrarianOrAdmin(), bookHandler.GetBorrowRecord)

	// Fine routes
	fines := api.Group("/fines", middleware.AuthMiddleware(cfg))
	fines.Get("/my", fineHandler.MyFines)
	fines.Get("/settings", fineHandler.GetSettings)
	fines.Get("/", middleware.LibrarianOrAdmin(), fineHandler.ListFines)
	fines.Get("/statistics", middleware.LibrarianOrAdmin(), fineHandler.GetStatistics)
	fines.Get("/scheduler", middleware.AdminOnly(), fineHandler.SchedulerStatus)
	fines.Post("/calculate", middleware.LibrarianOrAdmin(), fineHandler.CalculateFines)
	fines.Get("/:id", middleware.LibrarianOrAdmin(), fineHandler.GetFine)
	fines.Post("/:id/pay", middleware.StrictRateLimiter(), fineHandler.PayFine)
	fines.Post("/:id/cancel", middleware.AdminOnly(), fineHandler.CancelFine)
	fines.Post("/:id/waive", middleware.AdminOnly(), fineHandler.WaiveFine)

	// Review routes (public reads, authenticated writes)
	reviews := api.Group("/reviews")
	reviews.Get("/top-rated", middleware.CatalogCache(), reviewHandler.TopRatedBooks)
	reviews.Get("/book/:id", middleware.CatalogCache(), reviewHandler.ListBookReviews)
	reviews.Get("/my", middleware.AuthMiddleware(cfg), reviewHandler.MyReviews)
	reviews.Post("/", middleware.AuthMiddleware(cfg), reviewHandler.CreateReview)
	reviews.Post("/:id/helpful", middleware.AuthMiddleware(cfg), reviewHandler.MarkHelpful)
	reviews.Put("/:id", middleware.AuthMiddleware(cfg), reviewHandler.UpdateReview)
	reviews.Delete("/:id", middleware.AuthMiddleware(cfg), reviewHandler.DeleteReview)

	return scheduler
}
