// Package server assembles the HTTP stack: services, handlers and routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"finly/internal/events"
	"finly/internal/handlers"
	"finly/internal/middleware"
	"finly/internal/services"
)

// Options configures NewRouter.
type Options struct {
	DB          *gorm.DB
	Publisher   events.Publisher
	FrontendURL string

	// RequestLogging toggles the per-request access log.
	RequestLogging bool
}

// NewRouter wires services and handlers over opts.DB and registers every route.
func NewRouter(opts Options) *gin.Engine {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	db := opts.DB

	// Services
	ledger := services.NewBudgetLedger()
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	budgetService := services.NewBudgetService(db, ledger, publisher)
	transactionService := services.NewTransactionService(db, ledger, publisher)
	reportService := services.NewReportService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.CORS(opts.FrontendURL))
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NotFound)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/profile", authHandler.GetProfile)

	self := middleware.RequireSelf("userId")

	categories := protected.Group("/categories")
	categories.POST("/createCategory", categoryHandler.CreateCategory)
	categories.GET("/getCategories", categoryHandler.GetCategories)
	categories.GET("/getCategory/:id", categoryHandler.GetCategory)
	categories.PUT("/editCategory/:id", categoryHandler.EditCategory)
	categories.DELETE("/deleteCategory/:id", categoryHandler.DeleteCategory)

	budgets := protected.Group("/budgets")
	budgets.POST("/createBudget/:userId", self, budgetHandler.CreateBudget)
	budgets.GET("/getBudgetsForUser/:userId", self, budgetHandler.GetBudgetsForUser)
	budgets.GET("/trackBudget", middleware.RequireSelfQuery("userId"), budgetHandler.TrackBudget)
	budgets.GET("/getBudgetsForCategory/:categoryId", budgetHandler.GetBudgetsForCategory)
	budgets.GET("/getBudget/:id", budgetHandler.GetBudget)
	budgets.PUT("/editBudget/:id/:userId", self, budgetHandler.EditBudget)
	budgets.DELETE("/deleteBudget/:id/:userId", self, budgetHandler.DeleteBudget)
	budgets.POST("/resetBudgetSpending/:userId", self, budgetHandler.ResetBudgetSpending)

	transactions := protected.Group("/transactions")
	transactions.POST("/createTransaction", transactionHandler.CreateTransaction)
	transactions.GET("/getTransactionsForUser/:userId", self, transactionHandler.GetTransactionsForUser)
	transactions.GET("/getExpenses", transactionHandler.GetExpenses)
	transactions.GET("/getExpenseTransactionsForUser/:userId", self, transactionHandler.GetExpenses)
	transactions.GET("/getIncome", transactionHandler.GetIncome)
	transactions.GET("/getIncomeTransactionsForUser/:userId", self, transactionHandler.GetIncome)
	transactions.GET("/getExpensesForCategory/:categoryName/:userId", self, transactionHandler.GetExpensesForCategory)
	transactions.GET("/getTransaction/:id", transactionHandler.GetTransaction)
	transactions.PUT("/editTransaction/:id", transactionHandler.EditTransaction)
	transactions.DELETE("/deleteTransaction/:id", transactionHandler.DeleteTransaction)
	transactions.DELETE("/resetTransactions/:userId", self, transactionHandler.ResetTransactions)

	reports := protected.Group("/financialReports")
	reports.GET("/getReportForAMonth/:month/:userId", self, reportHandler.GetReportForAMonth)

	return router
}
