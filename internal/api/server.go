package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tiketku/tiketku-api/docs"
	v1 "github.com/tiketku/tiketku-api/internal/api/handler/v1"
	"github.com/tiketku/tiketku-api/internal/api/middleware"
	"github.com/tiketku/tiketku-api/internal/config"
	"github.com/tiketku/tiketku-api/internal/repository"
	"github.com/tiketku/tiketku-api/internal/repository/dao"
	"github.com/tiketku/tiketku-api/internal/service"
	"github.com/tiketku/tiketku-api/internal/storage"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	transactionSvc *service.TransactionService
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	couponRepo := repository.NewCouponRepository(dao.NewCouponDAO(db))
	pointsRepo := repository.NewPointsRepository(dao.NewPointsDAO(db))
	reviewRepo := repository.NewReviewRepository(dao.NewReviewDAO(db))
	transactionRepo := repository.NewTransactionRepository(dao.NewTransactionDAO(db))

	proofStore, err := storage.NewLocalProofStore(conf.Storage.ProofDir)
	if err != nil {
		zap.L().Fatal("failed to initialize proof storage", zap.Error(err))
	}

	authSvc := service.NewAuthService(userRepo, pointsRepo, couponRepo)
	userSvc := service.NewUserService(userRepo)
	pointsSvc := service.NewPointsService(pointsRepo)
	couponSvc := service.NewCouponService(couponRepo)
	eventSvc := service.NewEventService(eventRepo, reviewRepo, transactionRepo)
	s.transactionSvc = service.NewTransactionService(
		transactionRepo,
		eventRepo,
		pointsRepo,
		couponSvc,
		proofStore,
		service.NewLogNotifier(),
		conf.Checkout.PaymentWindow,
	)

	authHandler := v1.NewAuthHandler(conf.API, authSvc)
	userHandler := v1.NewUserHandler(userSvc, pointsSvc)
	eventHandler := v1.NewEventHandler(eventSvc, couponSvc)
	transactionHandler := v1.NewTransactionHandler(s.transactionSvc)
	s.MountHandlers(authHandler, userHandler, eventHandler, transactionHandler)

	return s
}

// TransactionService exposes the checkout service so the expiry sweeper
// can share it with the HTTP layer.
func (s *Server) TransactionService() *service.TransactionService {
	return s.transactionSvc
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	eventHandler *v1.EventHandler,
	transactionHandler *v1.TransactionHandler,
) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	public := s.Router.Group(basePath)
	{
		public.GET("/events", eventHandler.HandleListEvents)
		public.GET("/events/:eventID", eventHandler.HandleGetEvent)
		public.GET("/events/:eventID/reviews", eventHandler.HandleGetEventReviews)
	}

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authed.GET("/users/:userID", userHandler.HandleGetUser)
		authed.GET("/users/:userID/points", userHandler.HandleGetUserPoints)

		authed.POST("/events", eventHandler.HandleCreateEvent)
		authed.POST("/events/:eventID/coupons", eventHandler.HandleCreateCoupon)
		authed.POST("/events/:eventID/reviews", eventHandler.HandleCreateReview)

		authed.POST("/transactions", transactionHandler.HandleCreateTransaction)
		authed.GET("/transactions", transactionHandler.HandleGetUserTransactions)
		authed.GET("/transactions/:transactionID", transactionHandler.HandleGetTransaction)
		authed.POST("/transactions/:transactionID/proof", transactionHandler.HandleUploadProof)
		authed.PATCH("/transactions/:transactionID", transactionHandler.HandleUpdateTransaction)
		authed.POST("/transactions/:transactionID/cancel", transactionHandler.HandleCancelTransaction)

		authed.GET("/tickets", transactionHandler.HandleGetUserTickets)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Tiketku API"
	docs.SwaggerInfo.Description = "Event ticketing marketplace with checkout, vouchers, points and payment verification."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
