package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/jobtracknow/jobtrack-api/docs" // Import generated docs
	"github.com/jobtracknow/jobtrack-api/internal/auth"
	"github.com/jobtracknow/jobtrack-api/internal/config"
	"github.com/jobtracknow/jobtrack-api/internal/controllers"
	"github.com/jobtracknow/jobtrack-api/internal/database"
	"github.com/jobtracknow/jobtrack-api/internal/middleware"
	"github.com/jobtracknow/jobtrack-api/internal/models"
	"github.com/jobtracknow/jobtrack-api/internal/services"
)

// @title Job Track Now API
// @version 1.0
// @description OAuth2 identity boundary and user management for the Job Track Now backend
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	loadDotenvFile()
	setUpLogger()

	configuration, err := config.LoadConfig()
	checkPanicErr(err)

	db := setupDatabase(configuration)

	userService := services.NewUserService(db)
	codeStore := setupCodeStore(configuration, db)
	tokenService := auth.NewTokenService([]byte(configuration.JWTSecret))
	oauthService := auth.NewOAuthService(codeStore, tokenService, userService)
	userController := controllers.NewUserController(userService)

	router := setupRouter(tokenService, userService, oauthService, userController)

	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// setupDatabase opens the configured database and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
	checkPanicErr(err)

	checkPanicErr(db.AutoMigrate(&models.User{}, &models.AuthorizationCode{}))
	return db
}

// setupCodeStore selects the authorization code store backend. The database
// store is the default: codes survive restarts and are visible to every
// instance. Redis suits scaled deployments that want code exchange off the
// relational database; memory is for single-instance and development use.
func setupCodeStore(conf *config.Config, db *gorm.DB) auth.CodeStore {
	switch conf.CodeStore {
	case "memory":
		log.Warn("Using in-memory authorization code store; codes will not survive a restart")
		return auth.NewMemoryCodeStore()
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
		})
		log.WithField("redis_addr", conf.RedisAddr).Info("Using Redis authorization code store")
		return auth.NewRedisCodeStore(client)
	default:
		return auth.NewGormCodeStore(db)
	}
}

// setupRouter initializes the Gin router and sets up the routes
func setupRouter(tokens *auth.TokenService, users services.UserService,
	oauthService *auth.OAuthService, userController controllers.UserController) *gin.Engine {

	router := gin.Default()

	// Every route passes through the authentication middleware; the
	// allow-list inside it keeps the OAuth endpoints themselves reachable.
	router.Use(middleware.JWTAuth(tokens, users))

	router.GET("/health", healthCheckHandler)
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/v1")
	{
		v1.GET("/authorize", oauthService.HandleAuthorize)
		v1.POST("/login", oauthService.HandleLogin)
		v1.POST("/token", oauthService.HandleToken)

		v1.GET("/user/empty", userController.CheckEmpty)
		v1.GET("/user/lookup", userController.LookupUser)
		v1.POST("/user", userController.CreateUser)
		v1.GET("/user", userController.GetCurrentUser)
		v1.DELETE("/user/:id", middleware.RequireAdmin(), userController.DeleteUser)
	}

	return router
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "jobtrack-api",
	})
}
