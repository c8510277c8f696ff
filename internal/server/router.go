package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/mehmetcc/boom-backend/internal/authentication"
	"github.com/mehmetcc/boom-backend/internal/middleware"
	"github.com/mehmetcc/boom-backend/internal/user"
	"github.com/mehmetcc/boom-backend/internal/utils"
)

const APIPrefix = "/api"

type Dependencies struct {
	Config *utils.Config
	Logger *zap.Logger
	Users  user.UserService
	Auth   authentication.AuthenticationService
	Issuer authentication.TokenIssuer
}

// NewRouter mounts every route under APIPrefix.
func NewRouter(d Dependencies) (*gin.Engine, error) {
	if err := user.RegisterValidations(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(d.Logger),
		middleware.RequestLogger(d.Logger.Named("http")),
		middleware.CORS(d.Config.Server.AllowedOrigins),
	)

	api := router.Group(APIPrefix, middleware.RequestTimeout(d.Config.Server.RequestTimeout))

	api.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello API"})
	})
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	//
	// SWAGGER (protected by Basic Auth, not JWT)
	//
	if d.Config.Admin.Enabled() {
		docs := api.Group("/docs", gin.BasicAuth(gin.Accounts{
			d.Config.Admin.Username: d.Config.Admin.Password,
		}))
		docs.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAccess := authentication.AuthMiddleware(d.Issuer, d.Logger)

	authGroup := api.Group("", middleware.RateLimit(d.Config.Security.AuthRateLimit, d.Logger))
	authentication.NewAuthHandler(authGroup, d.Auth, requireAccess, d.Logger)

	usersGroup := api.Group("", requireAccess)
	user.NewUserHandler(usersGroup, d.Users, d.Logger)

	return router, nil
}
