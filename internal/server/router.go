package server

import (
	"net/http"

	"sales-ims/internal/accounts"
	"sales-ims/internal/auth"
	"sales-ims/internal/config"
	"sales-ims/internal/handlers"
	"sales-ims/internal/logger"
	"sales-ims/internal/middleware"
	"sales-ims/internal/sales"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Accounts *accounts.Service
	Sales    *sales.Service
	Tokens   *auth.TokenIssuer
	Log      *zap.Logger
}

func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	handlers.UseJSONFieldNames()

	r := gin.New()
	r.Use(logger.GinMiddleware(log))
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSAllowOrigins)))

	if cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
	}

	// HEALTHCHECK
	r.GET("/health", handlers.Health(cfg.AppName))

	// AUTH
	authH := handlers.NewAuthHandler(deps.Accounts, deps.Tokens)
	authGroup := r.Group("/auth")
	authGroup.POST("/register", authH.Register)
	authGroup.POST("/login", authH.Login)

	// SALES
	salesH := handlers.NewSalesHandler(deps.Sales)
	salesGroup := r.Group("/sales")
	salesGroup.Use(middleware.RequireAuth(deps.Tokens, deps.Accounts, log))

	salesGroup.POST("/customers", salesH.CreateCustomer)
	salesGroup.GET("/customers", salesH.ListCustomers)

	salesGroup.POST("/products", salesH.CreateProduct)
	salesGroup.GET("/products", salesH.ListProducts)

	salesGroup.POST("/orders", salesH.CreateOrder)
	salesGroup.GET("/orders", salesH.ListOrders)
	salesGroup.GET("/orders/:id", salesH.GetOrder)
	salesGroup.PUT("/orders/:id", salesH.UpdateOrder)
	salesGroup.DELETE("/orders/:id", salesH.DeleteOrder)

	return r
}

// corsConfig allows credentials for the configured origins; "*" echoes back
// whatever origin the browser sent.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions, http.MethodHead,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
