package api

import (
	"net/http" // HTTP methods
	"time"     // Token lifetime

	"artisanhub/internal/metrics"    // Prometheus handler
	"artisanhub/internal/middleware" // Custom middleware
	"artisanhub/internal/notify"     // Event dispatcher
	"artisanhub/internal/storage"    // Image storage
	"artisanhub/internal/translate"  // Translation service

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Publisher emits domain events; delivery failures never reach handlers
type Publisher interface {
	Publish(eventType string, data any)
}

// Deps are the collaborators the routes are built from
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client // nil disables response caching
	Store      storage.ImageStore
	Enhancer   ImageEnhancer // nil stores images as uploaded
	Translator *translate.Service
	Events     Publisher // nil drops events

	JWTSecret      string
	JWTTTL         time.Duration
	UploadDir      string   // Served under /uploads when set
	CORSOrigins    []string // Empty allows any origin
	TrustedProxies []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.ExposeHeaders = []string{"X-Cache"}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// SetupRouter builds the gin engine with every route and middleware
func SetupRouter(d Deps) (*gin.Engine, error) {
	if d.Events == nil {
		d.Events = (*notify.Dispatcher)(nil) // Disabled dispatcher drops events
	}

	r := gin.New() // Gin router instance
	r.MaxMultipartMemory = 32 << 20
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), cors.New(corsConfig(d.CORSOrigins)))

	auth := middleware.JWTAuthMiddleware(d.JWTSecret)
	sellerOnly := middleware.SellerOnlyMiddleware(d.DB)

	// Operational routes
	r.GET("/health", HealthHandler(d.DB, d.Redis))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir) // Locally stored product images
	}

	apiGroup := r.Group("/api")

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", RegisterHandler(d.DB, d.Events, d.JWTSecret, d.JWTTTL)) // Registration endpoint
	authGroup.POST("/login", LoginHandler(d.DB, d.JWTSecret, d.JWTTTL))                 // Login endpoint
	authGroup.GET("/me", auth, MeHandler(d.DB))                                         // Current user endpoint

	// Product routes, writes are restricted to sellers
	productGroup := apiGroup.Group("/products")
	productGroup.GET("/products", ListProductsHandler(d.DB, d.Redis))   // Listing endpoint
	productGroup.GET("/products/:id", GetProductHandler(d.DB, d.Redis)) // Detail endpoint
	productGroup.POST("/upload", auth, UploadImageHandler(d.Store))     // Single image upload
	productGroup.POST("/uploadprod", auth, sellerOnly, CreateProductHandler(d.DB, d.Redis, d.Store, d.Enhancer, d.Events))
	productGroup.PUT("/products/:id", auth, sellerOnly, UpdateProductHandler(d.DB, d.Redis, d.Events))
	productGroup.DELETE("/products/:id", auth, sellerOnly, DeleteProductHandler(d.DB, d.Redis, d.Store, d.Events))

	// Translation routes
	apiGroup.GET("/languages", LanguagesHandler())
	apiGroup.POST("/translate", TranslateHandler(d.Translator))
	apiGroup.POST("/translations/:lang", TranslateHandler(d.Translator))
	apiGroup.DELETE("/cache", ClearTranslationCacheHandler(d.Translator))

	return r, nil
}
