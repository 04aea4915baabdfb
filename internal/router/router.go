// internal/router/router.go
package router

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"vtt-go/internal/config"
	"vtt-go/internal/handlers"
	"vtt-go/internal/images"
	"vtt-go/internal/models"
	"vtt-go/internal/store"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

// Setup wires the middleware chain and every route.
func Setup(log *zap.Logger, s *store.Store, source *images.Source, study *models.Study) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	cookieStore := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // local single-device tool, not exposed
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("vttsession", cookieStore))

	router.Use(NonceMiddleware())
	router.Use(CSRFProtection())

	router.Use(func(c *gin.Context) {
		nonce, _ := c.Get(CspNonceContextKey)
		csp := fmt.Sprintf(
			"script-src 'self' https://cdn.jsdelivr.net 'nonce-%s'; style-src 'self' 'unsafe-inline'; img-src 'self' data:",
			nonce,
		)
		c.Header("Content-Security-Policy", csp)
		c.Next()
	})

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	router.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int { return a + b },
	})
	router.LoadHTMLGlob("web/templates/*.html")
	router.Static("/assets", "./web/assets")
	router.Static("/images", config.Conf.Storage.ImagesDir)
	router.StaticFile(images.FallbackPath, "./web/assets/fallback-image.jpg")

	// Handlers and routes
	profileHandler := handlers.NewProfileHandler(log, s, study)
	dashboardHandler := handlers.NewDashboardHandler(log, s, study)
	testHandler := handlers.NewTestHandler(log, s, source, study)
	collectionHandler := handlers.NewCollectionHandler(log, config.Conf.Storage.CollectionDir)
	exportHandler := handlers.NewExportHandler(log, s, study, config.Conf.Storage.CollectionDir)
	resultsHandler := handlers.NewResultsHandler(log, study, collectionHandler)

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: rateLimitErrorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/", profileHandler.Show)
	router.POST("/", profileHandler.Save)
	router.GET("/api/tester-results", collectionHandler.List)
	router.GET("/results", resultsHandler.Show)

	guarded := router.Group("/")
	guarded.Use(ProfileRequired(s))
	{
		guarded.GET("/dashboard", dashboardHandler.Show)

		testRoutes := guarded.Group("/test")
		{
			testRoutes.GET("/:category", testHandler.Show)
			testRoutes.POST("/:category/answer", testHandler.Answer)
			testRoutes.POST("/:category/comment", testHandler.Comment)
		}

		guarded.GET("/thankyou", exportHandler.Thankyou)
		guarded.POST("/export", limiter, exportHandler.Export)
		guarded.POST("/reset", limiter, profileHandler.Reset)
	}

	return router
}
