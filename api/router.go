// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"securedocs/docs-api/authz"
	"securedocs/docs-api/blobstore"
	"securedocs/docs-api/config"
	"securedocs/docs-api/db"
	"securedocs/docs-api/middleware"
	"securedocs/docs-api/security"
	"securedocs/docs-api/service"
	"securedocs/docs-api/store"
	"securedocs/docs-api/vault"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var cacheStore = persist.NewMemoryStore(time.Minute)

type API struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Argon    *security.ArgonHash
	Vault    *vault.Vault
	Blobs    blobstore.Store
	Authz    *authz.Authorizer
	Uploader *service.Uploader
	Docs     *store.Documents
	Ledger   *store.Verifications
	Audit    *store.Audit
	Sessions *store.Sessions
}

func NewRouter() (*API, error) {
	a := &API{}

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = database

	makeLogger()

	v, err := vault.New(config.VaultKey())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault, %w", err)
	}
	a.Vault = v

	blobs, err := blobstore.FromConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob storage, %w", err)
	}
	a.Blobs = blobs

	a.Argon = security.New()
	a.Authz = authz.New(database, v, blobs)
	a.Uploader = service.NewUploader(database, v, blobs)
	a.Docs = store.NewDocuments(database)
	a.Ledger = store.NewVerifications(database)
	a.Audit = store.NewAudit(database)
	a.Sessions = store.NewSessions(database)

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	a.Router.MaxMultipartMemory = 5 << 20

	a.registerRoutes()

	return a, nil
}

func (a *API) registerRoutes() {
	jwt := middleware.NewJWTMiddleware(a.DB)
	maxUploadSize := viper.GetInt64("upload.max_size")
	publicLimit := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             10,
	})

	main := a.Router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a JWT token
		main.HEAD("/validate", jwt, a.Validate)
	}

	users := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/users		-> Returns the profile and recent documents of a user
		users.GET("", jwt, cacheFor(30), a.UserFetch)

		// POST /api/users		-> Registers a new user
		users.POST("", a.UserRegister)

		// POST /api/users/login	-> Logs in a user and returns a JWT cookie
		users.POST("/login", a.UserLogin)
	}

	docs := main.Group("/documents")
	{
		// GET /api/documents/bulk	-> Returns a user's documents in bulk
		docs.GET("/bulk", jwt, a.DocumentFetchBulk)

		// GET /api/documents/:docID	-> Lets an owner download their own document
		docs.GET("/:docID", jwt, a.DocumentDownload)

		// POST /api/documents		-> Uploads, encrypts and stores a new document
		docs.POST("", jwt, middleware.BodySizeLimiter(maxUploadSize), a.DocumentUpload)
	}

	verifications := main.Group("/verifications")
	{
		// POST /api/verifications	-> Creates a verification request, returns token + QR link
		verifications.POST("", middleware.BodySizeLimiter(1<<20), a.VerificationCreate)
	}

	// The token in the path is the verifier's only credential
	verify := main.Group("/verify/:token", publicLimit)
	{
		// GET /api/verify/:token			-> Returns request info and share state
		verify.GET("", a.VerifyFetch)

		// POST /api/verify/:token/documents		-> Token-scoped upload (no account needed)
		verify.POST("/documents", middleware.BodySizeLimiter(maxUploadSize), a.VerifyUpload)

		// POST /api/verify/:token/share		-> Owner consents to disclose one document
		verify.POST("/share", jwt, middleware.BodySizeLimiter(1<<20), a.VerifyShare)

		// GET /api/verify/:token/download/:docID	-> Releases a shared document to the verifier
		verify.GET("/download/:docID", a.VerifyDownload)
	}

	sessions := main.Group("/sessions", publicLimit)
	{
		// POST /api/sessions				-> Creates a QR upload session
		sessions.POST("", middleware.BodySizeLimiter(1<<20), a.SessionCreate)

		// POST /api/sessions/:sessionID/documents	-> Anonymous mobile capture upload
		sessions.POST("/:sessionID/documents", middleware.BodySizeLimiter(maxUploadSize), a.SessionUpload)

		// GET /api/sessions/:sessionID/documents	-> Lists uploads in a session
		sessions.GET("/:sessionID/documents", a.SessionList)
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
}
