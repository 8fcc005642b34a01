// Package httpapi exposes the storefront over HTTP with gin: authentication,
// the product catalog, health probes and metrics.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// AuthAPI is the slice of services.AuthService the handlers use.
type AuthAPI interface {
	SignupAdmin(ctx context.Context, in services.SignupInput) (*models.Principal, error)
	SignupUser(ctx context.Context, in services.SignupInput) (*models.Principal, error)
	SigninAdmin(ctx context.Context, email, password string) (*services.SigninResult, error)
	SigninUser(ctx context.Context, username, password string) (*services.SigninResult, error)
	Resolve(ctx context.Context, accessToken string) (*auth.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

// CatalogAPI is the slice of services.ProductService the handlers use.
type CatalogAPI interface {
	Create(ctx context.Context, subject string, in services.CreateProductInput) (*models.Product, error)
	List(ctx context.Context, subject string) ([]*models.Product, error)
	ListAdmin(ctx context.Context, subject string) ([]*models.Product, error)
	Get(ctx context.Context, subject, id string) (*models.Product, error)
	GetAdmin(ctx context.Context, subject, id string) (*models.Product, error)
	Update(ctx context.Context, subject, id string, in services.UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, subject, id string) error
}

// Pinger reports database readiness. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures NewRouter. Zero rate limit disables limiting; a nil
// Metrics gets a fresh registry. With no TrustedProxies forwarding headers
// are ignored and the client IP is the TCP peer.
type Options struct {
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxUploadBytes     int64
	TrustedProxies     []string
	Metrics            *Metrics
}

// Server holds handler dependencies.
type Server struct {
	auth    AuthAPI
	catalog CatalogAPI
	db      Pinger
	log     logging.Logger
}

// NewRouter wires every route onto a new gin engine.
func NewRouter(authAPI AuthAPI, catalog CatalogAPI, db Pinger, log logging.Logger, opts Options) *gin.Engine {
	s := &Server{auth: authAPI, catalog: catalog, db: db, log: log}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", requestIDHeader)
	corsCfg.ExposeHeaders = []string{requestIDHeader}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.Warn(context.Background(), "invalid trusted proxies, trusting none", "error", err.Error())
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(log),
		metrics.Instrument(),
		cors.New(corsCfg),
	)

	r.GET("/", s.root)
	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authn := s.authenticate()
	upload := maxBody(opts.MaxUploadBytes)

	a := r.Group("/auth", RateLimit(opts.RateLimitPerSecond, opts.RateLimitBurst))
	{
		a.POST("/admin/signup", upload, s.signupAdmin)
		a.POST("/admin/signin", s.signinAdmin)
		a.GET("/admin/me", authn, s.me)

		a.POST("/signup", upload, s.signupUser)
		a.POST("/signin", s.signinUser)
		a.GET("/me", authn, s.me)

		a.POST("/refresh", s.refresh)
	}

	p := r.Group("/products", authn)
	{
		p.GET("/", s.listProducts)
		p.GET("/:id", s.getProduct)

		p.POST("/admin/new", upload, s.createProduct)
		p.GET("/admin/products", s.listProductsAdmin)
		p.GET("/admin/:id", s.getProductAdmin)
		p.PUT("/admin/edit/:id", upload, s.updateProduct)
		p.DELETE("/admin/delete/:id", s.deleteProduct)
	}

	return r
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "storefront api"})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Warn(c.Request.Context(), "readiness check failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
