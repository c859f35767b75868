package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/app"
	iauth "github.com/estatedesk/estatedesk/internal/auth"
	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/handlers"
	"github.com/estatedesk/estatedesk/internal/middleware"
	"github.com/estatedesk/estatedesk/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if cfg.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(cfg.Server.RateLimit, time.Minute))
	}

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(db, jwt)

	// Public auth routes
	r.POST("/api/auth/login", authHandler.Login)

	// Protected routes
	gate, err := authz.NewGate(db)
	if err != nil {
		return nil, err
	}
	requireAuth := middleware.Auth(jwt, db)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	// Page catalog
	pageHandler, err := handlers.NewPageHandler(db, audit)
	if err != nil {
		return nil, err
	}
	pages := api.Group("/pages")
	{
		pages.GET("/visible", pageHandler.Visible)
		pages.GET("", middleware.RequirePermission(gate, "/permissions", authz.PermView, authz.ResourceNone), pageHandler.List)
		pages.GET("/catalog", middleware.RequirePermission(gate, "/permissions", authz.PermView, authz.ResourceNone), pageHandler.Catalog)
		pages.POST("", middleware.RequirePermission(gate, "/permissions", authz.PermCreate, authz.ResourceNone), pageHandler.Create)
		pages.PUT("/:id", middleware.RequirePermission(gate, "/permissions", authz.PermUpdate, authz.ResourceNone), pageHandler.Update)
		pages.DELETE("/:id", middleware.RequirePermission(gate, "/permissions", authz.PermDelete, authz.ResourceNone), pageHandler.Deactivate)
	}

	// Roles and grants
	grantHandler, err := handlers.NewGrantHandler(db, audit)
	if err != nil {
		return nil, err
	}
	roles := api.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission(gate, "/permissions", authz.PermView, authz.ResourceNone), grantHandler.ListRoles)
		roles.GET("/:id/grants", middleware.RequirePermission(gate, "/permissions", authz.PermView, authz.ResourceNone), grantHandler.GetRoleGrants)
		roles.GET("/:id/grants/matrix", middleware.RequirePermission(gate, "/permissions", authz.PermView, authz.ResourceNone), grantHandler.GetRoleMatrix)
		roles.PUT("/:id/grants", middleware.RequirePermission(gate, "/permissions", authz.PermAssign, authz.ResourceNone), grantHandler.ReplaceRoleGrants)
		roles.PUT("/:id/grants/page", middleware.RequirePermission(gate, "/permissions", authz.PermAssign, authz.ResourceNone), grantHandler.ReplacePageGrants)
	}
	api.GET("/permissions/check", grantHandler.Check)

	// Audit trail
	auditHandler := handlers.NewAuditHandler(audit)
	api.GET("/audit", middleware.RequirePermission(gate, "/permissions", authz.PermView, authz.ResourceNone), auditHandler.List)

	// Property entities (ownership-scoped reads)
	buildingHandler, err := handlers.NewBuildingHandler(db)
	if err != nil {
		return nil, err
	}
	buildings := api.Group("/buildings")
	{
		buildings.GET("", middleware.RequirePermission(gate, "/buildings", authz.PermView, authz.ResourceBuildings), buildingHandler.List)
		buildings.GET("/:id", middleware.RequirePermission(gate, "/buildings", authz.PermView, authz.ResourceBuildings), buildingHandler.Get)
	}

	villaHandler, err := handlers.NewVillaHandler(db)
	if err != nil {
		return nil, err
	}
	villas := api.Group("/villas")
	{
		villas.GET("", middleware.RequirePermission(gate, "/villas", authz.PermView, authz.ResourceVillas), villaHandler.List)
		villas.GET("/:id", middleware.RequirePermission(gate, "/villas", authz.PermView, authz.ResourceVillas), villaHandler.Get)
	}

	tenantHandler, err := handlers.NewTenantHandler(db)
	if err != nil {
		return nil, err
	}
	tenants := api.Group("/tenants")
	{
		tenants.GET("", middleware.RequirePermission(gate, "/tenants", authz.PermView, authz.ResourceTenants), tenantHandler.List)
		tenants.GET("/:id", middleware.RequirePermission(gate, "/tenants", authz.PermView, authz.ResourceTenants), tenantHandler.Get)
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
