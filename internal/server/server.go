package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/meridianhq/portal-backend/internal/account"
	"github.com/meridianhq/portal-backend/internal/clock"
	"github.com/meridianhq/portal-backend/internal/config"
	"github.com/meridianhq/portal-backend/internal/gateway"
	"github.com/meridianhq/portal-backend/internal/handler"
	"github.com/meridianhq/portal-backend/internal/mail"
	appmw "github.com/meridianhq/portal-backend/internal/middleware"
	"github.com/meridianhq/portal-backend/internal/pdf"
	"github.com/meridianhq/portal-backend/internal/pricing"
	"github.com/meridianhq/portal-backend/internal/repository"
	"github.com/meridianhq/portal-backend/internal/service"
	"gorm.io/gorm"
)

type Server struct {
	e            *echo.Echo
	purchaseRepo repository.PurchaseRepository
	sha          string
	build        string
}

func New(db *gorm.DB, cfg *config.Config, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			return false, nil
		},
	}))

	clk := clock.System()
	accounts := account.NewClient(cfg, clk)
	engine := pricing.NewEngine(accounts, clk)
	gw := gateway.NewClient(cfg)
	mailer := mail.NewSMTPMailer(cfg)
	receipts := pdf.NewReceiptRenderer()

	purchaseRepo := repository.NewPurchaseRepository(db)
	notify := service.NewNotifyService(mailer, receipts, cfg)
	checkoutSvc := service.NewCheckoutService(engine, purchaseRepo, gw, accounts)
	reconciler := service.NewReconcileService(purchaseRepo, accounts, notify, cfg.GatewayEventPrefix)

	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	orderHandler := handler.NewOrderHandler(purchaseRepo)
	accountHandler := handler.NewAccountHandler(accounts)
	webhookHandler := handler.NewWebhookHandler(cfg.WebhookSecret, reconciler)

	authMw, err := appmw.NewAuthMiddleware(context.Background())
	if err != nil {
		e.Logger.Fatalf("failed to init firebase auth: %v", err)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	// The gateway calls this unauthenticated; the HMAC header is its
	// credential.
	e.POST("/webhooks/payment", webhookHandler.Receive)

	api := e.Group("/api")
	api.POST("/checkout", checkoutHandler.Submit, authMw.RequireAuth)
	api.GET("/orders", orderHandler.ListMine, authMw.RequireAuth)
	api.GET("/orders/:poNumber", orderHandler.Get, authMw.RequireAuth)
	api.GET("/summary", accountHandler.Summary, authMw.RequireAuth)
	api.GET("/plans", accountHandler.Plans, authMw.RequireAuth)

	return &Server{e: e, purchaseRepo: purchaseRepo, sha: sha, build: buildTime}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) SetDB(db *gorm.DB) {
	if s.purchaseRepo != nil {
		s.purchaseRepo.SetDB(db)
	}
}
