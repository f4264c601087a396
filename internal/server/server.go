package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/teamhub/internal/config"
	invitedomain "github.com/smallbiznis/teamhub/internal/invite/domain"
	obsmiddleware "github.com/smallbiznis/teamhub/internal/observability/logger"
	organizationdomain "github.com/smallbiznis/teamhub/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	organizationSvc organizationdomain.Service
	inviteSvc       invitedomain.Service
}

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           !cfg.IsProduction(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func NewServer(
	engine *gin.Engine,
	cfg config.Config,
	conn *gorm.DB,
	organizationSvc organizationdomain.Service,
	inviteSvc invitedomain.Service,
) *Server {
	return &Server{
		engine:          engine,
		cfg:             cfg,
		db:              conn,
		organizationSvc: organizationSvc,
		inviteSvc:       inviteSvc,
	}
}

// RegisterRoutes installs the API surface.
func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")
	api.Use(RequireUser())

	api.POST("/orgs", s.CreateOrganization)
	api.GET("/orgs", s.ListOrganizations)
	api.GET("/orgs/:id", s.GetOrganization)
	api.DELETE("/orgs/:id/members/:userId", s.RemoveOrganizationMember)

	api.POST("/orgs/:id/invite-token", s.GenerateInviteToken)
	api.POST("/orgs/:id/invites", s.SendInvites)
	api.POST("/invites/redeem", s.RedeemInvite)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// Module wires the HTTP server.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)
