package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleberrangel/clickup-timeline-api/internal/client"
	"github.com/cleberrangel/clickup-timeline-api/internal/config"
	"github.com/cleberrangel/clickup-timeline-api/internal/handler"
	"github.com/cleberrangel/clickup-timeline-api/internal/ics"
	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/metrics"
	"github.com/cleberrangel/clickup-timeline-api/internal/middleware"
	"github.com/cleberrangel/clickup-timeline-api/internal/service"
	"github.com/cleberrangel/clickup-timeline-api/internal/viewport"
	"github.com/cleberrangel/clickup-timeline-api/internal/websocket"
)

const Version = "2.0.0"

func main() {
	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializa logger estruturado
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	logger.InitAudit()
	metrics.Init()
	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Location.String()).
		Int("clickup_lists", len(cfg.ListIDs)).
		Int("ics_feeds", len(cfg.ICSURLs)).
		Float64("initial_scale", cfg.Timeline.Scale.Initial).
		Msg("ClickUp Timeline API iniciando")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inicializa dependências
	var tasks service.TaskSource
	if len(cfg.ListIDs) > 0 {
		tasks = client.NewClient(cfg.TokenClickUp)
	}
	days := service.NewDayService(service.DayServiceConfig{
		Tasks:    tasks,
		Feeds:    ics.NewFetcher(),
		ListIDs:  cfg.ListIDs,
		ICSURLs:  cfg.ICSURLs,
		Location: cfg.Location,
		CacheTTL: cfg.Timeline.CacheTTL,
	})
	defer days.Stop()

	hub := websocket.NewHub(websocket.HubConfig{
		NewView:   newViewFactory(cfg, days),
		ParseDate: days.ParseDate,
	})
	go hub.Run(ctx)

	timelineHandler := handler.NewTimelineHandler(days, cfg.Timeline.Scale, service.NewExcelGenerator(days.Extractor()))
	healthHandler := handler.NewHealthHandler(days, hub, Version)
	wsHandler := handler.NewWebSocketHandler(hub, days)

	// Configura modo do Gin
	gin.SetMode(cfg.GinMode)

	// Inicializa router
	r := gin.New()
	r.Use(middleware.RequestID()) // Request ID + logging estruturado
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware())

	// Health check e métricas (públicos)
	r.GET("/health", healthHandler.DetailedHealthCheck)
	r.GET("/health/live", healthHandler.LivenessCheck)
	r.GET("/metrics", healthHandler.GetMetrics)
	r.GET("/metrics/summary", healthHandler.GetMetricsSummary)

	// Debug memory endpoint (público)
	r.GET("/debug/memory", func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(200, gin.H{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"heap_alloc_mb":  m.HeapAlloc / 1024 / 1024,
			"heap_inuse_mb":  m.HeapInuse / 1024 / 1024,
			"heap_objects":   m.HeapObjects,
			"goroutines":     runtime.NumGoroutine(),
			"gc_runs":        m.NumGC,
			"gc_pause_total": m.PauseTotalNs / 1000000, // ms
		})
	})

	// Force GC endpoint (público)
	r.POST("/debug/gc", func(c *gin.Context) {
		runtime.GC()
		debug.FreeOSMemory()
		c.JSON(200, gin.H{"status": "gc_completed"})
	})

	// Grupo de rotas protegidas
	api := r.Group("/api/v1")
	api.Use(middleware.BearerAuth(middleware.AuthConfig{
		TokenAPI: cfg.TokenAPI,
	}))
	{
		api.GET("/grid", timelineHandler.GetGrid)
		api.GET("/days/:date/layout", timelineHandler.GetDayLayout)
		api.GET("/days/:date/export", timelineHandler.ExportDay)
		api.POST("/refresh", wsHandler.RefreshDay)
		api.GET("/ws/stats", wsHandler.GetConnectionStats)
	}

	// Navegadores não enviam headers no upgrade; o token pode vir na query
	r.GET("/api/v1/ws", middleware.BearerAuth(middleware.AuthConfig{
		TokenAPI:        cfg.TokenAPI,
		AllowQueryToken: true,
	}), wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Servidor iniciando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Erro ao encerrar servidor")
	}
}

// newViewFactory monta as sessões de visualização com a configuração da
// linha do tempo. Cada sessão começa no dia atual.
func newViewFactory(cfg *config.Config, days *service.DayService) websocket.ViewFactory {
	return func(ctx context.Context, out viewport.Output, sessionID string) (*viewport.View, error) {
		view, err := viewport.Start(ctx, viewport.Config{
			Options:        cfg.Timeline.Options(),
			SettleDuration: cfg.Timeline.SettleDuration,
			Location:       cfg.Location,
			Loader:         days,
			Output:         out,
			ClockSpec:      viewport.DefaultClockSpec,
			SessionID:      sessionID,
		})
		if err != nil {
			return nil, err
		}
		view.SetDay(days.Today(time.Now()))
		return view, nil
	}
}
