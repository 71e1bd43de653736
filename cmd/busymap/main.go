package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/busymap/internal/events"
	"github.com/richxcame/busymap/internal/geocode"
	"github.com/richxcame/busymap/internal/prediction"
	"github.com/richxcame/busymap/internal/query"
	"github.com/richxcame/busymap/internal/session"
	"github.com/richxcame/busymap/internal/traffic"
	"github.com/richxcame/busymap/internal/weather"
	"github.com/richxcame/busymap/pkg/common"
	"github.com/richxcame/busymap/pkg/config"
	"github.com/richxcame/busymap/pkg/errors"
	"github.com/richxcame/busymap/pkg/logger"
	"github.com/richxcame/busymap/pkg/middleware"
	redisClient "github.com/richxcame/busymap/pkg/redis"
	"github.com/richxcame/busymap/pkg/resilience"
	"github.com/richxcame/busymap/pkg/tracing"
	ws "github.com/richxcame/busymap/pkg/websocket"
	"go.uber.org/zap"
)

const (
	serviceName = "busymap"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting busymap",
		zap.String("service", serviceName),
		zap.String("version", version),
	)

	// Sentry error tracking
	sentryConfig := errors.DefaultSentryConfig()
	sentryConfig.ServerName = serviceName
	sentryConfig.Release = version
	if err := errors.InitSentry(sentryConfig); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized")
	}

	// OpenTelemetry tracing
	tracerEnabled := os.Getenv("OTEL_ENABLED") == "true"
	if tracerEnabled {
		tracerCfg := tracing.Config{
			ServiceName:    serviceName,
			ServiceVersion: version,
			Environment:    cfg.Server.Environment,
			OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Enabled:        true,
		}

		tp, err := tracing.InitTracer(tracerCfg, logger.Get())
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
			tracerEnabled = false
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
		}
	}

	// Redis is an optional L2 for geocode lookups; the engine works
	// without it.
	var redis *redisClient.Client
	if cfg.Redis.Enabled {
		redis, err = redisClient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		logger.Info("Connected to Redis")
	}

	// Circuit breakers for the two rate-sensitive upstreams
	var trafficBreaker, geocodeBreaker *resilience.CircuitBreaker
	if cfg.Resilience.CircuitBreaker.Enabled {
		trafficCB := cfg.Resilience.CircuitBreaker.SettingsFor("foot-traffic-api")
		trafficBreaker = resilience.NewCircuitBreaker(
			resilience.BuildSettings(serviceName+"-traffic", trafficCB.IntervalSeconds, trafficCB.TimeoutSeconds, trafficCB.FailureThreshold, trafficCB.SuccessThreshold),
			resilience.GracefulDegradation("foot-traffic-api"),
		)

		geocodeCB := cfg.Resilience.CircuitBreaker.SettingsFor("geocoder")
		geocodeBreaker = resilience.NewCircuitBreaker(
			resilience.BuildSettings(serviceName+"-geocode", geocodeCB.IntervalSeconds, geocodeCB.TimeoutSeconds, geocodeCB.FailureThreshold, geocodeCB.SuccessThreshold),
			resilience.GracefulDegradation("geocoder"),
		)
		logger.Info("Circuit breakers enabled for upstream APIs")
	}

	// Traffic
	trafficClient := traffic.NewClient(&cfg.Traffic, trafficBreaker)
	trafficOrch := query.New[[]traffic.Point](cfg.Engine.QueryStaleTime, cfg.Engine.FetchTimeout)
	trafficService := traffic.NewService(trafficClient, trafficOrch)
	trafficHandler := traffic.NewHandler(trafficService)

	// Prediction
	predictionClient := prediction.NewClient(&cfg.Traffic)
	predictionOrch := query.New[*prediction.Prediction](cfg.Engine.QueryStaleTime, cfg.Engine.FetchTimeout)
	predictionService := prediction.NewService(predictionClient, predictionOrch)
	predictionHandler := prediction.NewHandler(predictionService)

	// Weather
	weatherClient := weather.NewClient(&cfg.Weather)
	weatherOrch := query.New[*weather.Forecast](cfg.Engine.QueryStaleTime, cfg.Engine.FetchTimeout)
	weatherService := weather.NewService(weatherClient, weatherOrch)
	weatherHandler := weather.NewHandler(weatherService)

	// Local events
	if cfg.Events.APIKey == "" {
		logger.Warn("EVENTS_API_KEY not set, serving sample events")
	}
	eventsClient := events.NewClient(&cfg.Events)
	eventsOrch := query.New[[]events.Event](cfg.Engine.QueryStaleTime, cfg.Engine.FetchTimeout)
	eventsService := events.NewService(eventsClient, eventsOrch, cfg.Events.DefaultQuery)
	eventsHandler := events.NewHandler(eventsService)

	// Geocoding
	if cfg.Geocoder.Token == "" {
		logger.Warn("GEOCODER_TOKEN not set, geocoding will not work")
	}
	var geocodeProvider geocode.Provider = geocode.NewClient(&cfg.Geocoder, geocodeBreaker)
	if redis != nil {
		geocodeProvider = geocode.NewCachedProvider(geocodeProvider, redis)
		logger.Info("Geocode Redis cache enabled")
	}
	geocodeService := geocode.NewService(geocodeProvider, cfg.Engine.SuggestMinChars, cfg.Engine.SuggestLimit)
	geocodeHandler := geocode.NewHandler(geocodeService)

	// WebSocket sessions
	registry := ws.NewRegistry()
	sessionHandler := session.NewHandler(&cfg.Engine, registry, trafficService, geocodeService, predictionService)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(common.NoRouteHandler())
	router.NoMethod(common.NoMethodHandler())
	router.Use(middleware.RecoveryWithSentry())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Metrics(serviceName))

	if tracerEnabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}

	router.Use(middleware.ErrorHandler())

	// Health and ops endpoints
	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))

	healthChecks := make(map[string]func() error)
	if redis != nil {
		healthChecks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redis.Client.Ping(ctx).Err()
		}
	}
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "version": version})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// REST surface
	api := router.Group("/api")
	api.GET("/traffic", trafficHandler.GetTraffic)
	api.GET("/predict", predictionHandler.GetPrediction)
	api.GET("/predict-llm", predictionHandler.GetPredictionWithSummary)
	api.GET("/weather", weatherHandler.GetWeather)
	api.GET("/events", eventsHandler.GetEvents)
	api.GET("/geocode/suggest", geocodeHandler.GetSuggestions)

	// WebSocket surface
	router.GET("/ws", sessionHandler.Connect)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		// WriteTimeout stays unset: WebSocket sessions hold their
		// connections open far longer than any REST response.
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
