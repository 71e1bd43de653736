package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Traffic    TrafficConfig
	Geocoder   GeocoderConfig
	Weather    WeatherConfig
	Events     EventsConfig
	Engine     EngineConfig
	Redis      RedisConfig
	Resilience ResilienceConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	ReadTimeout    int
	RequestTimeout int
	CORSOrigins    string // Comma-separated list of allowed origins
}

// TrafficConfig holds the upstream foot-traffic aggregation API settings
type TrafficConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// GeocoderConfig holds the forward-geocoding provider settings
type GeocoderConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
	// BBox restricts all searches to the serviceable region,
	// formatted min_lng,min_lat,max_lng,max_lat.
	BBox string
}

// WeatherConfig holds the upstream weather forecast API settings
type WeatherConfig struct {
	BaseURL        string
	TimeoutSeconds int
	Timezone       string
}

// EventsConfig holds the upstream local-events search API settings.
// An empty APIKey switches the client to canned sample events.
type EventsConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
	DefaultQuery   string
	Location       string
}

// EngineConfig tunes the viewport/search synchronization engine
type EngineConfig struct {
	MinZoomForData    float64
	BoundsDebounce    time.Duration
	SuggestDebounce   time.Duration
	SuggestMinChars   int
	SuggestLimit      int
	QueryStaleTime    time.Duration
	FetchTimeout      time.Duration
	DefaultCenterLat  float64
	DefaultCenterLng  float64
}

// RedisConfig holds optional Redis cache configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// ResilienceConfig groups runtime resilience controls
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures default and per-service breaker tuning
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
	ServiceOverrides map[string]CircuitBreakerSettings
}

// CircuitBreakerSettings overrides defaults for a specific upstream service
type CircuitBreakerSettings struct {
	FailureThreshold int `json:"failure_threshold"`
	SuccessThreshold int `json:"success_threshold"`
	TimeoutSeconds   int `json:"timeout_seconds"`
	IntervalSeconds  int `json:"interval_seconds"`
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 30),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Traffic: TrafficConfig{
			BaseURL:        getEnv("TRAFFIC_API_BASE_URL", "http://localhost:8000"),
			TimeoutSeconds: getEnvAsInt("TRAFFIC_API_TIMEOUT", 15),
		},
		Geocoder: GeocoderConfig{
			BaseURL:        getEnv("GEOCODER_BASE_URL", "https://api.mapbox.com"),
			Token:          getEnv("GEOCODER_TOKEN", ""),
			TimeoutSeconds: getEnvAsInt("GEOCODER_TIMEOUT", 5),
			BBox:           getEnv("GEOCODER_BBOX", "-122.58,37.70,-122.35,37.84"),
		},
		Weather: WeatherConfig{
			BaseURL:        getEnv("WEATHER_API_BASE_URL", "https://api.open-meteo.com"),
			TimeoutSeconds: getEnvAsInt("WEATHER_API_TIMEOUT", 20),
			Timezone:       getEnv("WEATHER_TIMEZONE", "America/Los_Angeles"),
		},
		Events: EventsConfig{
			BaseURL:        getEnv("EVENTS_API_BASE_URL", "https://serpapi.com"),
			APIKey:         getEnv("EVENTS_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("EVENTS_API_TIMEOUT", 30),
			DefaultQuery:   getEnv("EVENTS_DEFAULT_QUERY", "San Francisco"),
			Location:       getEnv("EVENTS_LOCATION", "San Francisco, California"),
		},
		Engine: EngineConfig{
			MinZoomForData:   getEnvAsFloat("MIN_ZOOM_FOR_DATA", 12),
			BoundsDebounce:   getEnvAsMillis("BOUNDS_DEBOUNCE_MS", 500),
			SuggestDebounce:  getEnvAsMillis("SUGGEST_DEBOUNCE_MS", 400),
			SuggestMinChars:  getEnvAsInt("SUGGEST_MIN_CHARS", 3),
			SuggestLimit:     getEnvAsInt("SUGGEST_LIMIT", 5),
			QueryStaleTime:   getEnvAsMillis("QUERY_STALE_MS", 60000),
			FetchTimeout:     getEnvAsMillis("FETCH_TIMEOUT_MS", 20000),
			DefaultCenterLat: getEnvAsFloat("DEFAULT_CENTER_LAT", 37.7749),
			DefaultCenterLng: getEnvAsFloat("DEFAULT_CENTER_LNG", -122.44),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          getEnvAsBool("CB_ENABLED", false),
				FailureThreshold: getEnvAsInt("CB_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvAsInt("CB_SUCCESS_THRESHOLD", 1),
				TimeoutSeconds:   getEnvAsInt("CB_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("CB_INTERVAL_SECONDS", 60),
			},
		},
	}

	if breakerOverrides := getEnv("CB_SERVICE_OVERRIDES", ""); breakerOverrides != "" {
		var serviceConfig map[string]CircuitBreakerSettings
		if err := json.Unmarshal([]byte(breakerOverrides), &serviceConfig); err != nil {
			return nil, fmt.Errorf("invalid CB_SERVICE_OVERRIDES value: %w", err)
		}
		cfg.Resilience.CircuitBreaker.ServiceOverrides = serviceConfig
	}

	if err := cfg.Geocoder.validate(); err != nil {
		return nil, err
	}

	if cfg.Engine.SuggestLimit <= 0 {
		cfg.Engine.SuggestLimit = 5
	}
	if cfg.Engine.SuggestMinChars <= 0 {
		cfg.Engine.SuggestMinChars = 3
	}
	if cfg.Engine.QueryStaleTime <= 0 {
		cfg.Engine.QueryStaleTime = time.Minute
	}

	return cfg, nil
}

func (c *GeocoderConfig) validate() error {
	parts := strings.Split(c.BBox, ",")
	if len(parts) != 4 {
		return fmt.Errorf("invalid GEOCODER_BBOX value %q: want min_lng,min_lat,max_lng,max_lat", c.BBox)
	}
	for _, p := range parts {
		if _, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return fmt.Errorf("invalid GEOCODER_BBOX value %q: %w", c.BBox, err)
		}
	}
	return nil
}

// BBoxCorners parses the configured bounding box into its four corners.
func (c *GeocoderConfig) BBoxCorners() (minLng, minLat, maxLng, maxLat float64) {
	parts := strings.Split(c.BBox, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0
	}
	minLng, _ = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	minLat, _ = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	maxLng, _ = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	maxLat, _ = strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	return minLng, minLat, maxLng, maxLat
}

// SettingsFor returns effective breaker settings for a specific upstream service name
func (c CircuitBreakerConfig) SettingsFor(service string) CircuitBreakerSettings {
	settings := CircuitBreakerSettings{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		TimeoutSeconds:   c.TimeoutSeconds,
		IntervalSeconds:  c.IntervalSeconds,
	}

	if c.ServiceOverrides != nil {
		if override, ok := c.ServiceOverrides[service]; ok {
			if override.FailureThreshold > 0 {
				settings.FailureThreshold = override.FailureThreshold
			}
			if override.SuccessThreshold > 0 {
				settings.SuccessThreshold = override.SuccessThreshold
			}
			if override.TimeoutSeconds > 0 {
				settings.TimeoutSeconds = override.TimeoutSeconds
			}
			if override.IntervalSeconds > 0 {
				settings.IntervalSeconds = override.IntervalSeconds
			}
		}
	}

	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 1
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.TimeoutSeconds <= 0 {
		settings.TimeoutSeconds = 30
	}
	if settings.IntervalSeconds <= 0 {
		settings.IntervalSeconds = 60
	}

	return settings
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
