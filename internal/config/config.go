package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string
	DBDSN        string
	LogFile      string
	TemplatesDir string

	// Storefront -> API submission client
	APIBaseURL string
	APITimeout time.Duration

	CORSOrigins string
	// Requests per minute per client IP; zero or less turns the limiter off.
	RateLimit int
	// Signed-in sessions idle longer than this are signed out; zero never expires.
	SessionIdle time.Duration
	// Carts and checkouts untouched this long leave memory; saved carts reload
	// on the next visit.
	ResidentIdle time.Duration

	// Cart persistence: sqlite | redis | memory
	CartStore     string
	CartTTL       time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Checkout pricing
	TaxRate               float64
	DeliveryFee           float64
	FreeDeliveryThreshold float64
}

func Load() Config {
	v := viper.New()
	v.SetDefault("PORT", "5000")
	v.SetDefault("DB_DSN", "kiwa.db") // sqlite file in project root
	v.SetDefault("LOG_FILE", "./kiwa.log")
	v.SetDefault("TEMPLATES_DIR", "./web/templates")
	v.SetDefault("API_BASE_URL", "")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT", 120)
	v.SetDefault("SESSION_IDLE", "12h")
	v.SetDefault("RESIDENT_IDLE", "30m")
	v.SetDefault("CART_STORE", "sqlite")
	v.SetDefault("CART_TTL", "720h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TAX_RATE", 0.08)
	v.SetDefault("DELIVERY_FEE", 3.99)
	v.SetDefault("FREE_DELIVERY_THRESHOLD", 30.0)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[warn] could not read config file %s: %v", file, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		Port:                  v.GetString("PORT"),
		DBDSN:                 v.GetString("DB_DSN"),
		LogFile:               v.GetString("LOG_FILE"),
		TemplatesDir:          v.GetString("TEMPLATES_DIR"),
		APIBaseURL:            strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		APITimeout:            v.GetDuration("API_TIMEOUT"),
		CORSOrigins:           v.GetString("CORS_ORIGINS"),
		RateLimit:             v.GetInt("RATE_LIMIT"),
		SessionIdle:           v.GetDuration("SESSION_IDLE"),
		ResidentIdle:          v.GetDuration("RESIDENT_IDLE"),
		CartStore:             strings.ToLower(strings.TrimSpace(v.GetString("CART_STORE"))),
		CartTTL:               v.GetDuration("CART_TTL"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		TaxRate:               v.GetFloat64("TAX_RATE"),
		DeliveryFee:           v.GetFloat64("DELIVERY_FEE"),
		FreeDeliveryThreshold: v.GetFloat64("FREE_DELIVERY_THRESHOLD"),
	}
	if cfg.APIBaseURL == "" {
		// storefront talks to this same process by default
		cfg.APIBaseURL = "http://127.0.0.1:" + cfg.Port + "/api"
	}
	if cfg.ResidentIdle <= 0 {
		cfg.ResidentIdle = 30 * time.Minute
	}
	if cfg.APITimeout <= 0 {
		cfg.APITimeout = 10 * time.Second
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s API_BASE_URL=%s CART_STORE=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.APIBaseURL, cfg.CartStore)
	return cfg
}
