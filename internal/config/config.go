package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"flip_royale/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	DevMode bool

	// Record store, first configured wins
	OracleURL    string
	OracleSecret string
	DatabaseURL  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret         string
	SignMessagePrefix string
	SignMaxAge        time.Duration // 0 accepts messages without a timestamp

	StoreTimeout time.Duration
	LockTTL      time.Duration
	MaxPacks     int
	CatalogPath  string

	// Payments
	PaymentVerifierURL  string
	PaymentVerifierKey  string
	PaymentTokenAddress string
	TreasuryAddress     string
	PackPriceWei        *big.Int

	APIRateLimit  int
	APIRateWindow time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads the config from env (and .env when present)
func Load() *Config {
	_ = godotenv.Load()

	devMode := os.Getenv("DEV_MODE") == "true"

	oracleURL := os.Getenv("ORACLE_URL")
	oracleSecret := os.Getenv("ORACLE_SECRET")
	if oracleURL != "" && oracleSecret == "" {
		logger.Fatal("ORACLE_SECRET is not set")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if oracleURL == "" && dbURL == "" && !devMode {
		logger.Fatal("no record store configured: set ORACLE_URL or DATABASE_URL (or DEV_MODE=true)")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if !devMode {
			logger.Fatal("JWT_SECRET is not set")
		}
		jwtSecret = "dev-secret"
	}

	verifierURL := os.Getenv("PAYMENT_VERIFIER_URL")
	treasury := strings.ToLower(os.Getenv("TREASURY_ADDRESS"))
	if verifierURL == "" && !devMode {
		logger.Fatal("PAYMENT_VERIFIER_URL is not set")
	}
	if verifierURL != "" && treasury == "" {
		logger.Fatal("TREASURY_ADDRESS is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	prefix := os.Getenv("SIGN_MESSAGE_PREFIX")
	if prefix == "" {
		prefix = "Flip Royale:"
	}

	var price *big.Int
	if v := os.Getenv("PACK_PRICE_WEI"); v != "" {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok || n.Sign() <= 0 {
			logger.Fatal("PACK_PRICE_WEI must be a positive integer", "value", v)
		}
		price = n
	}

	storeTimeout := time.Duration(intEnv("STORE_TIMEOUT_MS", 5000)) * time.Millisecond
	lockTTL := time.Duration(intEnv("LOCK_TTL_MS", 15000)) * time.Millisecond
	if err := checkLockTTL(lockTTL, storeTimeout); err != nil {
		logger.Fatal("invalid lock configuration", "error", err)
	}

	return &Config{
		AppPort:             port,
		DevMode:             devMode,
		OracleURL:           oracleURL,
		OracleSecret:        oracleSecret,
		DatabaseURL:         dbURL,
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             intEnv("REDIS_DB", 0),
		JWTSecret:           jwtSecret,
		SignMessagePrefix:   prefix,
		SignMaxAge:          time.Duration(intEnv("SIGN_MAX_AGE_SECONDS", 300)) * time.Second,
		StoreTimeout:        storeTimeout,
		LockTTL:             lockTTL,
		MaxPacks:            intEnv("MAX_PACKS_PER_REQUEST", 10),
		CatalogPath:         os.Getenv("CATALOG_PATH"),
		PaymentVerifierURL:  verifierURL,
		PaymentVerifierKey:  os.Getenv("PAYMENT_VERIFIER_KEY"),
		PaymentTokenAddress: os.Getenv("PAYMENT_TOKEN_ADDRESS"),
		TreasuryAddress:     treasury,
		PackPriceWei:        price,
		APIRateLimit:        intEnv("API_RATE_LIMIT", 120),
		APIRateWindow:       time.Duration(intEnv("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		LogLevel:            strings.ToLower(os.Getenv("LOG_LEVEL")),
		LogJSON:             os.Getenv("LOG_JSON") == "true",
	}
}

// intEnv reads a positive int, falling back to def
func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		logger.Warn("ignoring invalid integer env", "key", key, "value", v)
	}
	return def
}

// checkLockTTL rejects a lock that can expire while a mutation still holds it.
// A mutation spends up to one store timeout loading and one persisting.
func checkLockTTL(lockTTL, storeTimeout time.Duration) error {
	if lockTTL <= 2*storeTimeout {
		return fmt.Errorf("LOCK_TTL_MS (%s) must exceed twice STORE_TIMEOUT_MS (%s)", lockTTL, storeTimeout)
	}
	return nil
}
