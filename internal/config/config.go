package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

// Mode selects the lookup/persistence strategy: "fast" bounds customer
// latency aggressively, "safe" prefers the durable store.
const (
	ModeFast = "fast"
	ModeSafe = "safe"
)

type Config struct {
	MongoURI string
	DBName   string
	Mode     string

	JWTSecret string

	// Hot-path budget for durable product lookups; past it the resolver
	// falls back instead of blocking checkout.
	ProductLookupTimeout time.Duration
	ProductCacheTTL      time.Duration

	// Payment gateway credentials and endpoints.
	MerchantID    string
	HashKey       string
	HashIV        string
	GatewayURL    string
	ReturnURL     string
	ClientBackURL string

	// Optional AMQP broker for stock-change fan-out; empty disables it.
	AMQPURL string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:             getEnvOrDefault("MONGO_URI", ""),
		DBName:               getEnvOrDefault("DB_NAME", "coffeeshop"),
		Mode:                 getModeEnv("APP_MODE", ModeSafe),
		JWTSecret:            getEnvOrDefault("JWT_SECRET", ""),
		ProductLookupTimeout: getDurationEnv("PRODUCT_LOOKUP_TIMEOUT_MS", 500, time.Millisecond),
		ProductCacheTTL:      getDurationEnv("PRODUCT_CACHE_TTL", 5, time.Minute),
		MerchantID:           getEnvOrDefault("ECPAY_MERCHANT_ID", "2000132"),
		HashKey:              getEnvOrDefault("ECPAY_HASH_KEY", ""),
		HashIV:               getEnvOrDefault("ECPAY_HASH_IV", ""),
		GatewayURL:           getEnvOrDefault("ECPAY_GATEWAY_URL", "https://payment-stage.ecpay.com.tw/Cashier/AioCheckOut/V5"),
		ReturnURL:            getEnvOrDefault("ECPAY_RETURN_URL", ""),
		ClientBackURL:        getEnvOrDefault("ECPAY_CLIENT_BACK_URL", ""),
		AMQPURL:              getEnvOrDefault("AMQP_URL", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getModeEnv(key, defaultValue string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case ModeFast, ModeSafe:
		return value
	case "":
		return defaultValue
	default:
		log.Printf("unknown %s %q, using %q", key, value, defaultValue)
		return defaultValue
	}
}
