package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Razorpay configuration
	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Booking configuration
	DefaultPhoneRegion string
	PaymentTimeout     time.Duration

	// Payout configuration
	CommissionRate float64

	// Admin configuration
	AdminEmail      string
	OTPLength       int
	OTPTTL          time.Duration
	OTPMailAttempts int

	// Sweep configuration
	SweepCron string

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Razorpay
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		Currency:          getEnv("CURRENCY", "INR"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Booking
		DefaultPhoneRegion: getEnv("DEFAULT_PHONE_REGION", "IN"),
		PaymentTimeout:     getEnvAsDuration("PAYMENT_TIMEOUT", "10m"),

		// Payouts
		CommissionRate: getEnvAsFloat("COMMISSION_RATE", 0.05),

		// Admin
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		OTPLength:       getEnvAsInt("OTP_LENGTH", 6),
		OTPTTL:          getEnvAsDuration("OTP_TTL", "5m"),
		OTPMailAttempts: getEnvAsInt("OTP_MAIL_ATTEMPTS", 3),

		// Sweep
		SweepCron: getEnv("SWEEP_CRON", "*/30 * * * *"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
