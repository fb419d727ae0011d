package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// Store origin; every shipment leaves from here.
	OriginPostal  string
	OriginCountry string

	DomesticRatesURL    string
	DomesticRatesKey    string
	IntlRatesURL        string
	IntlRatesKey        string
	CourierGatewayURL   string
	CourierGatewayKey   string
	PaymentServiceURL   string
	PaymentServiceKey   string
	PaymentWebhookKey   string
	JWTSecret           string

	// RateDebounce overrides the resolver quiescence window; empty
	// keeps the default.
	RateDebounce time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		OriginPostal:  getEnv("ORIGIN_POSTAL", "40115"),
		OriginCountry: getEnv("ORIGIN_COUNTRY", "ID"),

		DomesticRatesURL:  os.Getenv("DOMESTIC_RATES_URL"),
		DomesticRatesKey:  os.Getenv("DOMESTIC_RATES_APIKEY"),
		IntlRatesURL:      os.Getenv("INTL_RATES_URL"),
		IntlRatesKey:      os.Getenv("INTL_RATES_APIKEY"),
		CourierGatewayURL: os.Getenv("COURIER_GATEWAY_URL"),
		CourierGatewayKey: os.Getenv("COURIER_GATEWAY_APIKEY"),
		PaymentServiceURL: os.Getenv("PAYMENT_SERVICE_URL"),
		PaymentServiceKey: os.Getenv("PAYMENT_SERVICE_APIKEY"),
		PaymentWebhookKey: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		JWTSecret:         os.Getenv("SECRET_KEY"),
	}

	if raw := os.Getenv("RATE_DEBOUNCE"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid RATE_DEBOUNCE %q: %v", raw, err)
		}
		cfg.RateDebounce = d
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
