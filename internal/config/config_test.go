package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		// t.Setenv sets the environment variable for the duration of the test
		// and automatically restores it afterwards.
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "8080")
		t.Setenv("APP_ENV", "test")
		t.Setenv("DOMESTIC_RATES_URL", "https://api.rajaongkir.test")
		t.Setenv("DOMESTIC_RATES_APIKEY", "ro_secret")
		t.Setenv("INTL_RATES_URL", "https://intl.rates.test")
		t.Setenv("COURIER_GATEWAY_URL", "https://courier.test")
		t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec")
		t.Setenv("SECRET_KEY", "jwt_secret")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "https://api.rajaongkir.test", cfg.DomesticRatesURL)
		assert.Equal(t, "ro_secret", cfg.DomesticRatesKey)
		assert.Equal(t, "https://courier.test", cfg.CourierGatewayURL)
		assert.Equal(t, "whsec", cfg.PaymentWebhookKey)
		assert.Equal(t, "jwt_secret", cfg.JWTSecret)
	})

	t.Run("Origin defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("ORIGIN_POSTAL", "")
		t.Setenv("ORIGIN_COUNTRY", "")

		cfg := LoadConfig()

		assert.Equal(t, "40115", cfg.OriginPostal)
		assert.Equal(t, "ID", cfg.OriginCountry)
	})

	t.Run("Origin override", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("ORIGIN_POSTAL", "60241")
		t.Setenv("ORIGIN_COUNTRY", "ID")

		cfg := LoadConfig()

		assert.Equal(t, "60241", cfg.OriginPostal)
	})

	t.Run("Rate debounce parsed", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("RATE_DEBOUNCE", "750ms")

		cfg := LoadConfig()

		assert.Equal(t, 750*time.Millisecond, cfg.RateDebounce)
	})

	t.Run("Rate debounce defaults to zero", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("RATE_DEBOUNCE", "")

		cfg := LoadConfig()

		assert.Equal(t, time.Duration(0), cfg.RateDebounce)
	})
}
