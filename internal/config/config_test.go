package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8080" {
					t.Errorf("expected port 8080, got %s", cfg.Port)
				}
				if cfg.LogLevel != "info" {
					t.Errorf("expected log level info, got %s", cfg.LogLevel)
				}
				if cfg.WSReadTimeout != 60*time.Second {
					t.Errorf("expected WSReadTimeout 60s, got %v", cfg.WSReadTimeout)
				}
				if cfg.Timezone.String() != "America/Sao_Paulo" {
					t.Errorf("expected timezone America/Sao_Paulo, got %s", cfg.Timezone)
				}
				if cfg.PollPresence != 10*time.Second || cfg.PollTickets != 30*time.Second {
					t.Errorf("unexpected poll intervals %v/%v", cfg.PollPresence, cfg.PollTickets)
				}
				if cfg.PollAlerts != 60*time.Second || cfg.PollRanking != 300*time.Second {
					t.Errorf("unexpected poll intervals %v/%v", cfg.PollAlerts, cfg.PollRanking)
				}
				if cfg.AgingWarning != 15*time.Minute || cfg.AgingCritical != 30*time.Minute {
					t.Errorf("unexpected aging thresholds %v/%v", cfg.AgingWarning, cfg.AgingCritical)
				}
				if cfg.SkipAuth {
					t.Error("expected SkipAuth false by default")
				}
				if len(cfg.KafkaBrokers) != 0 {
					t.Errorf("expected no kafka brokers, got %v", cfg.KafkaBrokers)
				}
				if cfg.AllowUnverifiedTokens() {
					t.Error("expected verified tokens outside development")
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"PORT":             "9000",
				"LOG_LEVEL":        "debug",
				"WS_READ_TIMEOUT":  "30",
				"WS_WRITE_TIMEOUT": "5",
				"ALLOWED_ORIGINS":  "http://example.com,http://test.com",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != "9000" {
					t.Errorf("expected port 9000, got %s", cfg.Port)
				}
				if cfg.LogLevel != "debug" {
					t.Errorf("expected log level debug, got %s", cfg.LogLevel)
				}
				if cfg.WSReadTimeout != 30*time.Second {
					t.Errorf("expected WSReadTimeout 30s, got %v", cfg.WSReadTimeout)
				}
				if cfg.WSWriteTimeout != 5*time.Second {
					t.Errorf("expected WSWriteTimeout 5s, got %v", cfg.WSWriteTimeout)
				}
				if len(cfg.AllowedOrigins) != 2 {
					t.Errorf("expected 2 allowed origins, got %d", len(cfg.AllowedOrigins))
				}
			},
		},
		{
			name: "domain settings",
			env: map[string]string{
				"TIMEZONE":               "UTC",
				"POLL_TICKETS_SECONDS":   "5",
				"AGING_WARNING_MINUTES":  "10",
				"AGING_CRITICAL_MINUTES": "20",
				"KAFKA_BROKERS":          "kafka-1:9092, kafka-2:9092,",
				"SKIP_AUTH":              "true",
				"ENV":                    "development",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Timezone != time.UTC {
					t.Errorf("expected UTC, got %s", cfg.Timezone)
				}
				if cfg.PollTickets != 5*time.Second {
					t.Errorf("expected PollTickets 5s, got %v", cfg.PollTickets)
				}
				if cfg.AgingCritical != 20*time.Minute {
					t.Errorf("expected AgingCritical 20m, got %v", cfg.AgingCritical)
				}
				if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
					t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
				}
				if !cfg.SkipAuth || !cfg.AllowUnverifiedTokens() {
					t.Error("expected development auth settings")
				}
			},
		},
		{
			name:    "invalid TIMEZONE",
			env:     map[string]string{"TIMEZONE": "Mars/Olympus"},
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			env:     map[string]string{"POLL_PRESENCE_SECONDS": "0"},
			wantErr: true,
		},
		{
			name: "critical below warning",
			env: map[string]string{
				"AGING_WARNING_MINUTES":  "30",
				"AGING_CRITICAL_MINUTES": "10",
			},
			wantErr: true,
		},
		{
			name: "invalid WS_READ_TIMEOUT",
			env: map[string]string{
				"WS_READ_TIMEOUT": "invalid",
			},
			wantErr: true,
		},
		{
			name: "invalid WS_WRITE_TIMEOUT",
			env: map[string]string{
				"WS_WRITE_TIMEOUT": "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Load config
			cfg, err := Load()

			// Check error
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// Run custom checks
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestWebSocketConstants(t *testing.T) {
	// Clear environment and set clean defaults
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// PongWait should equal WSReadTimeout
	if cfg.PongWait != cfg.WSReadTimeout {
		t.Errorf("PongWait (%v) should equal WSReadTimeout (%v)", cfg.PongWait, cfg.WSReadTimeout)
	}

	// PingPeriod should be less than PongWait
	if cfg.PingPeriod >= cfg.PongWait {
		t.Errorf("PingPeriod (%v) should be less than PongWait (%v)", cfg.PingPeriod, cfg.PongWait)
	}

	// WriteWait should equal WSWriteTimeout
	if cfg.WriteWait != cfg.WSWriteTimeout {
		t.Errorf("WriteWait (%v) should equal WSWriteTimeout (%v)", cfg.WriteWait, cfg.WSWriteTimeout)
	}

	// MaxMessageSize should be set
	if cfg.MaxMessageSize <= 0 {
		t.Errorf("MaxMessageSize should be positive, got %d", cfg.MaxMessageSize)
	}
}
