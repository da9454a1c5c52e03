package helper

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("NEO4J_URI", "neo4j://localhost:7687")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Address() != ":8080" {
		t.Errorf("port = %q, address = %q", cfg.Server.Port, cfg.Address())
	}
	if cfg.Store.Backend != BackendNeo4j {
		t.Errorf("backend = %q, want neo4j", cfg.Store.Backend)
	}
	if cfg.Engine.Options.HistoryLimit != 50 || cfg.Engine.Options.HistoryCandidates != 10 || cfg.Engine.Options.ResultSize != 6 {
		t.Errorf("unexpected engine options: %+v", cfg.Engine.Options)
	}
	if cfg.Engine.TopPairs != 100 {
		t.Errorf("top pairs = %d, want 100", cfg.Engine.TopPairs)
	}
	if cfg.Engine.CashbackInterval != time.Hour {
		t.Errorf("cashback interval = %v, want 1h", cfg.Engine.CashbackInterval)
	}
	if cfg.Store.Neo4j.Breaker.FailureThreshold != 5 || cfg.Store.Postgres.Breaker.OpenTimeout != 30*time.Second {
		t.Errorf("breaker settings not shared: %+v / %+v", cfg.Store.Neo4j.Breaker, cfg.Store.Postgres.Breaker)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/shop")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("ENGINE_RESULT_SIZE", "12")
	t.Setenv("ENGINE_REFRESH_INTERVAL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}
	if cfg.Store.Backend != BackendPostgres {
		t.Errorf("backend = %q, want postgres", cfg.Store.Backend)
	}
	if cfg.Server.Port != "9090" || cfg.Engine.Options.ResultSize != 12 || cfg.Engine.RefreshInterval != 5*time.Minute {
		t.Errorf("overrides not applied: %+v %+v", cfg.Server, cfg.Engine)
	}
	if got := strings.Join(cfg.Server.AllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("allowed origins = %q", got)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.TTL != time.Hour {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing neo4j uri",
			env:     map[string]string{},
			wantErr: "NEO4J_URI",
		},
		{
			name:    "missing postgres dsn",
			env:     map[string]string{"STORE_BACKEND": "postgres"},
			wantErr: "POSTGRES_DSN",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"STORE_BACKEND": "mongo"},
			wantErr: "unknown store backend",
		},
		{
			name:    "bad port",
			env:     map[string]string{"NEO4J_URI": "neo4j://x", "APP_PORT": "70000"},
			wantErr: "server port",
		},
		{
			name:    "zero result size",
			env:     map[string]string{"NEO4J_URI": "neo4j://x", "ENGINE_RESULT_SIZE": "0"},
			wantErr: "engine limits",
		},
		{
			name:    "seeding without url",
			env:     map[string]string{"NEO4J_URI": "neo4j://x", "SEED_ON_START": "true"},
			wantErr: "SEED_BASE_URL",
		},
		{
			name:    "seeding postgres",
			env:     map[string]string{"STORE_BACKEND": "postgres", "POSTGRES_DSN": "dsn", "SEED_ON_START": "true"},
			wantErr: "only supported on the neo4j backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NEO4J_URI", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfigFromEnv()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfigFromEnv() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
