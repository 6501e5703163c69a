package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POI_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/itinerary?sslmode=disable")
	t.Setenv("ORACLE_BACKEND", "roadgraph")
}

func TestLoad(t *testing.T) {
	t.Run("既定値", func(t *testing.T) {
		setBaseEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, StorePostgres, cfg.POIStore)
		assert.Equal(t, OracleRoadGraph, cfg.OracleBackend)
		assert.Equal(t, 18, cfg.MaxStops)
		assert.Equal(t, 8, cfg.MatrixConcurrency)
		assert.Equal(t, 24, cfg.ItineraryTTLHours)
		assert.Equal(t, 30*time.Second, cfg.PlanTimeout)
		assert.Equal(t, "city-road-graph", cfg.Neo4jGraph)
	})

	t.Run("環境変数で上書き", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("ORACLE_BACKEND", "NEO4J")
		t.Setenv("MAX_STOPS", "12")
		t.Setenv("PLAN_TIMEOUT", "5s")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, OracleNeo4j, cfg.OracleBackend)
		assert.Equal(t, 12, cfg.MaxStops)
		assert.Equal(t, 5*time.Second, cfg.PlanTimeout)
	})

	t.Run("整数でないMAX_STOPS", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("MAX_STOPS", "many")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("時間として解釈できないPLAN_TIMEOUT", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("PLAN_TIMEOUT", "soon")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			POIStore:          StorePostgres,
			DatabaseURL:       "postgres://localhost/itinerary",
			OracleBackend:     OracleRoadGraph,
			MaxStops:          18,
			MatrixConcurrency: 8,
			ItineraryTTLHours: 24,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"正しい設定", func(c *Config) {}, false},
		{"SupabaseのURLとDBパスワードでも可", func(c *Config) {
			c.DatabaseURL = ""
			c.SupabaseURL = "https://example.supabase.co"
			c.SupabaseDBPassword = "secret"
		}, false},
		{"Postgresの接続先がない", func(c *Config) { c.DatabaseURL = "" }, true},
		{"Supabaseストアにキーがない", func(c *Config) { c.POIStore = StoreSupabase }, true},
		{"未対応のストア", func(c *Config) { c.POIStore = "mysql" }, true},
		{"GoogleオラクルにAPIキーがない", func(c *Config) { c.OracleBackend = OracleGoogle }, true},
		{"Neo4jオラクルにURIがない", func(c *Config) { c.OracleBackend = OracleNeo4j }, true},
		{"未対応のオラクル", func(c *Config) { c.OracleBackend = "osrm" }, true},
		{"MAX_STOPSが小さすぎる", func(c *Config) { c.MaxStops = 2 }, true},
		{"MAX_STOPSが大きすぎる", func(c *Config) { c.MaxStops = 21 }, true},
		{"並行数が0", func(c *Config) { c.MatrixConcurrency = 0 }, true},
		{"TTLが0", func(c *Config) { c.ItineraryTTLHours = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
