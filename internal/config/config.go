package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"Itinerary-App/internal/domain/model"
)

// POIストアの種類
const (
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
)

// 距離オラクルの種類
const (
	OracleNeo4j     = "neo4j"
	OracleRoadGraph = "roadgraph"
	OracleGoogle    = "google"
)

// Config は環境変数から読み込むアプリケーション設定
type Config struct {
	Port     string
	LogLevel string

	POIStore      string
	OracleBackend string

	Neo4jURI        string
	Neo4jUser       string
	Neo4jPassphrase string
	Neo4jDatabase   string
	Neo4jGraph      string

	GoogleMapsAPIKey string

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseDBPassword string
	DatabaseURL        string

	FirestoreProjectID string
	ItineraryTTLHours  int
	DistanceCachePath  string

	PlanTimeout       time.Duration
	MatrixConcurrency int
	MaxStops          int
}

// Load は .env と環境変数から設定を読み込み、検証する
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("⚠️ .envファイルが見つかりません。システムの環境変数を使用します")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		POIStore:           strings.ToLower(getEnv("POI_STORE", StorePostgres)),
		OracleBackend:      strings.ToLower(getEnv("ORACLE_BACKEND", OracleNeo4j)),
		Neo4jURI:           getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassphrase:    os.Getenv("NEO4J_PASSPHRASE"),
		Neo4jDatabase:      getEnv("NEO4J_DATABASE", "neo4j"),
		Neo4jGraph:         getEnv("NEO4J_GRAPH", "city-road-graph"),
		GoogleMapsAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseDBPassword: os.Getenv("SUPABASE_DB_PASSWORD"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),
		DistanceCachePath:  os.Getenv("DISTANCE_CACHE_PATH"),
	}

	var err error
	if cfg.ItineraryTTLHours, err = getEnvInt("ITINERARY_TTL_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.MatrixConcurrency, err = getEnvInt("MATRIX_CONCURRENCY", 8); err != nil {
		return nil, err
	}
	if cfg.MaxStops, err = getEnvInt("MAX_STOPS", model.DefaultMaxStops); err != nil {
		return nil, err
	}
	if cfg.PlanTimeout, err = getEnvDuration("PLAN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性をチェックする
func (c *Config) Validate() error {
	switch c.POIStore {
	case StorePostgres:
		if c.DatabaseURL == "" && (c.SupabaseURL == "" || c.SupabaseDBPassword == "") {
			return fmt.Errorf("POI_STORE=postgres には DATABASE_URL または SUPABASE_URL と SUPABASE_DB_PASSWORD が必要です")
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("POI_STORE=supabase には SUPABASE_URL と SUPABASE_ANON_KEY が必要です")
		}
	default:
		return fmt.Errorf("未対応のPOI_STOREです: %s", c.POIStore)
	}

	switch c.OracleBackend {
	case OracleNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("ORACLE_BACKEND=neo4j には NEO4J_URI が必要です")
		}
	case OracleRoadGraph:
	case OracleGoogle:
		if c.GoogleMapsAPIKey == "" {
			return fmt.Errorf("ORACLE_BACKEND=google には GOOGLE_MAPS_API_KEY が必要です")
		}
	default:
		return fmt.Errorf("未対応のORACLE_BACKENDです: %s", c.OracleBackend)
	}

	if c.MaxStops < model.MinStops || c.MaxStops > model.SolverHardLimit {
		return fmt.Errorf("MAX_STOPS は %d から %d の範囲で指定してください: %d", model.MinStops, model.SolverHardLimit, c.MaxStops)
	}
	if c.MatrixConcurrency <= 0 {
		return fmt.Errorf("MATRIX_CONCURRENCY は正の整数で指定してください: %d", c.MatrixConcurrency)
	}
	if c.ItineraryTTLHours <= 0 {
		return fmt.Errorf("ITINERARY_TTL_HOURS は正の整数で指定してください: %d", c.ItineraryTTLHours)
	}
	return nil
}

// ConfigureLogger はログレベルとフォーマットを設定する
func (c *Config) ConfigureLogger() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("⚠️ 不正なLOG_LEVEL %q のため info を使用します", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s の値が整数ではありません: %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s の値が時間として解釈できません: %q", key, v)
	}
	return d, nil
}
