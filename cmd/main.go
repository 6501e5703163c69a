package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"Itinerary-App/internal/config"
	"Itinerary-App/internal/domain/repository"
	"Itinerary-App/internal/domain/service"
	"Itinerary-App/internal/handler"
	"Itinerary-App/internal/infrastructure/cache"
	"Itinerary-App/internal/infrastructure/database"
	"Itinerary-App/internal/infrastructure/firestore"
	"Itinerary-App/internal/infrastructure/graph"
	"Itinerary-App/internal/infrastructure/maps"
	infraRepo "Itinerary-App/internal/repository"
	"Itinerary-App/internal/usecase"
)

const serviceName = "Itinerary-App"

// cityStore は都市の参照と道路グラフの読み込みを両方提供するストア
type cityStore interface {
	repository.CitiesRepository
	repository.RoadsRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 設定の読み込みに失敗: %v", err)
	}
	cfg.ConfigureLogger()

	if err := run(cfg); err != nil {
		log.Fatalf("❌ サーバーが異常終了しました: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("🚀 %s を起動します (store=%s, oracle=%s)", serviceName, cfg.POIStore, cfg.OracleBackend)

	// POI・都市ストア
	poiRepo, cityRepo, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 距離オラクル
	oracle, err := newOracle(ctx, cfg, cityRepo)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := oracle.Close(closeCtx); err != nil {
			log.WithError(err).Warn("⚠️ 距離オラクルのクローズに失敗")
		}
	}()

	// 旅程の保存先（任意）
	var itineraryRepo repository.ItineraryRepository
	if cfg.FirestoreProjectID != "" {
		firestoreClient, err := firestore.NewFirestoreClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return fmt.Errorf("Firestore初期化失敗: %w", err)
		}
		defer firestoreClient.Close()
		itineraryRepo = infraRepo.NewFirestoreItineraryRepository(firestoreClient.GetClient())
	} else {
		log.Warn("⚠️ FIRESTORE_PROJECT_IDが未設定のため、旅程は保存されません")
	}

	// Dependency injection
	itineraryUseCase := usecase.NewItineraryUseCase(
		service.NewCityResolver(poiRepo, cityRepo),
		service.NewDistanceMatrixBuilder(oracle, cfg.MatrixConcurrency),
		service.NewTSPSolver(),
		service.NewRouteAssembler(oracle),
		itineraryRepo,
		usecase.ItineraryOptions{MaxStops: cfg.MaxStops, TTLHours: cfg.ItineraryTTLHours},
	)

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(
		handler.NewHealthHandler(serviceName),
		handler.NewItineraryHandler(itineraryUseCase, cfg.PlanTimeout),
		handler.NewCityHandler(usecase.NewCityUseCase(cityRepo, oracle), cfg.PlanTimeout),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("✅ %s server starting on :%s", serviceName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("🛑 シャットダウンを開始します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStore(ctx context.Context, cfg *config.Config) (repository.POIsRepository, cityStore, func(), error) {
	switch cfg.POIStore {
	case config.StoreSupabase:
		client, err := database.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("Supabaseクライアント初期化失敗: %w", err)
		}
		if err := client.HealthCheck(); err != nil {
			return nil, nil, nil, fmt.Errorf("Supabaseヘルスチェック失敗: %w", err)
		}
		return infraRepo.NewSupabasePOIsRepository(client), infraRepo.NewSupabaseCitiesRepository(client), func() {}, nil

	default:
		dsn := cfg.DatabaseURL
		if dsn == "" {
			var err error
			if dsn, err = database.BuildSupabaseDSN(cfg.SupabaseURL, cfg.SupabaseDBPassword); err != nil {
				return nil, nil, nil, err
			}
		}
		client, err := database.NewPostgreSQLClientWithRetry(ctx, dsn, 5, 2*time.Second)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("PostgreSQL初期化失敗: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Warn("⚠️ PostgreSQLのクローズに失敗")
			}
		}
		return infraRepo.NewPostgresPOIsRepository(client), infraRepo.NewPostgresCitiesRepository(client), closeFn, nil
	}
}

func newOracle(ctx context.Context, cfg *config.Config, cities cityStore) (repository.DistanceOracle, error) {
	var oracle repository.DistanceOracle
	switch cfg.OracleBackend {
	case config.OracleGoogle:
		oracle = maps.NewGoogleDirectionsOracle(cfg.GoogleMapsAPIKey, "", cities)
	case config.OracleRoadGraph:
		roadGraph, err := graph.NewRoadGraphOracle(ctx, cities, cities)
		if err != nil {
			return nil, fmt.Errorf("道路グラフの構築に失敗: %w", err)
		}
		oracle = roadGraph
	default:
		neo4jOracle, err := graph.NewNeo4jOracle(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassphrase, cfg.Neo4jDatabase, cfg.Neo4jGraph)
		if err != nil {
			return nil, fmt.Errorf("Neo4j初期化失敗: %w", err)
		}
		oracle = neo4jOracle
	}

	if cfg.DistanceCachePath == "" {
		return oracle, nil
	}
	cached, err := cache.NewCachingOracle(ctx, oracle, cfg.DistanceCachePath)
	if err != nil {
		_ = oracle.Close(ctx)
		return nil, fmt.Errorf("距離キャッシュの初期化に失敗: %w", err)
	}
	return cached, nil
}
