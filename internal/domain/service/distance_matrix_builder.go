package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
)

// DefaultMatrixConcurrency は距離オラクルへの同時問い合わせ数の既定値
const DefaultMatrixConcurrency = 8

// DistanceMatrixBuilder は距離オラクルへの並行問い合わせで都市間距離行列を構築する
type DistanceMatrixBuilder struct {
	oracle        repository.DistanceOracle
	maxGoroutines int
}

// NewDistanceMatrixBuilder は新しいDistanceMatrixBuilderインスタンスを作成
func NewDistanceMatrixBuilder(oracle repository.DistanceOracle, maxGoroutines int) *DistanceMatrixBuilder {
	if maxGoroutines <= 0 {
		maxGoroutines = DefaultMatrixConcurrency
	}
	return &DistanceMatrixBuilder{
		oracle:        oracle,
		maxGoroutines: maxGoroutines,
	}
}

// Build は i<j の各組について1回だけオラクルに問い合わせ、結果を M[i][j] と M[j][i] に書き込む
// 到達不能な組は +Inf のまま残す。1件でも問い合わせに失敗したら行列全体を破棄する
func (b *DistanceMatrixBuilder) Build(ctx context.Context, cities []string) (*model.DistanceMatrix, error) {
	matrix, err := model.NewDistanceMatrix(cities)
	if err != nil {
		return nil, err
	}

	n := len(cities)
	log.Infof("📐 距離行列の構築開始: %d都市 (%d組)", n, n*(n-1)/2)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.maxGoroutines)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			i, j := i, j
			g.Go(func() error {
				// 各goroutineは自分の組のセルにだけ書き込むのでロックは不要
				km, found, err := b.oracle.Distance(gctx, cities[i], cities[j])
				if err != nil {
					return fmt.Errorf("%w: %s - %s: %w", model.ErrDistanceQueryFailed, cities[i], cities[j], err)
				}
				if !found {
					log.Debugf("🚫 %s - %s は到達不能", cities[i], cities[j])
					return nil
				}
				if km < 0 {
					return fmt.Errorf("%w: %s - %s: 負の距離 %f", model.ErrDistanceQueryFailed, cities[i], cities[j], km)
				}
				log.Debugf("📏 %s - %s: %.2fkm", cities[i], cities[j], km)
				matrix.SetSymmetric(i, j, km)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Errorf("❌ 距離行列の構築に失敗: %v", err)
		return nil, err
	}

	log.Infof("✅ 距離行列の構築完了: %v", time.Since(start))
	return matrix, nil
}
