package usecase

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
	"Itinerary-App/internal/domain/service"
)

// ItineraryUseCase はHTTP層から呼ばれる唯一の旅程計画ファサード
type ItineraryUseCase interface {
	// PlanRoundTrip はすべての都市を巡って出発都市に戻る旅程を計画する
	PlanRoundTrip(ctx context.Context, poiIDs []string) (*model.Itinerary, error)
	// PlanFixedStart は start から出発し、終点を自由とする片道の旅程を計画する
	PlanFixedStart(ctx context.Context, poiIDs []string, start string) (*model.Itinerary, error)
	// PlanFixedStartEnd は start から出発し end で終わる片道の旅程を計画する
	PlanFixedStartEnd(ctx context.Context, poiIDs []string, start, end string) (*model.Itinerary, error)
	// GetItinerary は保存済みの旅程を取得する
	GetItinerary(ctx context.Context, id string) (*model.Itinerary, error)
}

// ItineraryOptions はファサードの動作設定
type ItineraryOptions struct {
	MaxStops int
	TTLHours int
}

// itineraryUseCaseImpl はItineraryUseCaseの実装
type itineraryUseCaseImpl struct {
	resolver      *service.CityResolver
	matrixBuilder *service.DistanceMatrixBuilder
	solver        *service.TSPSolver
	assembler     *service.RouteAssembler
	itineraryRepo repository.ItineraryRepository
	options       ItineraryOptions
}

// NewItineraryUseCase は新しいItineraryUseCaseインスタンスを作成
// itineraryRepo が nil の場合、旅程は保存されない
func NewItineraryUseCase(
	resolver *service.CityResolver,
	matrixBuilder *service.DistanceMatrixBuilder,
	solver *service.TSPSolver,
	assembler *service.RouteAssembler,
	itineraryRepo repository.ItineraryRepository,
	options ItineraryOptions,
) ItineraryUseCase {
	if options.MaxStops <= 0 || options.MaxStops > model.SolverHardLimit {
		options.MaxStops = model.DefaultMaxStops
	}
	if options.TTLHours <= 0 {
		options.TTLHours = 24
	}
	return &itineraryUseCaseImpl{
		resolver:      resolver,
		matrixBuilder: matrixBuilder,
		solver:        solver,
		assembler:     assembler,
		itineraryRepo: itineraryRepo,
		options:       options,
	}
}

func (u *itineraryUseCaseImpl) PlanRoundTrip(ctx context.Context, poiIDs []string) (*model.Itinerary, error) {
	return u.plan(ctx, model.ShapeRoundTrip, poiIDs, "", "")
}

func (u *itineraryUseCaseImpl) PlanFixedStart(ctx context.Context, poiIDs []string, start string) (*model.Itinerary, error) {
	if start == "" {
		return nil, fmt.Errorf("%w: 出発地は必須です", model.ErrInvalidAnchor)
	}
	return u.plan(ctx, model.ShapeFixedStart, poiIDs, start, "")
}

func (u *itineraryUseCaseImpl) PlanFixedStartEnd(ctx context.Context, poiIDs []string, start, end string) (*model.Itinerary, error) {
	if start == "" || end == "" {
		return nil, fmt.Errorf("%w: 出発地と目的地は必須です", model.ErrInvalidAnchor)
	}
	if start == end {
		return nil, fmt.Errorf("%w: 出発地と目的地が同じPOIです", model.ErrInvalidAnchor)
	}
	return u.plan(ctx, model.ShapeFixedStartEnd, poiIDs, start, end)
}

func (u *itineraryUseCaseImpl) GetItinerary(ctx context.Context, id string) (*model.Itinerary, error) {
	if u.itineraryRepo == nil {
		return nil, fmt.Errorf("%w: 旅程の保存が無効です", model.ErrItineraryNotFound)
	}
	log.Infof("📖 旅程取得開始 (ID: %s)", id)

	itinerary, err := u.itineraryRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("旅程の取得に失敗: %w", err)
	}
	return itinerary, nil
}

// plan は CityResolver → DistanceMatrixBuilder → TSPSolver → RouteAssembler の順に一方向で処理する
func (u *itineraryUseCaseImpl) plan(ctx context.Context, shape model.TravelShape, poiIDs []string, start, end string) (*model.Itinerary, error) {
	log.Infof("🚀 旅程計画開始 (%s, POI: %d件)", model.GetShapeJapaneseName(shape), len(poiIDs))
	begin := time.Now()

	ordered := anchorPOIs(poiIDs, start, end)
	if len(ordered) == 0 {
		return nil, fmt.Errorf("%w: POIが指定されていません", model.ErrTooFewStops)
	}

	// Step 1: POIを都市に集約
	stops, err := u.resolver.Resolve(ctx, ordered)
	if err != nil {
		return nil, err
	}

	// オラクルへの問い合わせ前に都市数を検証する
	n := len(stops)
	if n < model.MinStops {
		return nil, fmt.Errorf("%w: %d都市 (最低 %d都市)", model.ErrTooFewStops, n, model.MinStops)
	}
	if n > u.options.MaxStops {
		return nil, fmt.Errorf("%w: %d都市 (上限 %d都市)", model.ErrTooManyStops, n, u.options.MaxStops)
	}

	endIdx := -1
	if shape == model.ShapeFixedStartEnd {
		endIdx = stopIndexOf(stops, end)
		if endIdx <= 0 {
			return nil, fmt.Errorf("%w: 出発地と目的地が同じ都市です", model.ErrInvalidAnchor)
		}
	}

	// Step 2: 距離行列を構築
	cityIDs := make([]string, n)
	for i, stop := range stops {
		cityIDs[i] = stop.City.ID
	}
	matrix, err := u.matrixBuilder.Build(ctx, cityIDs)
	if err != nil {
		return nil, err
	}

	// Step 3: 巡回路を解く
	var tour *model.TourResult
	switch shape {
	case model.ShapeRoundTrip:
		tour, err = u.solver.SolveRoundTrip(matrix)
	case model.ShapeFixedStart:
		tour, err = u.solver.SolveFixedStart(matrix)
	case model.ShapeFixedStartEnd:
		tour, err = u.solver.SolveFixedStartEnd(matrix, endIdx)
	default:
		return nil, fmt.Errorf("未対応の旅程の形です: %s", shape)
	}
	if err != nil {
		return nil, err
	}

	// Step 4: ルートを組み立て
	itinerary, err := u.assembler.Assemble(ctx, shape, stops, matrix, tour)
	if err != nil {
		return nil, err
	}

	u.save(ctx, itinerary)

	log.Infof("🎉 旅程計画完了: %.2fkm, %d都市 (%v)", itinerary.TotalDistance, n, time.Since(begin))
	return itinerary, nil
}

// save は旅程を保存する。保存に失敗しても計画結果はそのまま返す
func (u *itineraryUseCaseImpl) save(ctx context.Context, itinerary *model.Itinerary) {
	if u.itineraryRepo == nil {
		return
	}
	id, err := u.itineraryRepo.Save(ctx, itinerary, u.options.TTLHours)
	if err != nil {
		log.Warnf("⚠️ 旅程の保存に失敗: %v", err)
		return
	}
	itinerary.ID = id
}

// anchorPOIs は出発地を先頭、目的地を末尾に置いたPOI列を返す（重複は除く）
// 出発地の都市が添字0になり、出発地・目的地のPOIはそれぞれの都市内で先頭・末尾になる
func anchorPOIs(poiIDs []string, start, end string) []string {
	ordered := make([]string, 0, len(poiIDs)+2)
	if start != "" {
		ordered = append(ordered, start)
	}
	for _, id := range poiIDs {
		if id == "" || id == start || id == end {
			continue
		}
		ordered = append(ordered, id)
	}
	if end != "" {
		ordered = append(ordered, end)
	}
	return ordered
}

// stopIndexOf はPOIが属する都市の添字を返す
func stopIndexOf(stops []*model.CityStop, poiID string) int {
	for i, stop := range stops {
		if stop.HasPOI(poiID) {
			return i
		}
	}
	return -1
}
