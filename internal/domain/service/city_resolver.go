package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
)

// CityResolver はPOI IDの列を所属都市ごとにまとめる
type CityResolver struct {
	poiRepo  repository.POIsRepository
	cityRepo repository.CitiesRepository
}

// NewCityResolver は新しいCityResolverインスタンスを作成
func NewCityResolver(poiRepo repository.POIsRepository, cityRepo repository.CitiesRepository) *CityResolver {
	return &CityResolver{
		poiRepo:  poiRepo,
		cityRepo: cityRepo,
	}
}

// Resolve はPOIを所属都市に集約し、初出順で重複のない都市リストを返す
// 同じ都市のPOIは1つのCityStopにリクエスト順でまとまる
func (r *CityResolver) Resolve(ctx context.Context, poiIDs []string) ([]*model.CityStop, error) {
	stops := make([]*model.CityStop, 0, len(poiIDs))
	index := make(map[string]int, len(poiIDs))
	seen := make(map[string]bool, len(poiIDs))

	for _, poiID := range poiIDs {
		if seen[poiID] {
			continue
		}
		seen[poiID] = true

		poi, err := r.poiRepo.GetByID(ctx, poiID)
		if err != nil {
			return nil, fmt.Errorf("POI %s の取得に失敗: %w", poiID, err)
		}

		city, err := r.cityForPOI(ctx, poi)
		if err != nil {
			return nil, err
		}

		if i, ok := index[city.ID]; ok {
			stops[i].POIs = append(stops[i].POIs, poi)
			continue
		}
		index[city.ID] = len(stops)
		stops = append(stops, &model.CityStop{City: city, POIs: []*model.POI{poi}})
	}

	log.Debugf("🏙️ %d件のPOIを%d都市に集約", len(seen), len(stops))
	return stops, nil
}

// cityForPOI は所属都市を返す。未設定または未登録の場合は座標から最寄り都市を探す
func (r *CityResolver) cityForPOI(ctx context.Context, poi *model.POI) (*model.City, error) {
	if poi.HasCity() {
		city, err := r.cityRepo.GetByID(ctx, poi.CityID)
		if err == nil {
			return city, nil
		}
		if !errors.Is(err, model.ErrCityNotFound) {
			return nil, fmt.Errorf("POI %s の都市取得に失敗: %w", poi.ID, err)
		}
		log.Warnf("⚠️ POI %s の都市 %s が未登録のため最寄り都市を使用", poi.ID, poi.CityID)
	}

	if !poi.HasLocation() {
		return nil, fmt.Errorf("POI %s: 座標がありません: %w", poi.ID, model.ErrPOINotFound)
	}

	city, err := r.cityRepo.FindNearest(ctx, poi.ToLatLng())
	if errors.Is(err, model.ErrCityNotFound) {
		return nil, fmt.Errorf("POI %s の最寄り都市がありません: %w: %w", poi.ID, model.ErrPOINotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("POI %s の最寄り都市検索に失敗: %w", poi.ID, err)
	}
	return city, nil
}
