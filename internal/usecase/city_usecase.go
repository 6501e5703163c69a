package usecase

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	log "github.com/sirupsen/logrus"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
)

// CityUseCase は都市単位の距離・経路・最寄り都市の照会
type CityUseCase interface {
	// GetDistance は2都市間の最短距離を返す
	GetDistance(ctx context.Context, fromCityID, toCityID string) (*model.CityDistance, error)
	// GetRoute は2都市間の最短距離と経路座標を返す
	GetRoute(ctx context.Context, fromCityID, toCityID string) (*model.CityDistance, error)
	// FindNearestCity は座標から最も近い都市を返す
	FindNearestCity(ctx context.Context, location model.LatLng) (*model.NearestCity, error)
}

type cityUseCaseImpl struct {
	cityRepo repository.CitiesRepository
	oracle   repository.DistanceOracle
}

// NewCityUseCase は新しいCityUseCaseインスタンスを作成
func NewCityUseCase(cityRepo repository.CitiesRepository, oracle repository.DistanceOracle) CityUseCase {
	return &cityUseCaseImpl{
		cityRepo: cityRepo,
		oracle:   oracle,
	}
}

func (u *cityUseCaseImpl) GetDistance(ctx context.Context, fromCityID, toCityID string) (*model.CityDistance, error) {
	return u.query(ctx, fromCityID, toCityID, false)
}

func (u *cityUseCaseImpl) GetRoute(ctx context.Context, fromCityID, toCityID string) (*model.CityDistance, error) {
	return u.query(ctx, fromCityID, toCityID, true)
}

func (u *cityUseCaseImpl) FindNearestCity(ctx context.Context, location model.LatLng) (*model.NearestCity, error) {
	city, err := u.cityRepo.FindNearest(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("最寄り都市の検索に失敗 (%f, %f): %w", location.Lat, location.Lng, err)
	}
	km := geo.Distance(location.ToPoint(), city.ToPoint()) / 1000
	return &model.NearestCity{City: city, DistanceKm: model.RoundKm(km)}, nil
}

// query は両都市の存在を確認してからオラクルに問い合わせる
func (u *cityUseCaseImpl) query(ctx context.Context, fromCityID, toCityID string, withRoute bool) (*model.CityDistance, error) {
	from, err := u.cityRepo.GetByID(ctx, fromCityID)
	if err != nil {
		return nil, fmt.Errorf("出発都市の取得に失敗: %w", err)
	}
	to, err := u.cityRepo.GetByID(ctx, toCityID)
	if err != nil {
		return nil, fmt.Errorf("到着都市の取得に失敗: %w", err)
	}

	result := &model.CityDistance{From: from, To: to}
	if from.ID == to.ID {
		zero := 0.0
		result.Reachable = true
		result.DistanceKm = &zero
		if withRoute {
			result.Route = orb.LineString{from.ToPoint()}
		}
		return result, nil
	}

	km, found, err := u.oracle.Distance(ctx, from.ID, to.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - %s: %w", model.ErrDistanceQueryFailed, from.ID, to.ID, err)
	}
	if !found {
		log.Debugf("🚧 %s から %s へは到達できません", from.ID, to.ID)
		return result, nil
	}
	km = model.RoundKm(km)
	result.Reachable = true
	result.DistanceKm = &km

	if !withRoute {
		return result, nil
	}
	route, err := u.oracle.RouteCoords(ctx, from.ID, to.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: 経路 %s -> %s: %w", model.ErrDistanceQueryFailed, from.ID, to.ID, err)
	}
	if len(route) == 0 {
		route = orb.LineString{from.ToPoint(), to.ToPoint()}
	}
	result.Route = route
	return result, nil
}
