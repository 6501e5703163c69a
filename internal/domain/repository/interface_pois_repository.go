package repository

import (
	"context"

	"Itinerary-App/internal/domain/model"
)

// POIsRepository はPOIの参照を担うリポジトリインターフェース
type POIsRepository interface {
	// GetByID はPOIを取得する。存在しない場合は model.ErrPOINotFound を返す
	GetByID(ctx context.Context, id string) (*model.POI, error)
}

// CitiesRepository は都市の参照を担うリポジトリインターフェース
type CitiesRepository interface {
	// GetByID は都市を取得する。存在しない場合は model.ErrCityNotFound を返す
	GetByID(ctx context.Context, id string) (*model.City, error)
	// FindNearest は座標から最も近い都市を返す
	FindNearest(ctx context.Context, location model.LatLng) (*model.City, error)
	// ListAll はすべての都市を返す
	ListAll(ctx context.Context) ([]*model.City, error)
}

// RoadsRepository は都市間道路グラフの読み込みを担うリポジトリインターフェース
type RoadsRepository interface {
	ListRoads(ctx context.Context) ([]model.Road, error)
}
