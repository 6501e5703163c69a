package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
	"Itinerary-App/internal/infrastructure/database"
)

type PostgresPOIsRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresPOIsRepository(client *database.PostgreSQLClient) repository.POIsRepository {
	return &PostgresPOIsRepository{
		client: client,
	}
}

// POIResult SQLの結果を受け取るための構造体
type POIResult struct {
	ID          string
	Name        string
	CityID      sql.NullString
	Location    string
	Description sql.NullString
	Address     sql.NullString
}

// ToPOI POIResultをmodel.POIに変換
func (pr *POIResult) ToPOI() (*model.POI, error) {
	location, err := parseGeometry([]byte(pr.Location))
	if err != nil {
		return nil, err
	}

	return &model.POI{
		ID:          pr.ID,
		Name:        pr.Name,
		CityID:      pr.CityID.String,
		Location:    location,
		Description: pr.Description.String,
		Address:     pr.Address.String,
	}, nil
}

func (r *PostgresPOIsRepository) GetByID(ctx context.Context, id string) (*model.POI, error) {
	query := `
		SELECT id, name, city_id, ST_AsGeoJSON(location)::jsonb AS location, description, address
		FROM pois
		WHERE id = $1
	`

	var result POIResult
	err := r.client.DB.QueryRowContext(ctx, query, id).Scan(
		&result.ID, &result.Name, &result.CityID, &result.Location, &result.Description, &result.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("POI ID %s: %w", id, model.ErrPOINotFound)
		}
		return nil, fmt.Errorf("POIデータの取得失敗: %w", err)
	}

	return result.ToPOI()
}

type PostgresCitiesRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresCitiesRepository(client *database.PostgreSQLClient) *PostgresCitiesRepository {
	return &PostgresCitiesRepository{
		client: client,
	}
}

// CityResult SQLの結果を受け取るための構造体
type CityResult struct {
	ID       string
	Name     string
	Location string
}

// ToCity CityResultをmodel.Cityに変換
func (cr *CityResult) ToCity() (*model.City, error) {
	location, err := parseGeometry([]byte(cr.Location))
	if err != nil {
		return nil, err
	}
	return &model.City{ID: cr.ID, Name: cr.Name, Location: location}, nil
}

func (r *PostgresCitiesRepository) GetByID(ctx context.Context, id string) (*model.City, error) {
	query := `SELECT id, name, ST_AsGeoJSON(location)::jsonb AS location FROM cities WHERE id = $1`

	var result CityResult
	err := r.client.DB.QueryRowContext(ctx, query, id).Scan(&result.ID, &result.Name, &result.Location)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("都市ID %s: %w", id, model.ErrCityNotFound)
		}
		return nil, fmt.Errorf("都市データの取得失敗: %w", err)
	}

	return result.ToCity()
}

func (r *PostgresCitiesRepository) FindNearest(ctx context.Context, location model.LatLng) (*model.City, error) {
	// PostGISのKNN演算子で最寄りの1件を取得
	query := `
		SELECT id, name, ST_AsGeoJSON(location)::jsonb AS location
		FROM cities
		ORDER BY location <-> ST_SetSRID(ST_MakePoint($2, $1), 4326)
		LIMIT 1
	`

	var result CityResult
	err := r.client.DB.QueryRowContext(ctx, query, location.Lat, location.Lng).Scan(&result.ID, &result.Name, &result.Location)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("(%f, %f) の最寄り都市: %w", location.Lat, location.Lng, model.ErrCityNotFound)
		}
		return nil, fmt.Errorf("最寄り都市検索失敗: %w", err)
	}

	return result.ToCity()
}

func (r *PostgresCitiesRepository) ListAll(ctx context.Context) ([]*model.City, error) {
	query := `SELECT id, name, ST_AsGeoJSON(location)::jsonb AS location FROM cities ORDER BY id`

	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("都市一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	var cities []*model.City
	for rows.Next() {
		var result CityResult
		if err := rows.Scan(&result.ID, &result.Name, &result.Location); err != nil {
			return nil, fmt.Errorf("都市データスキャンエラー: %w", err)
		}
		city, err := result.ToCity()
		if err != nil {
			return nil, err
		}
		cities = append(cities, city)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}
	return cities, nil
}

func (r *PostgresCitiesRepository) ListRoads(ctx context.Context) ([]model.Road, error) {
	query := `SELECT from_city, to_city, km FROM city_roads`

	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("道路データの取得失敗: %w", err)
	}
	defer rows.Close()

	var roads []model.Road
	for rows.Next() {
		var road model.Road
		if err := rows.Scan(&road.FromCityID, &road.ToCityID, &road.Km); err != nil {
			return nil, fmt.Errorf("道路データスキャンエラー: %w", err)
		}
		roads = append(roads, road)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行イテレーション中のエラー: %w", err)
	}
	return roads, nil
}
