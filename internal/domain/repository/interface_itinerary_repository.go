package repository

import (
	"context"

	"Itinerary-App/internal/domain/model"
)

// ItineraryRepository は計画済み旅程の一時保存を担うリポジトリインターフェース
type ItineraryRepository interface {
	// Save は旅程を保存し、採番したIDを返す
	Save(ctx context.Context, itinerary *model.Itinerary, ttlHours int) (string, error)
	// Get は旅程を取得する。存在しない場合は model.ErrItineraryNotFound を返す
	Get(ctx context.Context, id string) (*model.Itinerary, error)
}
