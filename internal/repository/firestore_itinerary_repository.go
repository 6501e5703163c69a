package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
)

const itinerariesCollection = "itineraries"

// FirestoreItineraryRepository Firestoreを使用した旅程の一時保存リポジトリ
type FirestoreItineraryRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreItineraryRepository 新しいFirestoreItineraryRepositoryインスタンスを作成
func NewFirestoreItineraryRepository(client *firestore.Client) repository.ItineraryRepository {
	return &FirestoreItineraryRepository{
		client: client,
		now:    time.Now,
	}
}

// Save は旅程をFirestoreに保存し、itinerary_idを生成して返す
func (r *FirestoreItineraryRepository) Save(ctx context.Context, itinerary *model.Itinerary, ttlHours int) (string, error) {
	id := fmt.Sprintf("itin_%s", uuid.New().String())

	_, err := r.client.Collection(itinerariesCollection).Doc(id).Set(ctx, itinerary.ToFirestoreItinerary(ttlHours))
	if err != nil {
		log.WithError(err).Errorf("❌ 旅程の保存に失敗: %s", id)
		return "", fmt.Errorf("旅程の保存に失敗しました: %w", err)
	}

	log.Infof("✅ 旅程を保存: %s (有効期限 %d 時間)", id, ttlHours)
	return id, nil
}

// Get は指定されたitinerary_idの旅程をFirestoreから取得する
func (r *FirestoreItineraryRepository) Get(ctx context.Context, id string) (*model.Itinerary, error) {
	doc, err := r.client.Collection(itinerariesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s: %w", id, model.ErrItineraryNotFound)
		}
		return nil, fmt.Errorf("旅程の取得に失敗しました: %w", err)
	}

	var data model.FirestoreItinerary
	if err := doc.DataTo(&data); err != nil {
		return nil, fmt.Errorf("データの変換に失敗しました: %w", err)
	}

	// TTLポリシーによる削除は遅延するため、期限切れはここで弾く
	if !data.ExpireAt.IsZero() && r.now().After(data.ExpireAt) {
		return nil, fmt.Errorf("%s は有効期限切れ: %w", id, model.ErrItineraryNotFound)
	}

	log.Debugf("✅ 旅程を取得: %s", id)
	return data.ToItinerary(id), nil
}
