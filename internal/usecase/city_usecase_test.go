package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/testutil"
)

func newTestCityUseCase(oracle *testutil.FakeOracle) CityUseCase {
	cities := testutil.NewFakeCitiesRepository(
		testutil.NewCity("A", 35.0, 135.0),
		testutil.NewCity("B", 35.0, 136.0),
		testutil.NewCity("C", 36.0, 136.0),
	)
	return NewCityUseCase(cities, oracle)
}

func TestCityUseCase_GetDistance(t *testing.T) {
	ctx := context.Background()

	t.Run("到達可能な2都市", func(t *testing.T) {
		oracle := testutil.NewFakeOracle().SetDistance("A", "B", 12.3456)
		result, err := newTestCityUseCase(oracle).GetDistance(ctx, "A", "B")
		require.NoError(t, err)

		assert.True(t, result.Reachable)
		require.NotNil(t, result.DistanceKm)
		assert.Equal(t, 12.35, *result.DistanceKm)
		assert.Equal(t, "A", result.From.ID)
		assert.Nil(t, result.Route)
		assert.Equal(t, 0, oracle.RouteCalls())
	})

	t.Run("到達不能な2都市", func(t *testing.T) {
		oracle := testutil.NewFakeOracle()
		result, err := newTestCityUseCase(oracle).GetDistance(ctx, "A", "C")
		require.NoError(t, err)

		assert.False(t, result.Reachable)
		assert.Nil(t, result.DistanceKm)
	})

	t.Run("同じ都市は距離0でオラクルを呼ばない", func(t *testing.T) {
		oracle := testutil.NewFakeOracle()
		result, err := newTestCityUseCase(oracle).GetDistance(ctx, "B", "B")
		require.NoError(t, err)

		require.NotNil(t, result.DistanceKm)
		assert.Zero(t, *result.DistanceKm)
		assert.Equal(t, 0, oracle.DistanceCalls())
	})

	t.Run("未登録の都市", func(t *testing.T) {
		oracle := testutil.NewFakeOracle()
		_, err := newTestCityUseCase(oracle).GetDistance(ctx, "A", "Z")
		assert.ErrorIs(t, err, model.ErrCityNotFound)
		assert.Equal(t, 0, oracle.DistanceCalls())
	})

	t.Run("オラクルの失敗", func(t *testing.T) {
		cause := errors.New("bolt: connection reset")
		oracle := testutil.NewFakeOracle().SetError("A", "B", cause)
		_, err := newTestCityUseCase(oracle).GetDistance(ctx, "A", "B")
		assert.ErrorIs(t, err, model.ErrDistanceQueryFailed)
		assert.ErrorIs(t, err, cause)
	})
}

func TestCityUseCase_GetRoute(t *testing.T) {
	ctx := context.Background()

	t.Run("オラクルの経路を返す", func(t *testing.T) {
		line := orb.LineString{{135.0, 35.0}, {135.5, 35.2}, {136.0, 35.0}}
		oracle := testutil.NewFakeOracle().SetDistance("A", "B", 95).SetRoute("A", "B", line)
		result, err := newTestCityUseCase(oracle).GetRoute(ctx, "A", "B")
		require.NoError(t, err)

		assert.True(t, result.Reachable)
		assert.Equal(t, line, result.Route)
	})

	t.Run("経路が空なら直線で補う", func(t *testing.T) {
		oracle := testutil.NewFakeOracle().SetDistance("A", "C", 150)
		result, err := newTestCityUseCase(oracle).GetRoute(ctx, "A", "C")
		require.NoError(t, err)

		assert.Equal(t, orb.LineString{{135.0, 35.0}, {136.0, 36.0}}, result.Route)
	})

	t.Run("到達不能なら経路を問い合わせない", func(t *testing.T) {
		oracle := testutil.NewFakeOracle()
		result, err := newTestCityUseCase(oracle).GetRoute(ctx, "A", "C")
		require.NoError(t, err)

		assert.False(t, result.Reachable)
		assert.Nil(t, result.Route)
		assert.Equal(t, 0, oracle.RouteCalls())
	})
}

func TestCityUseCase_FindNearestCity(t *testing.T) {
	ctx := context.Background()

	t.Run("最寄り都市と直線距離", func(t *testing.T) {
		result, err := newTestCityUseCase(testutil.NewFakeOracle()).FindNearestCity(ctx, model.LatLng{Lat: 35.0, Lng: 135.9})
		require.NoError(t, err)

		assert.Equal(t, "B", result.City.ID)
		assert.InDelta(t, 9.1, result.DistanceKm, 0.1)
	})

	t.Run("都市が1つもない", func(t *testing.T) {
		uc := NewCityUseCase(testutil.NewFakeCitiesRepository(), testutil.NewFakeOracle())
		_, err := uc.FindNearestCity(ctx, model.LatLng{Lat: 35.0, Lng: 135.0})
		assert.ErrorIs(t, err, model.ErrCityNotFound)
	})
}
