package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/testutil"
)

func TestDistanceMatrixBuilder_Build(t *testing.T) {
	ctx := context.Background()

	t.Run("各組に1回だけ問い合わせて対称に書き込む", func(t *testing.T) {
		oracle := testutil.NewFakeOracle().
			SetDistance("a", "b", 10).
			SetDistance("a", "c", 15).
			SetDistance("b", "c", 10).
			SetDistance("a", "d", 7).
			SetDistance("b", "d", 3).
			SetDistance("c", "d", 4)
		builder := NewDistanceMatrixBuilder(oracle, 2)

		m, err := builder.Build(ctx, []string{"a", "b", "c", "d"})
		require.NoError(t, err)

		assert.Equal(t, 6, oracle.DistanceCalls())
		assert.True(t, m.IsSymmetric())
		assert.Equal(t, 15.0, m.At(0, 2))
		assert.Equal(t, 15.0, m.At(2, 0))
		assert.Equal(t, 3.0, m.At(3, 1))
		for i := 0; i < 4; i++ {
			assert.True(t, math.IsInf(m.At(i, i), 1), "M[%d][%d]", i, i)
		}
	})

	t.Run("到達不能な組は+Infのまま", func(t *testing.T) {
		oracle := testutil.NewFakeOracle().
			SetDistance("a", "b", 1).
			SetDistance("b", "c", 1)
		builder := NewDistanceMatrixBuilder(oracle, 0)

		m, err := builder.Build(ctx, []string{"a", "b", "c"})
		require.NoError(t, err)
		assert.True(t, math.IsInf(m.At(0, 2), 1))
		assert.True(t, math.IsInf(m.At(2, 0), 1))
		assert.Equal(t, 1.0, m.At(1, 2))
	})

	t.Run("問い合わせの失敗は行列全体の失敗になる", func(t *testing.T) {
		boom := errors.New("connection reset")
		oracle := testutil.NewFakeOracle().
			SetDistance("a", "b", 1).
			SetDistance("a", "c", 1).
			SetError("b", "c", boom)
		builder := NewDistanceMatrixBuilder(oracle, 4)

		m, err := builder.Build(ctx, []string{"a", "b", "c"})
		assert.Nil(t, m)
		assert.ErrorIs(t, err, model.ErrDistanceQueryFailed)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("負の距離はエラー", func(t *testing.T) {
		oracle := testutil.NewFakeOracle().
			SetDistance("a", "b", -1)
		builder := NewDistanceMatrixBuilder(oracle, 1)

		_, err := builder.Build(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, model.ErrDistanceQueryFailed)
	})

	t.Run("期限切れのコンテキスト", func(t *testing.T) {
		oracle := testutil.NewFakeOracle().
			SetDistance("a", "b", 1).
			SetDistance("a", "c", 1).
			SetDistance("b", "c", 1)
		builder := NewDistanceMatrixBuilder(oracle, 1)

		deadline, cancel := context.WithTimeout(ctx, time.Nanosecond)
		defer cancel()
		<-deadline.Done()

		_, err := builder.Build(deadline, []string{"a", "b", "c"})
		assert.ErrorIs(t, err, model.ErrDistanceQueryFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("空の都市リスト", func(t *testing.T) {
		builder := NewDistanceMatrixBuilder(testutil.NewFakeOracle(), 1)

		_, err := builder.Build(ctx, nil)
		assert.ErrorIs(t, err, model.ErrEmptyMatrix)
	})
}
