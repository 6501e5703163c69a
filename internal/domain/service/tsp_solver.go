package service

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"Itinerary-App/internal/domain/model"
)

// TSPSolver は部分集合上の動的計画法（Held–Karp）で巡回路を厳密に解く
// 時間 O(2^N・N^2)、メモリ O(2^N・N) のため N は小さい前提
type TSPSolver struct{}

// NewTSPSolver は新しいTSPSolverインスタンスを作成
func NewTSPSolver() *TSPSolver {
	return &TSPSolver{}
}

// SolveRoundTrip は行列をそのまま解く。結果は添字0から始まる順列で、
// コストは最後の都市から0へ戻る辺を含む
func (s *TSPSolver) SolveRoundTrip(m *model.DistanceMatrix) (*model.TourResult, error) {
	return s.solve(m)
}

// SolveFixedStart は列0を0にしたコピーを解き、都市0から始まる最短の片道経路を返す
// 0へ戻る辺が無料になるので、閉路の最小化がそのまま開路の最小化になる
func (s *TSPSolver) SolveFixedStart(m *model.DistanceMatrix) (*model.TourResult, error) {
	return s.solve(PrepareFixedStart(m))
}

// SolveFixedStartEnd は都市0を出発地、endIdxを目的地とする最短の片道経路を返す
// 目的地を先頭に入れ替え、出発地固定として解いてから順序を反転する
func (s *TSPSolver) SolveFixedStartEnd(m *model.DistanceMatrix, endIdx int) (*model.TourResult, error) {
	n := m.Size()
	if endIdx <= 0 || endIdx >= n {
		return nil, fmt.Errorf("%w: 目的地の添字 %d が範囲外です (N=%d)", model.ErrInvalidAnchor, endIdx, n)
	}

	// 入れ替え後、本来の出発地は endIdx の位置にある
	swapped := m.Swapped(0, endIdx)
	prepared := PrepareFixedStart(swapped)
	PinLastStop(prepared, endIdx)

	tour, err := s.solve(prepared)
	if err != nil {
		return nil, err
	}

	// 入れ替えを元に戻してから反転する
	perm := make([]int, n)
	for i, idx := range tour.Permutation {
		switch idx {
		case 0:
			idx = endIdx
		case endIdx:
			idx = 0
		}
		perm[n-1-i] = idx
	}

	return &model.TourResult{Permutation: perm, Cost: tour.Cost}, nil
}

// PrepareFixedStart は列0（任意の都市→0）をすべて0にしたコピーを返す
// 行0（0からの出発辺）は変更しない
func PrepareFixedStart(m *model.DistanceMatrix) *model.DistanceMatrix {
	prepared := m.Clone()
	prepared.ZeroColumn(0)
	return prepared
}

// PinLastStop は列0のうち last からの辺だけを0に残し、他を +Inf にする
// これにより巡回路で0へ戻る直前の都市、つまり片道の終点が last に固定される
func PinLastStop(m *model.DistanceMatrix, last int) {
	for i := 0; i < m.Size(); i++ {
		if i == last {
			m.Set(i, 0, 0)
			continue
		}
		m.Set(i, 0, math.Inf(1))
	}
}

// solve は添字0を起点とする閉路の最小コストと順列を求める
func (s *TSPSolver) solve(m *model.DistanceMatrix) (*model.TourResult, error) {
	if m == nil || m.Size() == 0 {
		return nil, model.ErrEmptyMatrix
	}
	n := m.Size()
	if n > model.SolverHardLimit {
		return nil, fmt.Errorf("%w: N=%d (上限 %d)", model.ErrTooManyStops, n, model.SolverHardLimit)
	}

	start := time.Now()
	d := m.Rows()

	var tour *model.TourResult
	switch n {
	case 1:
		tour = &model.TourResult{Permutation: []int{0}, Cost: 0}
	default:
		tour = heldKarp(d)
	}

	if math.IsInf(tour.Cost, 1) || math.IsNaN(tour.Cost) {
		log.Warnf("⚠️ 有限コストの巡回路が見つかりません (N=%d)", n)
		return nil, model.ErrInfeasibleTour
	}

	log.Infof("🧮 巡回路を計算: N=%d, コスト=%.2f, %v", n, tour.Cost, time.Since(start))
	return tour, nil
}

// heldKarp は都市0を固定した上で、都市1..n-1を部分集合ビットで表すDPを解く
// dp[mask][j] は0から出発し mask の都市をすべて訪れて j+1 にいる最小コスト
func heldKarp(d [][]float64) *model.TourResult {
	n := len(d)
	k := n - 1
	full := 1 << k
	inf := math.Inf(1)

	dp := make([]float64, full*k)
	parent := make([]int8, full*k)
	for i := range dp {
		dp[i] = inf
		parent[i] = -1
	}
	for j := 0; j < k; j++ {
		dp[(1<<j)*k+j] = d[0][j+1]
	}

	for mask := 1; mask < full; mask++ {
		row := mask * k
		for j := 0; j < k; j++ {
			if mask&(1<<j) == 0 {
				continue
			}
			cur := dp[row+j]
			if math.IsInf(cur, 1) {
				continue
			}
			from := d[j+1]
			for next := 0; next < k; next++ {
				if mask&(1<<next) != 0 {
					continue
				}
				cand := cur + from[next+1]
				idx := (mask|1<<next)*k + next
				if cand < dp[idx] {
					dp[idx] = cand
					parent[idx] = int8(j)
				}
			}
		}
	}

	last := full - 1
	best := inf
	end := -1
	for j := 0; j < k; j++ {
		cand := dp[last*k+j] + d[j+1][0]
		if cand < best {
			best = cand
			end = j
		}
	}
	if end < 0 {
		return &model.TourResult{Cost: inf}
	}

	perm := make([]int, n)
	mask := last
	for pos := n - 1; pos >= 1; pos-- {
		perm[pos] = end + 1
		prev := int(parent[mask*k+end])
		mask &^= 1 << end
		end = prev
	}
	perm[0] = 0

	return &model.TourResult{Permutation: perm, Cost: best}
}
