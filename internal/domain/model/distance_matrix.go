package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DistanceMatrix 都市リスト cities[0..N) と同じ添字で並んだ N×N の距離行列
// 未到達・自己ループは +Inf で表す
type DistanceMatrix struct {
	cities []string
	data   *mat.Dense
}

// NewDistanceMatrix 全要素を +Inf で初期化した距離行列を作成
func NewDistanceMatrix(cities []string) (*DistanceMatrix, error) {
	n := len(cities)
	if n == 0 {
		return nil, ErrEmptyMatrix
	}

	values := make([]float64, n*n)
	for i := range values {
		values[i] = math.Inf(1)
	}

	return &DistanceMatrix{
		cities: append([]string(nil), cities...),
		data:   mat.NewDense(n, n, values),
	}, nil
}

// Size 行列の次数 N
func (m *DistanceMatrix) Size() int {
	return len(m.cities)
}

// Cities 行列の添字に対応する都市IDのコピー
func (m *DistanceMatrix) Cities() []string {
	return append([]string(nil), m.cities...)
}

// CityAt 添字iの都市ID
func (m *DistanceMatrix) CityAt(i int) string {
	return m.cities[i]
}

// At M[i][j]
func (m *DistanceMatrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Set M[i][j] のみを書き換える
func (m *DistanceMatrix) Set(i, j int, v float64) {
	m.data.Set(i, j, v)
}

// SetSymmetric M[i][j] と M[j][i] に同じ値を書き込む
func (m *DistanceMatrix) SetSymmetric(i, j int, v float64) {
	m.data.Set(i, j, v)
	m.data.Set(j, i, v)
}

// ZeroColumn 列jをすべて0にする（任意の都市から j への移動が無料になる）
func (m *DistanceMatrix) ZeroColumn(j int) {
	m.data.SetCol(j, make([]float64, m.Size()))
}

// Clone 独立したコピーを返す
func (m *DistanceMatrix) Clone() *DistanceMatrix {
	return &DistanceMatrix{
		cities: m.Cities(),
		data:   mat.DenseCopyOf(m.data),
	}
}

// Swapped 添字aとbを入れ替えた（行・列・都市ID）コピーを返す
func (m *DistanceMatrix) Swapped(a, b int) *DistanceMatrix {
	n := m.Size()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	perm[a], perm[b] = perm[b], perm[a]

	out := m.Clone()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.data.Set(i, j, m.data.At(perm[i], perm[j]))
		}
	}
	out.cities[a], out.cities[b] = m.cities[b], m.cities[a]
	return out
}

// IsSymmetric i≠j のすべての組で M[i][j] == M[j][i] か
func (m *DistanceMatrix) IsSymmetric() bool {
	n := m.Size()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if m.At(i, j) != m.At(j, i) {
				return false
			}
		}
	}
	return true
}

// Rows 行ごとのスライスとしてコピーを返す（ソルバーの高速アクセス用）
func (m *DistanceMatrix) Rows() [][]float64 {
	n := m.Size()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = append([]float64(nil), m.data.RawRowView(i)...)
	}
	return rows
}

// PathCost 添字列 order を順にたどったときの合計コスト
func (m *DistanceMatrix) PathCost(order []int) float64 {
	total := 0.0
	for i := 1; i < len(order); i++ {
		total += m.At(order[i-1], order[i])
	}
	return total
}
