package model

import "errors"

// 旅程計画のエラー分類。呼び出し側は errors.Is で判定する
var (
	// ErrPOINotFound 指定されたPOIが存在しない（クライアント入力エラー）
	ErrPOINotFound = errors.New("POIが見つかりません")
	// ErrCityNotFound 指定された都市が存在しない
	ErrCityNotFound = errors.New("都市が見つかりません")
	// ErrDistanceQueryFailed 距離オラクルが応答できなかった（依存先エラー）
	ErrDistanceQueryFailed = errors.New("距離の問い合わせに失敗しました")
	// ErrInfeasibleTour 有限コストの巡回路が存在しない（計画失敗）
	ErrInfeasibleTour = errors.New("到達可能な巡回ルートが存在しません")
	// ErrTooFewStops 都市の集約後に3都市未満
	ErrTooFewStops = errors.New("訪問都市が少なすぎます")
	// ErrTooManyStops 厳密解法の上限を超える都市数
	ErrTooManyStops = errors.New("訪問都市が多すぎます")
	// ErrInvalidAnchor 出発地・目的地の指定が不正
	ErrInvalidAnchor = errors.New("出発地または目的地の指定が不正です")
	// ErrEmptyMatrix 空の距離行列がソルバーに渡された
	ErrEmptyMatrix = errors.New("距離行列が空です")
	// ErrItineraryNotFound 保存済み旅程が見つからない（有効期限切れを含む）
	ErrItineraryNotFound = errors.New("旅程が見つかりません")
)
