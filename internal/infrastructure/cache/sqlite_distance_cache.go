package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"Itinerary-App/internal/domain/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS city_distances (
	city_a    TEXT NOT NULL,
	city_b    TEXT NOT NULL,
	reachable INTEGER NOT NULL,
	km        REAL NOT NULL,
	PRIMARY KEY (city_a, city_b)
);
CREATE TABLE IF NOT EXISTS city_routes (
	from_city TEXT NOT NULL,
	to_city   TEXT NOT NULL,
	geom      BLOB NOT NULL,
	PRIMARY KEY (from_city, to_city)
);
`

// CachingOracle は距離オラクルの結果をSQLiteに保存するデコレーター
// 距離は無向として (小さいID, 大きいID) の組で保存し、経路は向きごとに保存する
type CachingOracle struct {
	inner repository.DistanceOracle
	db    *sql.DB
}

// NewCachingOracle はSQLiteファイルを開いてスキーマを作成する
func NewCachingOracle(ctx context.Context, inner repository.DistanceOracle, path string) (*CachingOracle, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("SQLiteのオープンに失敗: %w", err)
	}
	// 同時書き込みによる SQLITE_BUSY を避ける
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("キャッシュスキーマの作成に失敗: %w", err)
	}

	log.Infof("✅ 距離キャッシュを開きました: %s", path)
	return &CachingOracle{inner: inner, db: db}, nil
}

func (c *CachingOracle) Distance(ctx context.Context, fromCityID, toCityID string) (float64, bool, error) {
	a, b := orderedPair(fromCityID, toCityID)

	var reachable bool
	var km float64
	err := c.db.QueryRowContext(ctx,
		`SELECT reachable, km FROM city_distances WHERE city_a = ? AND city_b = ?`, a, b,
	).Scan(&reachable, &km)
	switch {
	case err == nil:
		return km, reachable, nil
	case !errors.Is(err, sql.ErrNoRows):
		log.WithError(err).Warn("⚠️ 距離キャッシュの読み込みに失敗")
	}

	km, found, err := c.inner.Distance(ctx, fromCityID, toCityID)
	if err != nil {
		return 0, false, err
	}
	if !found {
		km = 0
	}

	if _, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO city_distances (city_a, city_b, reachable, km) VALUES (?, ?, ?, ?)`,
		a, b, found, km,
	); err != nil {
		log.WithError(err).Warn("⚠️ 距離キャッシュの書き込みに失敗")
	}
	return km, found, nil
}

func (c *CachingOracle) RouteCoords(ctx context.Context, fromCityID, toCityID string) (orb.LineString, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT geom FROM city_routes WHERE from_city = ? AND to_city = ?`, fromCityID, toCityID,
	).Scan(&blob)
	if err == nil {
		geom, err := wkb.Unmarshal(blob)
		if line, ok := geom.(orb.LineString); err == nil && ok {
			return line, nil
		}
		log.Warnf("⚠️ 経路キャッシュの形式が不正: %s -> %s", fromCityID, toCityID)
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.WithError(err).Warn("⚠️ 経路キャッシュの読み込みに失敗")
	}

	line, err := c.inner.RouteCoords(ctx, fromCityID, toCityID)
	if err != nil {
		return nil, err
	}
	// 空の経路は呼び出し側が直線で補うため保存しない
	if len(line) == 0 {
		return line, nil
	}

	blob, err = wkb.Marshal(line)
	if err != nil {
		log.WithError(err).Warn("⚠️ 経路のWKB変換に失敗")
		return line, nil
	}
	if _, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO city_routes (from_city, to_city, geom) VALUES (?, ?, ?)`,
		fromCityID, toCityID, blob,
	); err != nil {
		log.WithError(err).Warn("⚠️ 経路キャッシュの書き込みに失敗")
	}
	return line, nil
}

// Close は内側のオラクルとSQLiteの両方を閉じる
func (c *CachingOracle) Close(ctx context.Context) error {
	innerErr := c.inner.Close(ctx)
	dbErr := c.db.Close()
	return errors.Join(innerErr, dbErr)
}

func orderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
