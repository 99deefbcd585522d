// 包 candidates：候选坐标读取（CSV / GeoJSON / SQL）与瓦片编号换算
package candidates

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tile-scan/internal/logger"
	"tile-scan/internal/tilemath"
)

// Candidate：一条候选坐标
type Candidate struct {
	ID  int64
	Geo tilemath.GeoCoordinate
}

// Target：换算后的扫描目标，顺序与输入一致
type Target struct {
	ID   int64
	Geo  tilemath.GeoCoordinate
	Tile tilemath.TileCoordinate
}

// Rejected：无法换算的候选及原因
type Rejected struct {
	Candidate Candidate
	Err       error
}

// LoadCSV：表头需包含 id / latitude / longitude（大小写不敏感，顺序任意，可有多余列）
// 约束：lat / lon 也接受作为列名
func LoadCSV(r io.Reader) ([]Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	idCol, latCol, lonCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "id":
			idCol = i
		case "latitude", "lat":
			latCol = i
		case "longitude", "lon", "lng":
			lonCol = i
		}
	}
	if idCol < 0 || latCol < 0 || lonCol < 0 {
		return nil, fmt.Errorf("csv header %v: need id, latitude, longitude", header)
	}
	need := max(idCol, latCol, lonCol)
	var out []Candidate
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) <= need {
			return nil, fmt.Errorf("csv line %d: %d fields", line, len(rec))
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: id: %w", line, err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[latCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[lonCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: longitude: %w", line, err)
		}
		out = append(out, Candidate{ID: id, Geo: tilemath.GeoCoordinate{Latitude: lat, Longitude: lon}})
	}
	return out, nil
}

// LoadGeoJSON：Point 要素集合；id 取 feature.id，缺失时取 properties.id
func LoadGeoJSON(r io.Reader) ([]Candidate, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}
	out := make([]Candidate, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("geojson feature %d: geometry %T is not a Point", i, f.Geometry)
		}
		id, err := featureID(f)
		if err != nil {
			return nil, fmt.Errorf("geojson feature %d: %w", i, err)
		}
		out = append(out, Candidate{ID: id, Geo: tilemath.GeoCoordinate{Latitude: pt.Lat(), Longitude: pt.Lon()}})
	}
	return out, nil
}

func featureID(f *geojson.Feature) (int64, error) {
	v := f.ID
	if v == nil {
		v = f.Properties["id"]
	}
	switch id := v.(type) {
	case float64:
		if id != math.Trunc(id) {
			return 0, fmt.Errorf("id %v is not an integer", id)
		}
		return int64(id), nil
	case string:
		return strconv.ParseInt(id, 10, 64)
	case nil:
		return 0, errors.New("missing id")
	}
	return 0, fmt.Errorf("unsupported id type %T", v)
}

// DefaultQuery：SQL 候选源默认查询，列依次为 id, latitude, longitude
const DefaultQuery = "SELECT id, latitude, longitude FROM candidates ORDER BY id"

// LoadSQL：执行 query，逐行读取 (id, lat, lon)
func LoadSQL(ctx context.Context, db *sql.DB, query string) ([]Candidate, error) {
	if query == "" {
		query = DefaultQuery
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Geo.Latitude, &c.Geo.Longitude); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadFile：按扩展名选择 CSV 或 GeoJSON
func LoadFile(path string) ([]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return LoadGeoJSON(f)
	case ".csv", ".txt", "":
		return LoadCSV(f)
	}
	return nil, fmt.Errorf("candidates: unsupported file type %s", path)
}

// ToTargets：一次性换算为瓦片编号
// 约束：换算失败（CoordinateError）的候选跳过并单独返回，不做静默修正；重复 id 视为输入错误
func ToTargets(cands []Candidate, zoom int) ([]Target, []Rejected, error) {
	seen := make(map[int64]struct{}, len(cands))
	out := make([]Target, 0, len(cands))
	var rejected []Rejected
	for _, c := range cands {
		if _, dup := seen[c.ID]; dup {
			return nil, nil, fmt.Errorf("candidates: duplicate id %d", c.ID)
		}
		seen[c.ID] = struct{}{}
		t, err := tilemath.GeoToTile(c.Geo, zoom)
		if err != nil {
			if errors.Is(err, tilemath.ErrCoordinate) {
				logger.L().Warn("candidate_rejected", "id", c.ID, "lat", c.Geo.Latitude, "lon", c.Geo.Longitude, "err", err)
				rejected = append(rejected, Rejected{Candidate: c, Err: err})
				continue
			}
			return nil, nil, err
		}
		out = append(out, Target{ID: c.ID, Geo: c.Geo, Tile: t})
	}
	return out, rejected, nil
}

// IDs：目标 id 列表，供检查点定位
func IDs(targets []Target) []int64 {
	out := make([]int64, len(targets))
	for i, t := range targets {
		out[i] = t.ID
	}
	return out
}
