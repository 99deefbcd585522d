package candidates_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tile-scan/internal/candidates"
	"tile-scan/internal/tilemath"
	"tile-scan/internal/utils"
)

func TestLoadCSV(t *testing.T) {
	in := "name,Longitude,ID,latitude\n" +
		"a,13.405,1,52.52\n" +
		"\n" +
		"b, -0.1276 ,2,51.5072\n"
	got, err := candidates.LoadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []candidates.Candidate{
		{ID: 1, Geo: tilemath.GeoCoordinate{Latitude: 52.52, Longitude: 13.405}},
		{ID: 2, Geo: tilemath.GeoCoordinate{Latitude: 51.5072, Longitude: -0.1276}},
	}, got)
}

func TestLoadCSVErrors(t *testing.T) {
	cases := map[string]string{
		"missing column": "id,latitude\n1,2\n",
		"bad id":         "id,latitude,longitude\nx,1,2\n",
		"bad latitude":   "id,latitude,longitude\n1,north,2\n",
		"short row":      "id,latitude,longitude\n1,2\n",
		"empty":          "",
	}
	for name, in := range cases {
		_, err := candidates.LoadCSV(strings.NewReader(in))
		assert.Error(t, err, name)
	}
}

func TestLoadGeoJSON(t *testing.T) {
	in := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","id":5,"geometry":{"type":"Point","coordinates":[13.405,52.52]},"properties":{}},
	  {"type":"Feature","geometry":{"type":"Point","coordinates":[-0.1276,51.5072]},"properties":{"id":"6"}}
	]}`
	got, err := candidates.LoadGeoJSON(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []candidates.Candidate{
		{ID: 5, Geo: tilemath.GeoCoordinate{Latitude: 52.52, Longitude: 13.405}},
		{ID: 6, Geo: tilemath.GeoCoordinate{Latitude: 51.5072, Longitude: -0.1276}},
	}, got)
}

func TestLoadGeoJSONRejects(t *testing.T) {
	line := `{"type":"FeatureCollection","features":[{"type":"Feature","id":1,"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}}]}`
	_, err := candidates.LoadGeoJSON(strings.NewReader(line))
	assert.Error(t, err)

	noID := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}]}`
	_, err = candidates.LoadGeoJSON(strings.NewReader(noID))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "lat_long.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,latitude,longitude\n1,52.52,13.405\n"), 0o644))
	got, err := candidates.LoadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = candidates.LoadFile(filepath.Join(dir, "points.xlsx"))
	assert.Error(t, err)
}

func TestLoadSQL(t *testing.T) {
	db, err := utils.OpenSQLite(filepath.Join(t.TempDir(), "cands.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE candidates (id INTEGER PRIMARY KEY, latitude REAL, longitude REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO candidates VALUES (2, 51.5072, -0.1276), (1, 52.52, 13.405)`)
	require.NoError(t, err)

	got, err := candidates.LoadSQL(context.Background(), db, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, 52.52, got[0].Geo.Latitude)
}

func TestToTargets(t *testing.T) {
	in := []candidates.Candidate{
		{ID: 1, Geo: tilemath.GeoCoordinate{Latitude: 52.52, Longitude: 13.405}},
		{ID: 2, Geo: tilemath.GeoCoordinate{Latitude: 90, Longitude: 0}},
		{ID: 3, Geo: tilemath.GeoCoordinate{Latitude: 0, Longitude: 181}},
		{ID: 4, Geo: tilemath.GeoCoordinate{Latitude: 51.5072, Longitude: -0.1276}},
	}
	targets, rejected, err := candidates.ToTargets(in, 10)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, tilemath.TileCoordinate{X: 550, Y: 335, Zoom: 10}, targets[0].Tile)
	assert.Equal(t, []int64{1, 4}, candidates.IDs(targets))
	require.Len(t, rejected, 2)
	assert.Equal(t, int64(2), rejected[0].Candidate.ID)
	assert.ErrorIs(t, rejected[1].Err, tilemath.ErrCoordinate)

	_, _, err = candidates.ToTargets([]candidates.Candidate{{ID: 1}, {ID: 1}}, 10)
	assert.Error(t, err)
}
