// 诊断工具：把候选坐标换算为瓦片编号，输出瓦片西北角坐标与本地瓦片文件位置
// LOCATE_FORMAT=geojson 时输出瓦片范围的 FeatureCollection，便于在 GIS 中核对
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb/geojson"

	"tile-scan/internal/candidates"
	"tile-scan/internal/logger"
	"tile-scan/internal/scan"
	"tile-scan/internal/tilemath"
	"tile-scan/internal/tilestore"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()

	cfg, err := scan.ConfigFromEnv()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	if len(os.Args) > 1 {
		cfg.CandidatesSource = "file"
		cfg.CandidatesPath = os.Args[1]
	}
	cands, err := scan.LoadCandidates(context.Background(), cfg)
	if err != nil {
		l.Error("candidates_error", "err", err)
		os.Exit(1)
	}
	targets, rejected, err := candidates.ToTargets(cands, cfg.Zoom)
	if err != nil {
		l.Error("candidates_error", "err", err)
		os.Exit(1)
	}
	for _, r := range rejected {
		l.Warn("candidate_rejected", "id", r.Candidate.ID, "err", r.Err)
	}

	var tiles []*tilestore.DirStore
	for _, d := range filepath.SplitList(cfg.TilesDir) {
		tiles = append(tiles, tilestore.NewDirStore(d, cfg.TilesLayout))
	}
	if os.Getenv("LOCATE_FORMAT") == "geojson" {
		err = writeGeoJSON(os.Stdout, targets, tiles)
	} else {
		err = writeTable(os.Stdout, targets, tiles)
	}
	if err != nil {
		l.Error("locate_write_error", "err", err)
		os.Exit(1)
	}
	l.Info("locate_done", "targets", len(targets), "rejected", len(rejected))
}

func locate(t tilemath.TileCoordinate, tiles []*tilestore.DirStore) (string, bool) {
	for _, s := range tiles {
		if p, ok := s.Locate(t); ok {
			return p, true
		}
	}
	return "", false
}

func writeTable(w io.Writer, targets []candidates.Target, tiles []*tilestore.DirStore) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tlat\tlon\ttile\tnw_lat\tnw_lon\tfile")
	for _, t := range targets {
		nw := tilemath.TileToGeo(t.Tile.X, t.Tile.Y, t.Tile.Zoom)
		p, ok := locate(t.Tile, tiles)
		if !ok {
			p = "-"
		}
		fmt.Fprintf(tw, "%d\t%.7f\t%.7f\t%s\t%.7f\t%.7f\t%s\n", t.ID, t.Geo.Latitude, t.Geo.Longitude, t.Tile, nw.Latitude, nw.Longitude, p)
	}
	return tw.Flush()
}

func writeGeoJSON(w io.Writer, targets []candidates.Target, tiles []*tilestore.DirStore) error {
	fc := geojson.NewFeatureCollection()
	for _, t := range targets {
		mt, ok := t.Tile.Maptile()
		if !ok {
			continue
		}
		f := geojson.NewFeature(mt.Bound().ToPolygon())
		f.ID = t.ID
		f.Properties["tile"] = t.Tile.String()
		p, found := locate(t.Tile, tiles)
		f.Properties["file"] = p
		f.Properties["exists"] = found
		fc.Append(f)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}
