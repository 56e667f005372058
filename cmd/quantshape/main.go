package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quantkit/internal/config"
	"quantkit/internal/infrastructure"
	"quantkit/internal/shape"
	"quantkit/internal/table"
	"quantkit/internal/tableio"
)

// ScalarOutput is printed when an access resolves to a single value
type ScalarOutput struct {
	Shape string  `json:"shape"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "quantshape:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("quantshape", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "input .csv or .xlsx file (required)")
	sheet := fs.String("sheet", "", "xlsx sheet; defaults to the first sheet with the key columns")
	timeCol := fs.String("time-col", "datetime", "datetime column; empty if the source has none")
	assetCol := fs.String("asset-col", "asset", "asset column; empty if the source has none")
	timeLayout := fs.String("time-layout", "", "Go time layout of the datetime column")
	seriesCol := fs.String("series", "", "read only this indicator as a series")
	timeKey := fs.String("time", "", "YYYY-MM-DD, or * for every time")
	assetKey := fs.String("asset", "", "asset label, or * for every asset")
	indicatorKey := fs.String("indicator", "", "indicator name, or * for every indicator")
	bom := fs.Bool("bom", false, "prefix CSV output with a UTF-8 BOM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("-in is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closer, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer closer.Close()
	logger = infrastructure.WithComponent(logger, "quantshape")
	ctx = infrastructure.EnsureTraceID(ctx)

	layout := tableio.Layout{
		TimeColumn:  *timeCol,
		AssetColumn: *assetCol,
		TimeLayout:  *timeLayout,
		Series:      *seriesCol,
	}
	t, err := readTable(*in, *sheet, layout)
	if err != nil {
		return err
	}

	q, err := parseQuery(*timeKey, *assetKey, *indicatorKey)
	if err != nil {
		return err
	}

	acc, err := shape.New(t)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "table_classified",
		slog.String("file", *in),
		slog.String("shape", acc.Tag().String()),
		slog.Int("rows", t.Len()))

	res, err := acc.Access(q)
	if err != nil {
		logger.DebugContext(ctx, "access_failed",
			slog.String("query", q.String()),
			slog.String("error", err.Error()))
		return err
	}

	if sc, ok := res.Scalar(); ok {
		enc := json.NewEncoder(stdout)
		return enc.Encode(ScalarOutput{Shape: acc.Tag().String(), Label: sc.Label, Value: sc.Value})
	}
	var out table.Table
	if vec, ok := res.Vector(); ok {
		out = vec
	} else if sub, ok := res.Table(); ok {
		out = sub
	}
	return tableio.WriteCSV(stdout, out, tableio.WriteOptions{BOMPrefix: *bom})
}

func readTable(path, sheet string, layout tableio.Layout) (table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return tableio.ReadXLSX(path, sheet, layout)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		return tableio.ReadCSV(f, layout)
	default:
		return nil, fmt.Errorf("unsupported input %q: want .csv or .xlsx", path)
	}
}

// parseQuery maps flag values to keys: empty is absent and * is a wildcard
func parseQuery(timeKey, assetKey, indicatorKey string) (shape.Query, error) {
	var q shape.Query
	switch timeKey {
	case "":
	case "*":
		q.Time = shape.Any[time.Time]()
	default:
		k, err := shape.Date(timeKey)
		if err != nil {
			return q, err
		}
		q.Time = k
	}
	q.Asset = stringKey(assetKey)
	q.Indicator = stringKey(indicatorKey)
	return q, nil
}

func stringKey(v string) shape.Key[string] {
	switch v {
	case "":
		return shape.Key[string]{}
	case "*":
		return shape.Any[string]()
	default:
		return shape.At(v)
	}
}
