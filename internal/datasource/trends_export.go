package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/engine"
	"github.com/ELevine-RE/levine-marketing-dashboard/internal/logger"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// File name patterns of a Google Trends export.
const (
	TimelinePattern = "multiTimeline*.csv"
	GeoPattern      = "geoMap*.csv"
	QueriesPattern  = "relatedQueries*.csv"
)

// TrendsExport reads a directory of Google Trends CSV exports laid out as
//
//	<dir>/<Theme>/<1 Year|2 Year|5 Year>/multiTimeline.csv
//	<dir>/<Theme>/<1 Year|2 Year|5 Year>/geoMap.csv
//	<dir>/<Theme>/<1 Year|2 Year|5 Year>/relatedQueries.csv
//
// Files placed directly under <Theme>/ are read as the LONG timeframe.
// When several files match a pattern the most recently modified wins.
type TrendsExport struct {
	dir string
	log *logger.Logger
}

// NewTrendsExport creates a reader rooted at dir.
func NewTrendsExport(dir string, log *logger.Logger) *TrendsExport {
	return &TrendsExport{dir: dir, log: logger.OrNop(log)}
}

// Name returns the source name.
func (t *TrendsExport) Name() string { return "Google Trends exports" }

// Dir returns the export root.
func (t *TrendsExport) Dir() string { return t.dir }

// LoadBatch walks the export tree. Unreadable files are logged and skipped;
// ErrNoData is returned when no timeline rows were found at all.
func (t *TrendsExport) LoadBatch(ctx context.Context) (*engine.Batch, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return nil, fmt.Errorf("read trends dir %s: %w", t.dir, err)
	}

	batch := &engine.Batch{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		themeDir := filepath.Join(t.dir, e.Name())
		theme := utils.NormalizeTheme(e.Name())

		found := false
		for _, tf := range models.AllTimeframes() {
			sub := filepath.Join(themeDir, tf.SourceWindow())
			if info, err := os.Stat(sub); err != nil || !info.IsDir() {
				continue
			}
			if t.loadWindow(batch, theme, tf, sub) {
				found = true
			}
		}
		if !found {
			t.loadWindow(batch, theme, models.TimeframeLong, themeDir)
		}
	}

	if len(batch.Series) == 0 {
		return nil, fmt.Errorf("%w: no %s under %s", ErrNoData, TimelinePattern, t.dir)
	}
	t.log.Info("loaded trends exports",
		"dir", t.dir,
		"series_rows", len(batch.Series),
		"geo_rows", len(batch.Geo),
		"query_sets", len(batch.Queries))
	return batch, nil
}

// loadWindow reads the three export files of one timeframe directory and
// reports whether a timeline was found.
func (t *TrendsExport) loadWindow(batch *engine.Batch, theme string, tf models.Timeframe, dir string) bool {
	found := false

	if path, ok := latestFile(dir, TimelinePattern); ok {
		rows, err := readFile(path, ParseTimeline)
		if err != nil {
			t.log.Warn("skipping timeline export", "path", path, "error", err)
		} else {
			found = true
			for _, r := range rows {
				batch.Series = append(batch.Series, engine.RawSeriesRow{
					Theme: theme, Timeframe: tf, Label: r.Label, Value: r.Value,
				})
			}
		}
	}

	if path, ok := latestFile(dir, GeoPattern); ok {
		rows, err := readFile(path, ParseGeoMap)
		if err != nil {
			t.log.Warn("skipping geo export", "path", path, "error", err)
		} else {
			for _, r := range rows {
				batch.Geo = append(batch.Geo, engine.RawGeoRow{
					Theme: theme, Timeframe: tf, Region: r.Label, Value: r.Value,
				})
			}
		}
	}

	if path, ok := latestFile(dir, QueriesPattern); ok {
		f, err := os.Open(path)
		if err != nil {
			t.log.Warn("skipping related queries export", "path", path, "error", err)
			return found
		}
		defer f.Close()
		rq, err := ParseRelatedQueries(f)
		if err != nil {
			t.log.Warn("skipping related queries export", "path", path, "error", err)
			return found
		}
		rq.Theme, rq.Timeframe = theme, tf
		batch.Queries = append(batch.Queries, rq)
	}
	return found
}

// LabeledValue is one (label, raw value) pair from an export.
type LabeledValue struct {
	Label string
	Value string
}

// ParseTimeline reads a multiTimeline export. The "Category:" preamble is
// skipped; the header row starts with Day, Week, Month or Year. Only the
// first value column is used.
func ParseTimeline(r io.Reader) ([]LabeledValue, error) {
	return parseTwoColumn(r, "day", "week", "month", "year", "time")
}

// ParseGeoMap reads a geoMap export. Regions without a value are dropped.
func ParseGeoMap(r io.Reader) ([]LabeledValue, error) {
	rows, err := parseTwoColumn(r, "dma", "metro", "region", "subregion", "country", "city")
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		if row.Value != "" {
			out = append(out, row)
		}
	}
	return out, nil
}

// ParseRelatedQueries reads a relatedQueries export, splitting it into the
// TOP and RISING sections.
func ParseRelatedQueries(r io.Reader) (models.RelatedQueries, error) {
	var rq models.RelatedQueries
	records, err := readRecords(r)
	if err != nil {
		return rq, err
	}

	var section *[]models.RelatedQuery
	for _, rec := range records {
		first := strings.TrimSpace(rec[0])
		if len(rec) == 1 || (len(rec) > 1 && strings.TrimSpace(rec[1]) == "") {
			switch strings.ToUpper(first) {
			case "TOP":
				section = &rq.Top
			case "RISING":
				section = &rq.Rising
			}
			continue
		}
		if section == nil || first == "" {
			continue
		}
		*section = append(*section, models.RelatedQuery{Query: first, Score: strings.TrimSpace(rec[1])})
	}
	if len(rq.Top) == 0 && len(rq.Rising) == 0 {
		return rq, fmt.Errorf("%w: no TOP or RISING section", ErrNoData)
	}
	return rq, nil
}

// parseTwoColumn returns the rows after the first header whose first cell is
// one of headers (case-insensitive).
func parseTwoColumn(r io.Reader, headers ...string) ([]LabeledValue, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	want := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		want[h] = struct{}{}
	}

	var out []LabeledValue
	inData := false
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		first := strings.TrimSpace(rec[0])
		if !inData {
			if _, ok := want[strings.ToLower(first)]; ok {
				inData = true
			}
			continue
		}
		if first == "" {
			continue
		}
		out = append(out, LabeledValue{Label: first, Value: strings.TrimSpace(rec[1])})
	}
	if !inData {
		return nil, fmt.Errorf("%w: header row not found", ErrNoData)
	}
	return out, nil
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(records) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		records = append(records, rec)
	}
	return records, nil
}

func readFile(path string, parse func(io.Reader) ([]LabeledValue, error)) ([]LabeledValue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

// latestFile returns the most recently modified file in dir matching
// pattern. Ties go to the lexically last name.
func latestFile(dir, pattern string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	type cand struct {
		path string
		mod  int64
	}
	cands := make([]cand, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		cands = append(cands, cand{path: m, mod: info.ModTime().UnixNano()})
	}
	if len(cands) == 0 {
		return "", false
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].mod != cands[j].mod {
			return cands[i].mod > cands[j].mod
		}
		return cands[i].path > cands[j].path
	})
	return cands[0].path, true
}
