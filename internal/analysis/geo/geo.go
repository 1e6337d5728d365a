// Package geo ranks metro-level interest and tracks how a theme's leading
// metros shift between timeframes.
package geo

import (
	"sort"
	"strings"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/utils"
)

// Defaults taken from the campaign planning workflow.
const (
	TopMetros       = 10 // metros compared per timeframe for shifts
	ShiftListCap    = 5
	OverlapMetros   = 15 // metros per theme used for Jaccard overlap
	TopRegionCount  = 5
	TopThemesPerDMA = 3
)

type key struct {
	theme  string
	region string
	tf     models.Timeframe
}

// Dedupe normalizes theme and region names and keeps the first row for each
// (theme, region, timeframe). Rows with an empty region are dropped.
func Dedupe(rows []models.GeoInterestRow) []models.GeoInterestRow {
	seen := make(map[key]struct{}, len(rows))
	out := make([]models.GeoInterestRow, 0, len(rows))
	for _, r := range rows {
		r.Theme = utils.NormalizeTheme(r.Theme)
		r.Region = strings.Join(strings.Fields(r.Region), " ")
		if r.Region == "" {
			continue
		}
		k := key{r.Theme, r.Region, r.Timeframe}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// TopRegions returns up to n regions for theme/timeframe by descending score,
// ties broken by region name.
func TopRegions(rows []models.GeoInterestRow, theme string, tf models.Timeframe, n int) []models.GeoInterestRow {
	var sel []models.GeoInterestRow
	for _, r := range rows {
		if r.Theme == theme && r.Timeframe == tf {
			sel = append(sel, r)
		}
	}
	sortByScore(sel)
	if n > 0 && len(sel) > n {
		sel = sel[:n]
	}
	return sel
}

// Shifts compares each theme's top metros between the SHORT and LONG
// timeframes. Themes missing either timeframe are omitted.
func Shifts(rows []models.GeoInterestRow) []models.GeoShift {
	var out []models.GeoShift
	for _, theme := range themes(rows) {
		recent := regionNames(TopRegions(rows, theme, models.TimeframeShort, TopMetros))
		historical := regionNames(TopRegions(rows, theme, models.TimeframeLong, TopMetros))
		if len(recent) == 0 || len(historical) == 0 {
			continue
		}
		out = append(out, models.GeoShift{
			Theme:         theme,
			Emerging:      capped(difference(recent, historical)),
			Declining:     capped(difference(historical, recent)),
			StableLeaders: capped(intersection(recent, historical)),
		})
	}
	return out
}

// TopRegionPerTheme returns each theme's highest-scoring region across all
// timeframes, preferring the longest timeframe on score ties.
func TopRegionPerTheme(rows []models.GeoInterestRow) map[string]models.GeoInterestRow {
	best := make(map[string]models.GeoInterestRow)
	for _, r := range rows {
		cur, ok := best[r.Theme]
		if !ok || better(r, cur) {
			best[r.Theme] = r
		}
	}
	return best
}

func better(a, b models.GeoInterestRow) bool {
	if a.InterestScore != b.InterestScore {
		return a.InterestScore > b.InterestScore
	}
	if a.Timeframe.Rank() != b.Timeframe.Rank() {
		return a.Timeframe.Rank() > b.Timeframe.Rank()
	}
	return a.Region < b.Region
}

// RegionLeaders sums scores per region across themes for one timeframe
// (empty tf means all timeframes) and returns the top regions with their
// strongest themes.
func RegionLeaders(rows []models.GeoInterestRow, tf models.Timeframe) []models.RegionLeader {
	totals := make(map[string]float64)
	perTheme := make(map[string]map[string]float64)
	for _, r := range rows {
		if tf != "" && r.Timeframe != tf {
			continue
		}
		totals[r.Region] += r.InterestScore
		if perTheme[r.Region] == nil {
			perTheme[r.Region] = make(map[string]float64)
		}
		if cur, ok := perTheme[r.Region][r.Theme]; !ok || r.InterestScore > cur {
			perTheme[r.Region][r.Theme] = r.InterestScore
		}
	}

	leaders := make([]models.RegionLeader, 0, len(totals))
	for region, total := range totals {
		leaders = append(leaders, models.RegionLeader{Region: region, TotalScore: total})
	}
	sort.Slice(leaders, func(i, j int) bool {
		if leaders[i].TotalScore != leaders[j].TotalScore {
			return leaders[i].TotalScore > leaders[j].TotalScore
		}
		return leaders[i].Region < leaders[j].Region
	})
	if len(leaders) > TopRegionCount {
		leaders = leaders[:TopRegionCount]
	}

	for i := range leaders {
		type ts struct {
			theme string
			score float64
		}
		var list []ts
		for theme, score := range perTheme[leaders[i].Region] {
			list = append(list, ts{theme, score})
		}
		sort.Slice(list, func(a, b int) bool {
			if list[a].score != list[b].score {
				return list[a].score > list[b].score
			}
			return list[a].theme < list[b].theme
		})
		for j := 0; j < len(list) && j < TopThemesPerDMA; j++ {
			leaders[i].TopThemes = append(leaders[i].TopThemes, list[j].theme)
		}
	}
	return leaders
}

// OverlapSets returns each theme's top-N region names, taken from the longest
// timeframe available for that theme.
func OverlapSets(rows []models.GeoInterestRow, n int) map[string][]string {
	longest := make(map[string]models.Timeframe)
	for _, r := range rows {
		if cur, ok := longest[r.Theme]; !ok || r.Timeframe.Rank() > cur.Rank() {
			longest[r.Theme] = r.Timeframe
		}
	}
	out := make(map[string][]string, len(longest))
	for theme, tf := range longest {
		out[theme] = regionNames(TopRegions(rows, theme, tf, n))
	}
	return out
}

// Pivot builds a theme x region matrix of scores for one timeframe (empty tf
// means the longest timeframe per theme). Rows follow the sorted theme order,
// columns the sorted region order; missing cells are 0.
func Pivot(rows []models.GeoInterestRow, tf models.Timeframe) (themesOut, regions []string, matrix [][]float64) {
	longest := make(map[string]models.Timeframe)
	for _, r := range rows {
		if cur, ok := longest[r.Theme]; !ok || r.Timeframe.Rank() > cur.Rank() {
			longest[r.Theme] = r.Timeframe
		}
	}

	cells := make(map[string]map[string]float64)
	regionSet := make(map[string]struct{})
	for _, r := range rows {
		want := tf
		if want == "" {
			want = longest[r.Theme]
		}
		if r.Timeframe != want {
			continue
		}
		if cells[r.Theme] == nil {
			cells[r.Theme] = make(map[string]float64)
		}
		cells[r.Theme][r.Region] = r.InterestScore
		regionSet[r.Region] = struct{}{}
	}

	for t := range cells {
		themesOut = append(themesOut, t)
	}
	sort.Strings(themesOut)
	for r := range regionSet {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	matrix = make([][]float64, len(themesOut))
	for i, t := range themesOut {
		matrix[i] = make([]float64, len(regions))
		for j, r := range regions {
			matrix[i][j] = cells[t][r]
		}
	}
	return themesOut, regions, matrix
}

func sortByScore(rows []models.GeoInterestRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].InterestScore != rows[j].InterestScore {
			return rows[i].InterestScore > rows[j].InterestScore
		}
		return rows[i].Region < rows[j].Region
	})
}

func themes(rows []models.GeoInterestRow) []string {
	set := make(map[string]struct{})
	for _, r := range rows {
		set[r.Theme] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func regionNames(rows []models.GeoInterestRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Region
	}
	return out
}

func difference(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, s := range b {
		in[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := in[s]; !ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func intersection(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, s := range b {
		in[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := in[s]; ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func capped(s []string) []string {
	if len(s) > ShiftListCap {
		return s[:ShiftListCap]
	}
	return s
}
