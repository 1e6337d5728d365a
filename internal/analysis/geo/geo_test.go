package geo

import (
	"reflect"
	"testing"

	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

func row(theme, region string, tf models.Timeframe, score float64) models.GeoInterestRow {
	return models.GeoInterestRow{Theme: theme, Region: region, Timeframe: tf, InterestScore: score}
}

func TestDedupeFirstWins(t *testing.T) {
	rows := []models.GeoInterestRow{
		row("Red Ledges Real Esate", "Salt Lake City UT", models.TimeframeLong, 100),
		row("Red Ledges Real Estate", " Salt Lake  City UT", models.TimeframeLong, 40),
		row("Red Ledges Real Estate", "Salt Lake City UT", models.TimeframeShort, 70),
		row("Red Ledges Real Estate", "  ", models.TimeframeShort, 70),
	}
	got := Dedupe(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(got), got)
	}
	if got[0].InterestScore != 100 || got[0].Theme != "Red Ledges Real Estate" {
		t.Errorf("first row = %+v", got[0])
	}
}

func TestTopRegions(t *testing.T) {
	rows := []models.GeoInterestRow{
		row("A", "Denver CO", models.TimeframeShort, 50),
		row("A", "Boise ID", models.TimeframeShort, 80),
		row("A", "Austin TX", models.TimeframeShort, 50),
		row("A", "Reno NV", models.TimeframeLong, 99),
		row("B", "Boise ID", models.TimeframeShort, 100),
	}
	got := regionNames(TopRegions(rows, "A", models.TimeframeShort, 2))
	if !reflect.DeepEqual(got, []string{"Boise ID", "Austin TX"}) {
		t.Errorf("TopRegions = %v", got)
	}
}

func TestShifts(t *testing.T) {
	var rows []models.GeoInterestRow
	recent := []string{"Salt Lake City UT", "Billings MT", "Missoula MT", "Boise ID"}
	historical := []string{"Salt Lake City UT", "Boise ID", "Los Angeles CA", "New York NY"}
	for i, r := range recent {
		rows = append(rows, row("Park City Real Estate", r, models.TimeframeShort, float64(100-i)))
	}
	for i, r := range historical {
		rows = append(rows, row("Park City Real Estate", r, models.TimeframeLong, float64(100-i)))
	}
	rows = append(rows, row("Kamas Real Estate", "Provo UT", models.TimeframeShort, 100))

	shifts := Shifts(rows)
	if len(shifts) != 1 {
		t.Fatalf("expected 1 shift (Kamas lacks LONG), got %d", len(shifts))
	}
	s := shifts[0]
	if !reflect.DeepEqual(s.Emerging, []string{"Billings MT", "Missoula MT"}) {
		t.Errorf("Emerging = %v", s.Emerging)
	}
	if !reflect.DeepEqual(s.Declining, []string{"Los Angeles CA", "New York NY"}) {
		t.Errorf("Declining = %v", s.Declining)
	}
	if !reflect.DeepEqual(s.StableLeaders, []string{"Boise ID", "Salt Lake City UT"}) {
		t.Errorf("StableLeaders = %v", s.StableLeaders)
	}
}

func TestShiftsCapped(t *testing.T) {
	var rows []models.GeoInterestRow
	for i := 0; i < 10; i++ {
		rows = append(rows, row("T", string(rune('A'+i)), models.TimeframeShort, float64(100-i)))
		rows = append(rows, row("T", string(rune('a'+i)), models.TimeframeLong, float64(100-i)))
	}
	s := Shifts(rows)[0]
	if len(s.Emerging) != ShiftListCap || len(s.Declining) != ShiftListCap || len(s.StableLeaders) != 0 {
		t.Errorf("unexpected lengths: %+v", s)
	}
}

func TestTopRegionPerTheme(t *testing.T) {
	rows := []models.GeoInterestRow{
		row("A", "Denver CO", models.TimeframeShort, 100),
		row("A", "Boise ID", models.TimeframeLong, 100),
		row("A", "Reno NV", models.TimeframeLong, 60),
	}
	best := TopRegionPerTheme(rows)
	if best["A"].Region != "Boise ID" {
		t.Errorf("best = %+v, want Boise ID from the longer timeframe", best["A"])
	}
}

func TestRegionLeaders(t *testing.T) {
	rows := []models.GeoInterestRow{
		row("A", "Salt Lake City UT", models.TimeframeLong, 100),
		row("B", "Salt Lake City UT", models.TimeframeLong, 60),
		row("C", "Salt Lake City UT", models.TimeframeLong, 30),
		row("D", "Salt Lake City UT", models.TimeframeLong, 90),
		row("A", "Billings MT", models.TimeframeLong, 100),
		row("A", "Boise ID", models.TimeframeLong, 10),
		row("A", "Boise ID", models.TimeframeShort, 500), // other timeframe
	}
	leaders := RegionLeaders(rows, models.TimeframeLong)
	if len(leaders) != 3 {
		t.Fatalf("expected 3 leaders, got %d", len(leaders))
	}
	if leaders[0].Region != "Salt Lake City UT" || leaders[0].TotalScore != 280 {
		t.Errorf("leader = %+v", leaders[0])
	}
	if !reflect.DeepEqual(leaders[0].TopThemes, []string{"A", "D", "B"}) {
		t.Errorf("TopThemes = %v", leaders[0].TopThemes)
	}

	all := RegionLeaders(rows, "")
	if all[0].Region != "Boise ID" {
		t.Errorf("all-timeframe leader = %+v", all[0])
	}
}

func TestOverlapSetsAndPivot(t *testing.T) {
	rows := []models.GeoInterestRow{
		row("A", "X", models.TimeframeShort, 10),
		row("A", "Y", models.TimeframeLong, 20),
		row("B", "X", models.TimeframeShort, 30),
	}
	sets := OverlapSets(rows, 15)
	if !reflect.DeepEqual(sets["A"], []string{"Y"}) || !reflect.DeepEqual(sets["B"], []string{"X"}) {
		t.Errorf("OverlapSets = %v", sets)
	}

	themes, regions, m := Pivot(rows, "")
	if !reflect.DeepEqual(themes, []string{"A", "B"}) || !reflect.DeepEqual(regions, []string{"X", "Y"}) {
		t.Fatalf("pivot axes = %v x %v", themes, regions)
	}
	want := [][]float64{{0, 20}, {30, 0}}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("pivot = %v, want %v", m, want)
	}

	_, regions, _ = Pivot(rows, models.TimeframeShort)
	if !reflect.DeepEqual(regions, []string{"X"}) {
		t.Errorf("short pivot regions = %v", regions)
	}
}
