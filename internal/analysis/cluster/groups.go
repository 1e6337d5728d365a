package cluster

import (
	"sort"
	"strings"

	"github.com/ELevine-RE/levine-marketing-dashboard/internal/analysis/stats"
	"github.com/ELevine-RE/levine-marketing-dashboard/pkg/models"
)

// Default linkage thresholds for GroupThemes.
const (
	DefaultShapeCorrelation = 0.5
	DefaultGeoOverlap       = 0.15
)

// GroupOptions tunes GroupThemes. Zero values select the defaults.
type GroupOptions struct {
	MinCorrelation float64
	MinOverlap     float64
}

// GroupThemes links two themes when their seasonal shapes correlate at
// MinCorrelation or more AND their top-metro sets overlap (Jaccard) at
// MinOverlap or more, then returns the connected components. Groups are
// sorted by size descending, then by their lowercase member names.
//
// shapes holds one equal-length seasonal vector per theme; geoSets holds each
// theme's top metros. Themes missing from geoSets on both sides count as
// fully overlapping.
func GroupThemes(shapes map[string][]float64, geoSets map[string][]string, opts GroupOptions) []models.CampaignGroup {
	if opts.MinCorrelation == 0 {
		opts.MinCorrelation = DefaultShapeCorrelation
	}
	if opts.MinOverlap == 0 {
		opts.MinOverlap = DefaultGeoOverlap
	}

	themes := make([]string, 0, len(shapes))
	for t := range shapes {
		themes = append(themes, t)
	}
	sort.Strings(themes)

	adj := make(map[string][]string, len(themes))
	for i := 0; i < len(themes); i++ {
		for j := i + 1; j < len(themes); j++ {
			a, b := themes[i], themes[j]
			if stats.Pearson(shapes[a], shapes[b]) < opts.MinCorrelation {
				continue
			}
			if overlap(geoSets[a], geoSets[b]) < opts.MinOverlap {
				continue
			}
			adj[a] = append(adj[a], b)
			adj[b] = append(adj[b], a)
		}
	}

	visited := make(map[string]bool, len(themes))
	var comps [][]string
	for _, t := range themes {
		if visited[t] {
			continue
		}
		var comp []string
		queue := []string{t}
		visited[t] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, n := range adj[cur] {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Strings(comp)
		comps = append(comps, comp)
	}

	sort.SliceStable(comps, func(i, j int) bool {
		if len(comps[i]) != len(comps[j]) {
			return len(comps[i]) > len(comps[j])
		}
		return lowerKey(comps[i]) < lowerKey(comps[j])
	})

	groups := make([]models.CampaignGroup, len(comps))
	for i, c := range comps {
		groups[i] = models.CampaignGroup{Name: LabelGroup(c), Themes: c}
	}
	return groups
}

func overlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	return stats.Jaccard(a, b)
}

func lowerKey(themes []string) string {
	return strings.ToLower(strings.Join(themes, "\x00"))
}

// LabelGroup names a campaign shell from its member themes.
func LabelGroup(themes []string) string {
	text := strings.ToLower(strings.Join(themes, " "))
	has := func(terms ...string) bool {
		for _, t := range terms {
			if strings.Contains(text, t) {
				return true
			}
		}
		return false
	}

	switch {
	case has("ski", "deer", "slope") && len(themes) <= 4:
		return "Campaign: Ski-In/Ski-Out & Mountain Resorts"
	case has("golf", "ranch", "glenwild", "promontory", "red ledges") && len(themes) <= 5:
		return "Campaign: Golf & Gated Luxury Communities"
	case has("deer", "promontory", "red ledges", "glenwild", "victory", "ski"):
		return "Campaign: Luxury Developments"
	case has("real estate", "park city", "heber", "kamas"):
		return "Campaign: General Real Estate"
	default:
		return "Campaign: Thematic Group"
	}
}

// AssignGeoClusters runs c over the theme x region pivot and pairs each theme
// with its label.
func AssignGeoClusters(c Clusterer, themes []string, matrix [][]float64, k int) ([]models.GeoCluster, error) {
	if len(themes) == 0 {
		return nil, nil
	}
	labels, err := c.Cluster(matrix, k)
	if err != nil {
		return nil, err
	}
	out := make([]models.GeoCluster, len(themes))
	for i, t := range themes {
		out[i] = models.GeoCluster{Theme: t, Label: labels[i]}
	}
	return out, nil
}
