package source

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/router"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/retrieval"
	"sat-sight-be/pkg/store"
)

var coordPattern = regexp.MustCompile(`(-?\d+\.?\d*)[,\s]+(-?\d+\.?\d*)`)

type locationAlias struct {
	alias   string
	regions []string
}

// locationAliases maps informal region names to the labels used in the
// imagery metadata. Declaration order is the match order, so expansion is
// stable for a given query.
var locationAliases = []locationAlias{
	{"amazon", []string{"brazil", "peru", "colombia"}},
	{"sahara", []string{"algeria", "libya", "egypt", "mali"}},
	{"himalaya", []string{"nepal", "india", "china"}},
	{"borneo", []string{"indonesia", "malaysia"}},
	{"siberia", []string{"russia"}},
	{"scandinavia", []string{"norway", "sweden", "finland"}},
	{"great plains", []string{"united states"}},
	{"outback", []string{"australia"}},
	{"mediterranean", []string{"spain", "italy", "greece", "turkey"}},
	{"congo", []string{"democratic republic of the congo"}},
}

type landClassKeywords struct {
	class    string
	keywords []string
}

// geoLandClassKeywords is scanned in order; the first class with any
// keyword present in the query wins.
var geoLandClassKeywords = []landClassKeywords{
	{"Forest", []string{"forest", "tree", "woodland"}},
	{"AnnualCrop", []string{"agricultur", "farm", "crop"}},
	{"River", []string{"river", "stream"}},
	{"SeaLake", []string{"lake", "sea"}},
	{"Residential", []string{"residential", "urban", "city", "town"}},
	{"Industrial", []string{"industrial", "factory"}},
	{"Highway", []string{"highway", "road"}},
	{"Pasture", []string{"pasture", "grassland"}},
	{"HerbaceousVegetation", []string{"vegetation"}},
}

// GeoAdapter resolves the spatial part of a query: explicit coordinates
// when present, otherwise named locations matched against the imagery
// metadata.
type GeoAdapter struct {
	lookup retrieval.GeoLookup
	router *router.Router
	logger logger.ILogger
}

func NewGeoAdapter(lookup retrieval.GeoLookup, r *router.Router, log logger.ILogger) *GeoAdapter {
	return &GeoAdapter{lookup: lookup, router: r, logger: log}
}

func (a *GeoAdapter) Tag() state.NodeTag {
	return state.NodeGeo
}

// ExtractCoordinates parses a "lat, lon" pair out of free text. Returns
// ok=false when no pair within valid bounds is present.
func ExtractCoordinates(query string) (lat, lon float64, ok bool) {
	m := coordPattern.FindStringSubmatch(query)
	if m == nil {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// ExtractLocations expands informal region names found in the query into
// the metadata labels they cover.
func ExtractLocations(query string) []string {
	lower := strings.ToLower(query)
	var out []string
	seen := map[string]bool{}
	for _, entry := range locationAliases {
		if strings.Contains(lower, entry.alias) {
			for _, r := range entry.regions {
				if !seen[r] {
					seen[r] = true
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func extractLandClass(query string) string {
	lower := strings.ToLower(query)
	for _, entry := range geoLandClassKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.class
			}
		}
	}
	return ""
}

func (a *GeoAdapter) Run(ctx context.Context, qc *state.QueryContext) {
	qc.CurrentNode = state.NodeGeo

	result := &store.GeoResult{}

	if lat, lon, ok := ExtractCoordinates(qc.Query); ok {
		result.Type = store.GeoResultPoint
		result.Latitude = lat
		result.Longitude = lon
		a.logger.Info("geo", "parsed explicit coordinates", map[string]interface{}{"lat": lat, "lon": lon})
	} else {
		result.Type = store.GeoResultLocation
		result.Locations = ExtractLocations(qc.Query)
		result.LandClass = extractLandClass(qc.Query)

		if a.lookup != nil && (len(result.Locations) > 0 || result.LandClass != "") {
			matches, err := a.lookup.SearchByLocation(ctx, result.Locations, result.LandClass)
			if err != nil {
				// Geo enrichment is never fatal. An empty result still
				// lets synthesis answer from the query text alone.
				a.logger.Warn("geo", "location search failed", map[string]interface{}{"error": err.Error()})
			} else {
				if len(matches) > 10 {
					matches = matches[:10]
				}
				result.Matches = matches
			}
		}
	}

	qc.Evidence.Geo = result
	qc.MarkCompleted(state.SourceGeo)
	qc.NextNode = a.router.Next(qc)
}
