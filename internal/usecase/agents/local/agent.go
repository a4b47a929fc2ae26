package local

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"agent-platform/internal/application/port/output"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultOverpassURL  = "https://overpass-api.de/api/interpreter"

	defaultRadius  = 5000
	hospitalRadius = 10000
	maxPlaces      = 10
)

var locationPattern = regexp.MustCompile(`(?i)\b(?:in|near|around|at)\s+(.+?)[.?!]*$`)

// OpenStreetMap tag for well-known place categories.
var categoryTags = map[string]string{
	"hospital":   `["amenity"="hospital"]`,
	"restaurant": `["amenity"="restaurant"]`,
	"cafe":       `["amenity"="cafe"]`,
	"pharmacy":   `["amenity"="pharmacy"]`,
	"bar":        `["amenity"="bar"]`,
	"atm":        `["amenity"="atm"]`,
	"hotel":      `["tourism"="hotel"]`,
	"store":      `["shop"]`,
	"shop":       `["shop"]`,
	"gym":        `["leisure"="fitness_centre"]`,
}

var fillerWords = map[string]bool{
	"find": true, "me": true, "a": true, "an": true, "the": true, "nearby": true,
	"near": true, "closest": true, "nearest": true, "best": true, "good": true,
	"show": true, "where": true, "is": true, "are": true, "some": true, "any": true,
}

type Place struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
}

type Config struct {
	NominatimURL string
	OverpassURL  string
}

// Agent finds nearby places: Nominatim geocodes the location, Overpass
// lists matching OpenStreetMap nodes around it.
type Agent struct {
	web    output.WebClientPort
	cfg    Config
	logger output.LoggerPort
}

func New(web output.WebClientPort, cfg Config, logger output.LoggerPort) *Agent {
	if cfg.NominatimURL == "" {
		cfg.NominatimURL = DefaultNominatimURL
	}
	if cfg.OverpassURL == "" {
		cfg.OverpassURL = DefaultOverpassURL
	}
	cfg.NominatimURL = strings.TrimRight(cfg.NominatimURL, "/")
	return &Agent{web: web, cfg: cfg, logger: logger}
}

func (a *Agent) Description() string {
	return "Nearby places, restaurants, hospitals, services"
}

func (a *Agent) Execute(ctx context.Context, query, userID string, queryContext map[string]any) (map[string]any, error) {
	what, where := parseQuery(query)
	if loc, ok := queryContext["location"].(string); ok && loc != "" {
		where = loc
	}

	a.logger.Info("Local agent executing", "what", what, "where", where)

	if where == "" {
		return map[string]any{
			"status":  "needs_location",
			"query":   query,
			"message": "Add a place to the query (\"... in Berlin\") or set context.location",
		}, nil
	}

	radius := defaultRadius
	if what == "hospital" {
		radius = hospitalRadius
	}

	places, err := a.FindNearby(ctx, what, where, radius)
	if err != nil {
		return nil, err
	}

	status := "success"
	if len(places) == 0 {
		status = "no_results"
	}
	return map[string]any{
		"status":   status,
		"query":    what,
		"location": where,
		"radius_m": radius,
		"places":   places,
		"total":    len(places),
	}, nil
}

func (a *Agent) FindNearby(ctx context.Context, what, where string, radius int) ([]Place, error) {
	lat, lon, found, err := a.geocode(ctx, where)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	body, err := a.web.PostForm(ctx, a.cfg.OverpassURL, url.Values{
		"data": {overpassQuery(what, lat, lon, radius)},
	})
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}

	var resp struct {
		Elements []struct {
			Lat  float64           `json:"lat"`
			Lon  float64           `json:"lon"`
			Tags map[string]string `json:"tags"`
		} `json:"elements"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	places := make([]Place, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		places = append(places, Place{
			Name:    tagOr(el.Tags, "Unknown", "name"),
			Type:    tagOr(el.Tags, "place", "amenity", "tourism", "shop", "leisure"),
			Lat:     el.Lat,
			Lon:     el.Lon,
			Address: address(el.Tags),
		})
	}
	return places, nil
}

func (a *Agent) geocode(ctx context.Context, where string) (float64, float64, bool, error) {
	body, err := a.web.Get(ctx, a.cfg.NominatimURL+"/search", url.Values{
		"q":      {where},
		"format": {"json"},
		"limit":  {"1"},
	})
	if err != nil {
		return 0, 0, false, fmt.Errorf("nominatim request failed: %w", err)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return 0, 0, false, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}
	return lat, lon, true, nil
}

func overpassQuery(what string, lat, lon float64, radius int) string {
	filter, ok := categoryTags[what]
	if !ok {
		filter = fmt.Sprintf(`["name"~%q,i]`, what)
	}
	return fmt.Sprintf("[out:json][timeout:25];\nnode(around:%d,%f,%f)%s;\nout %d;", radius, lat, lon, filter, maxPlaces)
}

// parseQuery splits "restaurants near Alexanderplatz" into the thing and the place.
func parseQuery(query string) (string, string) {
	query = strings.TrimSpace(query)
	where := ""
	if m := locationPattern.FindStringSubmatchIndex(query); m != nil {
		where = strings.TrimSpace(query[m[2]:m[3]])
		query = query[:m[0]]
	}

	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?")
		if w == "" || fillerWords[w] {
			continue
		}
		words = append(words, singular(w))
	}
	return strings.Join(words, " "), where
}

func singular(word string) string {
	if _, ok := categoryTags[word]; ok {
		return word
	}
	if trimmed := strings.TrimSuffix(word, "s"); trimmed != word {
		if _, ok := categoryTags[trimmed]; ok {
			return trimmed
		}
	}
	return word
}

func tagOr(tags map[string]string, fallback string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return fallback
}

func address(tags map[string]string) string {
	street := tags["addr:street"]
	if street == "" {
		return "N/A"
	}
	if number := tags["addr:housenumber"]; number != "" {
		return street + " " + number
	}
	return street
}
