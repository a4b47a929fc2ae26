package entertainment

import (
	"context"
	"sort"
	"strings"

	"agent-platform/internal/application/port/output"
)

const maxRecommendations = 5

type Title struct {
	Title       string   `json:"title"`
	Kind        string   `json:"kind"`
	Year        int      `json:"year"`
	Rating      float64  `json:"rating"`
	AvailableOn []string `json:"available_on"`
	Genres      []string `json:"genres"`
}

var catalogue = []Title{
	{"Inception", "movie", 2010, 8.8, []string{"Netflix", "Prime Video"}, []string{"sci-fi", "thriller", "mind-bending"}},
	{"The Matrix", "movie", 1999, 8.7, []string{"HBO Max", "Prime Video"}, []string{"sci-fi", "action"}},
	{"Paddington 2", "movie", 2017, 7.8, []string{"Netflix"}, []string{"family", "comedy", "feel-good"}},
	{"Knives Out", "movie", 2019, 7.9, []string{"Prime Video"}, []string{"mystery", "comedy"}},
	{"Parasite", "movie", 2019, 8.5, []string{"Hulu"}, []string{"thriller", "drama"}},
	{"Spirited Away", "movie", 2001, 8.6, []string{"HBO Max"}, []string{"animation", "family", "fantasy"}},
	{"Breaking Bad", "show", 2008, 9.5, []string{"Netflix"}, []string{"crime", "drama", "thriller"}},
	{"Ted Lasso", "show", 2020, 8.8, []string{"Apple TV+"}, []string{"comedy", "feel-good", "sports"}},
	{"The Last of Us", "show", 2023, 8.7, []string{"HBO Max"}, []string{"drama", "post-apocalyptic"}},
	{"Cyberpunk 2077", "game", 2020, 8.6, []string{"Steam", "GOG"}, []string{"rpg", "sci-fi", "action"}},
	{"Stardew Valley", "game", 2016, 8.9, []string{"Steam"}, []string{"relaxing", "simulation", "feel-good"}},
	{"Red Dead Redemption 2", "game", 2018, 9.3, []string{"Steam", "Epic"}, []string{"action", "western"}},
	{"Lo-fi Beats to Study", "music", 2018, 8.0, []string{"Spotify", "YouTube"}, []string{"relaxing", "focus", "chill"}},
	{"Workout Hits", "music", 2023, 7.5, []string{"Spotify"}, []string{"energetic", "pop", "workout"}},
}

var kindKeywords = map[string][]string{
	"movie": {"movie", "film", "cinema"},
	"show":  {"show", "series", "tv"},
	"game":  {"game", "gaming", "play"},
	"music": {"music", "playlist", "song", "album"},
}

// mood words mapped to catalogue genres
var moodGenres = map[string][]string{
	"funny":    {"comedy"},
	"laugh":    {"comedy"},
	"scary":    {"thriller"},
	"happy":    {"feel-good"},
	"cozy":     {"feel-good", "relaxing"},
	"chill":    {"relaxing", "chill"},
	"study":    {"focus"},
	"kids":     {"family", "animation"},
	"exciting": {"action"},
}

// Agent recommends titles from a built-in catalogue.
type Agent struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *Agent {
	return &Agent{logger: logger}
}

func (a *Agent) Description() string {
	return "Movies, shows, games, music, entertainment"
}

func (a *Agent) Execute(ctx context.Context, query string) (map[string]any, error) {
	lowered := strings.ToLower(query)
	kind := detectKind(lowered)
	genres := detectGenres(lowered)

	a.logger.Info("Entertainment agent executing", "kind", kind, "genres", genres)

	recommendations := recommend(kind, genres)
	return map[string]any{
		"status":          "success",
		"query":           query,
		"kind":            kind,
		"genres":          genres,
		"recommendations": recommendations,
		"total_found":     len(recommendations),
	}, nil
}

func detectKind(query string) string {
	for _, kind := range []string{"movie", "show", "game", "music"} {
		for _, kw := range kindKeywords[kind] {
			if strings.Contains(query, kw) {
				return kind
			}
		}
	}
	return ""
}

func detectGenres(query string) []string {
	seen := map[string]bool{}
	var genres []string
	add := func(g string) {
		if !seen[g] {
			seen[g] = true
			genres = append(genres, g)
		}
	}

	for _, t := range catalogue {
		for _, g := range t.Genres {
			if strings.Contains(query, g) {
				add(g)
			}
		}
	}
	moods := make([]string, 0, len(moodGenres))
	for mood := range moodGenres {
		moods = append(moods, mood)
	}
	sort.Strings(moods)
	for _, mood := range moods {
		if strings.Contains(query, mood) {
			for _, g := range moodGenres[mood] {
				add(g)
			}
		}
	}
	return genres
}

// recommend ranks by genre overlap, then rating.
func recommend(kind string, genres []string) []Title {
	type scored struct {
		title Title
		score int
	}
	var candidates []scored
	for _, t := range catalogue {
		if kind != "" && t.Kind != kind {
			continue
		}
		score := 0
		for _, g := range genres {
			for _, tg := range t.Genres {
				if g == tg {
					score++
				}
			}
		}
		if len(genres) > 0 && score == 0 {
			continue
		}
		candidates = append(candidates, scored{t, score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].title.Rating > candidates[j].title.Rating
	})

	out := make([]Title, 0, maxRecommendations)
	for _, c := range candidates {
		if len(out) == maxRecommendations {
			break
		}
		out = append(out, c.title)
	}
	return out
}
