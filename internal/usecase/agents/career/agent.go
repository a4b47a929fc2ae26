package career

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"agent-platform/internal/application/port/output"
)

const (
	DefaultEndpoint = "https://remoteok.com/api"
	maxJobs         = 10
)

// words that say "I want a job" rather than which job
var stopWords = map[string]bool{
	"job": true, "jobs": true, "career": true, "careers": true, "find": true, "search": true,
	"for": true, "in": true, "a": true, "an": true, "the": true, "me": true, "apply": true,
	"hiring": true, "position": true, "positions": true, "work": true, "remote": true,
	"looking": true, "employment": true, "and": true, "to": true, "of": true, "at": true,
}

type Job struct {
	Title    string   `json:"title"`
	Company  string   `json:"company"`
	Location string   `json:"location"`
	URL      string   `json:"url"`
	Tags     []string `json:"tags,omitempty"`
	Source   string   `json:"source"`
}

type remoteOKJob struct {
	Position string   `json:"position"`
	Company  string   `json:"company"`
	Location string   `json:"location"`
	URL      string   `json:"url"`
	Tags     []string `json:"tags"`
}

// Agent searches the RemoteOK public job feed.
type Agent struct {
	web      output.WebClientPort
	endpoint string
	logger   output.LoggerPort
}

func New(web output.WebClientPort, endpoint string, logger output.LoggerPort) *Agent {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Agent{web: web, endpoint: endpoint, logger: logger}
}

func (a *Agent) Description() string {
	return "Job search, career advice, resume help, applications"
}

func (a *Agent) Execute(ctx context.Context, query, userID string, queryContext map[string]any) (map[string]any, error) {
	location := "Remote"
	if loc, ok := queryContext["location"].(string); ok && loc != "" {
		location = loc
	}

	a.logger.Info("Career agent executing", "query", query, "user", userID, "location", location)

	jobs, err := a.SearchJobs(ctx, query)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"status":     "success",
		"query":      query,
		"location":   location,
		"jobs":       jobs,
		"total_jobs": len(jobs),
		"source":     "RemoteOK",
	}, nil
}

// SearchJobs ranks the feed by how many query terms each posting mentions.
func (a *Agent) SearchJobs(ctx context.Context, query string) ([]Job, error) {
	body, err := a.web.Get(ctx, a.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("remoteok request failed: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode remoteok feed: %w", err)
	}

	terms := queryTerms(query)

	type scored struct {
		job   Job
		score int
	}
	var matches []scored
	for _, item := range raw {
		var r remoteOKJob
		// the first element is a legal notice without a position
		if err := json.Unmarshal(item, &r); err != nil || r.Position == "" {
			continue
		}

		score := matchScore(r, terms)
		if len(terms) > 0 && score == 0 {
			continue
		}

		location := r.Location
		if location == "" {
			location = "Remote"
		}
		matches = append(matches, scored{
			job: Job{
				Title:    strings.TrimSpace(r.Position),
				Company:  strings.TrimSpace(r.Company),
				Location: location,
				URL:      r.URL,
				Tags:     r.Tags,
				Source:   "RemoteOK",
			},
			score: score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	jobs := make([]Job, 0, maxJobs)
	for _, m := range matches {
		if len(jobs) == maxJobs {
			break
		}
		jobs = append(jobs, m.job)
	}

	a.logger.Debug("RemoteOK jobs matched", "matched", len(matches), "returned", len(jobs))
	return jobs, nil
}

func queryTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) < 2 || stopWords[word] {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

func matchScore(job remoteOKJob, terms []string) int {
	haystack := strings.ToLower(job.Position + " " + job.Company + " " + job.Location + " " + strings.Join(job.Tags, " "))
	score := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			score++
		}
	}
	return score
}
