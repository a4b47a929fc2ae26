package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"agent-platform/internal/application/port/output"
)

const (
	DefaultEndpoint = "https://v6.db.transport.rest"
	maxConnections  = 5
)

var routePattern = regexp.MustCompile(`(?i)\bfrom\s+(.+?)\s+to\s+(.+?)(?:\s+(?:on|at|tomorrow|today|tonight|next)\b.*)?[.?!]*$`)

type Connection struct {
	Departure string   `json:"departure"`
	Arrival   string   `json:"arrival"`
	Duration  int      `json:"duration_minutes"`
	Changes   int      `json:"changes"`
	Lines     []string `json:"lines,omitempty"`
	Price     any      `json:"price"`
}

type location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type journeysResponse struct {
	Journeys []struct {
		Legs []struct {
			Departure string `json:"departure"`
			Arrival   string `json:"arrival"`
			Walking   bool   `json:"walking"`
			Line      *struct {
				Name string `json:"name"`
			} `json:"line"`
		} `json:"legs"`
		Price *struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"price"`
	} `json:"journeys"`
}

// Agent answers "from X to Y" queries with Deutsche Bahn connections
// from the transport.rest API.
type Agent struct {
	web      output.WebClientPort
	endpoint string
	logger   output.LoggerPort
}

func New(web output.WebClientPort, endpoint string, logger output.LoggerPort) *Agent {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Agent{web: web, endpoint: strings.TrimRight(endpoint, "/"), logger: logger}
}

func (a *Agent) Description() string {
	return "Transportation, routes, trains, buses, flights, bookings"
}

func (a *Agent) Execute(ctx context.Context, query, userID string, queryContext map[string]any) (map[string]any, error) {
	from, to := parseRoute(query, queryContext)
	a.logger.Info("Travel agent executing", "query", query, "from", from, "to", to)

	if from == "" || to == "" {
		return map[string]any{
			"status":  "pending",
			"message": "Route calculation for public transport",
			"hint":    "Ask like: trains from Berlin to Hamburg",
		}, nil
	}

	connections, err := a.SearchTrains(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(connections) == 0 {
		return map[string]any{
			"status":  "no_results",
			"from":    from,
			"to":      to,
			"message": "No connections found",
		}, nil
	}

	return map[string]any{
		"status":         "success",
		"mode":           "train",
		"from":           from,
		"to":             to,
		"connections":    connections,
		"next_departure": connections[0],
	}, nil
}

func (a *Agent) SearchTrains(ctx context.Context, from, to string) ([]Connection, error) {
	fromLoc, err := a.lookup(ctx, from)
	if err != nil {
		return nil, err
	}
	toLoc, err := a.lookup(ctx, to)
	if err != nil {
		return nil, err
	}
	if fromLoc == nil || toLoc == nil {
		return nil, nil
	}

	body, err := a.web.Get(ctx, a.endpoint+"/journeys", url.Values{
		"from":    {fromLoc.ID},
		"to":      {toLoc.ID},
		"results": {fmt.Sprint(maxConnections)},
	})
	if err != nil {
		return nil, fmt.Errorf("journeys request failed: %w", err)
	}

	var resp journeysResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode journeys: %w", err)
	}

	connections := make([]Connection, 0, len(resp.Journeys))
	for _, j := range resp.Journeys {
		if len(j.Legs) == 0 {
			continue
		}
		first, last := j.Legs[0], j.Legs[len(j.Legs)-1]

		c := Connection{
			Departure: first.Departure,
			Arrival:   last.Arrival,
			Duration:  minutesBetween(first.Departure, last.Arrival),
			Price:     "N/A",
		}
		rides := 0
		for _, leg := range j.Legs {
			if leg.Walking {
				continue
			}
			rides++
			if leg.Line != nil && leg.Line.Name != "" {
				c.Lines = append(c.Lines, leg.Line.Name)
			}
		}
		if rides > 0 {
			c.Changes = rides - 1
		}
		if j.Price != nil {
			c.Price = map[string]any{"amount": j.Price.Amount, "currency": j.Price.Currency}
		}
		connections = append(connections, c)
	}

	a.logger.Debug("Train connections found", "count", len(connections))
	return connections, nil
}

func (a *Agent) lookup(ctx context.Context, name string) (*location, error) {
	body, err := a.web.Get(ctx, a.endpoint+"/locations", url.Values{
		"query":   {name},
		"results": {"1"},
	})
	if err != nil {
		return nil, fmt.Errorf("location lookup for %q failed: %w", name, err)
	}

	var locations []location
	if err := json.Unmarshal(body, &locations); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	if len(locations) == 0 || locations[0].ID == "" {
		return nil, nil
	}
	return &locations[0], nil
}

// parseRoute prefers explicit context keys over the query text.
func parseRoute(query string, queryContext map[string]any) (string, string) {
	from, _ := queryContext["from"].(string)
	to, _ := queryContext["to"].(string)
	if from != "" && to != "" {
		return from, to
	}

	m := routePattern.FindStringSubmatch(strings.TrimSpace(query))
	if m == nil {
		return "", ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
}

func minutesBetween(start, end string) int {
	s, err1 := time.Parse(time.RFC3339, start)
	e, err2 := time.Parse(time.RFC3339, end)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(e.Sub(s).Minutes())
}
