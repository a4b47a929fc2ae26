package transaction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agent-platform/internal/infrastructure/logger"
	"agent-platform/internal/usecase/agents/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	query   string
	results []search.Result
	err     error
}

func (f *fakeSource) Results(ctx context.Context, query string) ([]search.Result, error) {
	f.query = query
	return f.results, f.err
}

func TestAgent_ComparesPrices(t *testing.T) {
	source := &fakeSource{results: []search.Result{
		{Title: "Sony WH-1000XM5 Headphones", URL: "https://www.amazon.com/dp/1", Snippet: "Now $1,299.99 with free shipping"},
		{Title: "Sony WH-1000XM5 - $349", URL: "https://www.ebay.com/itm/2"},
		{Title: "Review: best headphones", URL: "https://blog.example/review", Snippet: "no price here"},
		{Title: "Sony WH-1000XM5", URL: "https://www.walmart.com/ip/3", Snippet: "Price $298.50"},
	}}
	agent := New(source, logger.NewNop())

	out, err := agent.Execute(context.Background(), "buy Sony WH-1000XM5")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(source.query, "Sony WH-1000XM5 price (site:amazon.com"), source.query)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Sony WH-1000XM5", out["product"])
	assert.Equal(t, 298.5, out["lowest_price"])
	assert.Equal(t, 1299.99, out["highest_price"])
	assert.Equal(t, 649.16, out["average_price"])
	assert.Equal(t, "USD", out["currency"])
	assert.Equal(t, 4, out["platforms_checked"])

	deals := out["deals"].([]Deal)
	require.Len(t, deals, 3)
	assert.Equal(t, "ebay.com", deals[1].Platform)
}

func TestAgent_NoPrices(t *testing.T) {
	agent := New(&fakeSource{results: []search.Result{{Title: "nothing"}}}, logger.NewNop())

	out, err := agent.Execute(context.Background(), "price of unobtainium")
	require.NoError(t, err)
	assert.Equal(t, "no_results", out["status"])
	assert.Equal(t, "unobtainium", out["product"])
}

func TestAgent_SearchError(t *testing.T) {
	agent := New(&fakeSource{err: errors.New("blocked")}, logger.NewNop())

	_, err := agent.Execute(context.Background(), "buy a kettle")
	assert.ErrorContains(t, err, "blocked")
}

func TestExtractDeals_Currencies(t *testing.T) {
	deals := extractDeals([]search.Result{
		{Title: "Kettle €24.99", URL: "https://shop.example/k"},
		{Title: "Kettle £19", URL: "::bad"},
	})
	require.Len(t, deals, 2)
	assert.Equal(t, "EUR", deals[0].Currency)
	assert.Equal(t, 24.99, deals[0].Price)
	assert.Equal(t, "GBP", deals[1].Currency)
	assert.Equal(t, "unknown", deals[1].Platform)
}

func TestAgent_MixedCurrencies(t *testing.T) {
	source := &fakeSource{results: []search.Result{
		{Title: "Kettle £19", URL: "https://www.amazon.co.uk/dp/1"},
		{Title: "Kettle $30", URL: "https://www.amazon.com/dp/2"},
		{Title: "Kettle $20", URL: "https://www.walmart.com/ip/3"},
		{Title: "Kettle €5", URL: "https://www.ebay.de/itm/4"},
	}}
	agent := New(source, logger.NewNop())

	out, err := agent.Execute(context.Background(), "buy a kettle")
	require.NoError(t, err)

	assert.Equal(t, "USD", out["currency"])
	assert.Equal(t, 20.0, out["lowest_price"])
	assert.Equal(t, 30.0, out["highest_price"])
	assert.Equal(t, 25.0, out["average_price"])
	assert.Equal(t, 2, out["other_currency_deals"])
	assert.Len(t, out["deals"].([]Deal), 2)
}

func TestDominantCurrency_TieGoesToFirstSeen(t *testing.T) {
	currency, kept, excluded := dominantCurrency([]Deal{
		{Price: 1, Currency: "EUR"},
		{Price: 2, Currency: "USD"},
	})
	if currency != "EUR" || len(kept) != 1 || excluded != 1 {
		t.Errorf("dominantCurrency() = %q, %v, %d", currency, kept, excluded)
	}
}
