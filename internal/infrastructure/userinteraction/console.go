package userinteraction

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"agent-platform/internal/domain/entity"

	"github.com/fatih/color"
)

const maxResultChars = 4000

// Console reads queries and prints routed results for the CLI.
type Console struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// ReadQuery prompts for one line. It returns io.EOF when input ends.
func (c *Console) ReadQuery() (string, error) {
	color.New(color.FgCyan, color.Bold).Fprint(c.out, "\n> ")

	line, err := c.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read query: %w", err)
		}
		if line == "" {
			return "", io.EOF
		}
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) ShowResult(res entity.ExecutionResult) {
	dim := color.New(color.Faint)

	if res.Succeeded() {
		color.New(color.FgGreen, color.Bold).Fprintf(c.out, "✓ %s", res.Agent)
		dim.Fprintf(c.out, "  confidence %.2f | %s\n", res.Confidence, res.Reasoning)
		c.printJSON(res.Result)
		return
	}

	red := color.New(color.FgRed, color.Bold)
	switch {
	case res.Agent != "":
		red.Fprintf(c.out, "✗ %s: ", res.Agent)
	default:
		red.Fprint(c.out, "✗ ")
	}
	msg := res.Error
	if msg == "" {
		msg = res.Message
	}
	fmt.Fprintln(c.out, msg)

	if r := res.Routing; r != nil {
		dim.Fprintf(c.out, "  routed to %s via %s (%.2f) | %s\n", r.Agent, r.Source, r.Confidence, r.Reasoning)
	}
}

func (c *Console) printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		color.New(color.FgYellow).Fprintf(c.out, "unprintable result: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, truncate(string(data), maxResultChars))
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "\n..."
}
