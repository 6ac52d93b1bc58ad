package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/orogen-io/sideband/cli/render"
	"github.com/orogen-io/sideband/cli/tui"
	"github.com/orogen-io/sideband/iox"
	"github.com/orogen-io/sideband/trace"
)

// CategoryCount is one per-category tally in stats output.
type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// StatsResponse is the stats command's payload.
type StatsResponse struct {
	Journal    string          `json:"journal" yaml:"journal"`
	Records    int             `json:"records" yaml:"records"`
	Bytes      int             `json:"bytes" yaml:"bytes"`
	FromKernel int             `json:"from_kernel" yaml:"from_kernel"`
	FromHost   int             `json:"from_host" yaml:"from_host"`
	Categories []CategoryCount `json:"categories" yaml:"categories"`
}

// Headers implements render.Tabular.
func (r StatsResponse) Headers() []string {
	return []string{"CATEGORY", "COUNT"}
}

// Rows implements render.Tabular.
func (r StatsResponse) Rows() [][]string {
	rows := make([][]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		rows = append(rows, []string{c.Category, fmt.Sprintf("%d", c.Count)})
	}
	return rows
}

// StatsCommand returns the stats command: aggregated facts about one
// session journal.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show aggregated statistics for a session journal",
		ArgsUsage: "<journal>",
		Flags:     TUIReadOnlyFlags(),
		Action:    statsAction,
	}
}

func statsAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("journal path required", 1)
	}
	path := c.Args().First()

	resp, err := loadStats(path)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		stats := []tui.Stat{
			{Label: "records", Value: fmt.Sprintf("%d", resp.Records)},
			{Label: "bytes", Value: fmt.Sprintf("%d", resp.Bytes)},
			{Label: "from kernel", Value: fmt.Sprintf("%d", resp.FromKernel)},
			{Label: "from host", Value: fmt.Sprintf("%d", resp.FromHost)},
		}
		for _, cc := range resp.Categories {
			stats = append(stats, tui.Stat{Label: cc.Category, Value: fmt.Sprintf("%d", cc.Count)})
		}
		return tui.RunStats("Journal "+path, stats)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(resp)
}

func loadStats(path string) (StatsResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return StatsResponse{}, fmt.Errorf("cannot open journal %q: %w", path, err)
	}
	defer iox.DiscardClose(f)

	recs, err := trace.ReadAll(f)
	if err != nil {
		return StatsResponse{}, fmt.Errorf("cannot read journal %q: %w", path, err)
	}

	s := trace.Summarize(recs)
	resp := StatsResponse{
		Journal:    path,
		Records:    s.Records,
		Bytes:      s.Bytes,
		FromKernel: s.FromKernel,
		FromHost:   s.FromHost,
	}
	for _, name := range s.Categories() {
		resp.Categories = append(resp.Categories, CategoryCount{Category: name, Count: s.ByCategory[name]})
	}
	return resp, nil
}
