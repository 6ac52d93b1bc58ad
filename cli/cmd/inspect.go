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

// RecordSummary is one journal record in inspect output.
type RecordSummary struct {
	Seq       uint64 `json:"seq" yaml:"seq"`
	Ts        string `json:"ts" yaml:"ts"`
	Direction string `json:"direction" yaml:"direction"`
	Message   string `json:"message" yaml:"message"`
	Category  string `json:"category" yaml:"category"`
	Bytes     int    `json:"bytes" yaml:"bytes"`
}

// InspectResponse is the inspect command's payload.
type InspectResponse struct {
	Journal string          `json:"journal" yaml:"journal"`
	Records []RecordSummary `json:"records" yaml:"records"`
}

// Headers implements render.Tabular.
func (r InspectResponse) Headers() []string {
	return []string{"SEQ", "TS", "DIRECTION", "MESSAGE", "CATEGORY", "BYTES"}
}

// Rows implements render.Tabular.
func (r InspectResponse) Rows() [][]string {
	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, []string{
			fmt.Sprintf("%d", rec.Seq),
			rec.Ts,
			rec.Direction,
			rec.Message,
			rec.Category,
			fmt.Sprintf("%d", rec.Bytes),
		})
	}
	return rows
}

// InspectCommand returns the inspect command: a message-by-message view
// of one session journal.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "List the messages of a session journal",
		ArgsUsage: "<journal>",
		Flags:     TUIReadOnlyFlags(),
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("journal path required", 1)
	}
	path := c.Args().First()

	resp, err := loadInspect(path)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return tui.RunInspect("Journal "+path, resp.Headers(), resp.Rows())
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(resp)
}

func loadInspect(path string) (InspectResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return InspectResponse{}, fmt.Errorf("cannot open journal %q: %w", path, err)
	}
	defer iox.DiscardClose(f)

	recs, err := trace.ReadAll(f)
	if err != nil {
		return InspectResponse{}, fmt.Errorf("cannot read journal %q: %w", path, err)
	}

	resp := InspectResponse{Journal: path}
	for _, rec := range recs {
		resp.Records = append(resp.Records, RecordSummary{
			Seq:       rec.Seq,
			Ts:        rec.Ts.Format("15:04:05.000"),
			Direction: string(rec.Direction),
			Message:   rec.Label,
			Category:  rec.Category,
			Bytes:     len(rec.Raw),
		})
	}
	return resp, nil
}
