package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/service"
)

var (
	slateSeason   int
	slateWeek     int
	slateLine     string
	qualifiedOnly bool
	jsonOutput    bool
)

func init() {
	ratingsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")

	edgesCmd.Flags().IntVar(&slateSeason, "season", 0, "Season of the slate")
	edgesCmd.Flags().IntVar(&slateWeek, "week", 0, "Week of the slate")
	edgesCmd.Flags().StringVar(&slateLine, "line", string(models.SelectLatest), "Market line to compare against (open, midweek, closing, latest)")
	edgesCmd.Flags().BoolVar(&qualifiedOnly, "qualified", false, "Only print qualifying edges")
	edgesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	_ = edgesCmd.MarkFlagRequired("season")
	_ = edgesCmd.MarkFlagRequired("week")
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Replay all completed games and print current team ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newLiveService(cmd.Context(), models.SelectLatest)
		if err != nil {
			return err
		}
		ratings, err := svc.Ratings()
		if err != nil {
			return err
		}

		type row struct {
			Team   string  `json:"team"`
			Rating float64 `json:"rating"`
		}
		rows := make([]row, 0, len(ratings))
		for team, r := range ratings {
			rows = append(rows, row{Team: team, Rating: r})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Rating != rows[j].Rating {
				return rows[i].Rating > rows[j].Rating
			}
			return rows[i].Team < rows[j].Team
		})

		if jsonOutput {
			return printJSON(rows)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tTEAM\tRATING")
		for i, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%.1f\n", i+1, r.Team, r.Rating)
		}
		return w.Flush()
	},
}

var edgesCmd = &cobra.Command{
	Use:   "edges",
	Short: "Project a week's games and rank them by edge against the market",
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, err := models.ParseLineSelector(slateLine)
		if err != nil {
			return err
		}
		svc, err := newLiveService(cmd.Context(), selector)
		if err != nil {
			return err
		}
		edges, err := svc.Edges(cmd.Context(), slateSeason, slateWeek)
		if err != nil {
			return err
		}
		if qualifiedOnly {
			kept := edges[:0]
			for _, e := range edges {
				if e.Qualifies {
					kept = append(kept, e)
				}
			}
			edges = kept
		}

		if jsonOutput {
			return printJSON(edges)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GAME\tAWAY @ HOME\tMARKET\tMODEL\tEDGE\tEFFECTIVE\tSIDE\tVERDICT")
		for _, e := range edges {
			fmt.Fprintf(w, "%s\t%s @ %s\t%+.1f\t%+.1f\t%+.2f\t%+.2f\t%s\t%s\n",
				e.GameID, e.AwayTeamID, e.HomeTeamID, e.MarketSpreadHome, e.ModelSpreadHome,
				e.Edge, e.EffectiveEdge, e.Side, e.Reason)
		}
		return w.Flush()
	},
}

func newLiveService(ctx context.Context, selector models.LineSelector) (*service.LiveService, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := service.NewLiveService(store, service.Options{
		Params:   cfg.ModelParams(),
		BetLine:  selector,
		CacheTTL: cfg.Serve.CacheTTL,
	}, appLog)
	if err != nil {
		return nil, err
	}
	if err := svc.Refresh(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
