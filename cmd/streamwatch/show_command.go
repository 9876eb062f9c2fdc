package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"streamwatch/internal/fileutil"
	"streamwatch/internal/views"
)

var numberPrinter = message.NewPrinter(language.English)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:       "show {songs|albums}",
		Short:     "Display the current view for an entity class",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"songs", "albums"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			class := args[0]
			if class != "songs" && class != "albums" {
				return fmt.Errorf("unknown entity class %q (want songs or albums)", class)
			}

			path := filepath.Join(cfg.Paths.DataDir, class+".json")
			var entities []views.Entity
			if err := fileutil.ReadJSON(path, &entities); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("no %s view yet; run `streamwatch run --once` first", class)
				}
				return fmt.Errorf("read %s view: %w", class, err)
			}

			if limit > 0 && limit < len(entities) {
				entities = entities[:limit]
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderViewTable(entities))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to display (0 = all)")
	return cmd
}

func renderViewTable(entities []views.Entity) string {
	columns := []column{
		{name: "Rank", numeric: true},
		{name: "Mv", numeric: true},
		{name: "Title"},
		{name: "Streams", numeric: true},
		{name: "Daily", numeric: true},
		{name: "Var %", numeric: true},
		{name: "Next Cap", numeric: true},
		{name: "Days", numeric: true},
	}

	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Rank),
			movement(e.RankDelta),
			e.Title,
			numberPrinter.Sprintf("%d", e.StreamsTotal),
			numberPrinter.Sprintf("%d", e.StreamsDaily),
			e.VariationPct.String(),
			numberPrinter.Sprintf("%d", e.NextCapValue),
			e.DaysToNextCap.String(),
		})
	}
	return renderTable(columns, rows)
}

// movement renders a rank delta as its badge form: +N climbed, -N dropped,
// = held, blank when there is no previous rank to compare against.
func movement(delta *int) string {
	switch {
	case delta == nil:
		return ""
	case *delta > 0:
		return fmt.Sprintf("+%d", *delta)
	case *delta < 0:
		return fmt.Sprintf("%d", *delta)
	default:
		return "="
	}
}
