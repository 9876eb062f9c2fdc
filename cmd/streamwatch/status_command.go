package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"streamwatch/internal/snapshot"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline health and history window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			meta, err := snapshot.NewMetaStore(cfg.Paths.DataDir).Load()
			if err != nil {
				return fmt.Errorf("read meta document: %w", err)
			}
			out := cmd.OutOrStdout()
			if meta == nil {
				fmt.Fprintln(out, "No sync has run yet; start one with `streamwatch run --once`.")
				return nil
			}

			colors := shouldColorize(out)
			status := string(meta.LastSyncStatus)
			if meta.LastSyncStatus == snapshot.SyncOK {
				status = colorize(status, text.FgGreen, colors)
			} else {
				status = colorize(status, text.FgRed, colors)
			}

			rows := [][]string{
				{"Last sync", meta.LastSyncLocalISO},
				{"Status", status},
				{"Source updated (UTC)", meta.KworbLastUpdateUTC},
				{"Source day", meta.KworbDay},
				{"Business date", meta.SpotifyDataDate},
				{"Covers revision", meta.CoversRevision},
				{"Song history", strings.Join(meta.History.AvailableDates, ", ")},
				{"Album history", strings.Join(meta.History.AvailableDatesAlbum, ", ")},
			}
			if meta.LastError != "" {
				rows = append(rows, []string{"Last error", meta.LastError})
			}
			if stats := meta.SongsRoleStats; stats != nil {
				rows = append(rows,
					[]string{"Lead streams", fmt.Sprintf("%s total / %s daily",
						numberPrinter.Sprintf("%d", stats.LeadTotal), numberPrinter.Sprintf("%d", stats.LeadDaily))},
					[]string{"Feat streams", fmt.Sprintf("%s total / %s daily",
						numberPrinter.Sprintf("%d", stats.FeatTotal), numberPrinter.Sprintf("%d", stats.FeatDaily))})
			}

			fmt.Fprintln(out, renderTable([]column{{name: "Field"}, {name: "Value"}}, rows))
			return nil
		},
	}
}
