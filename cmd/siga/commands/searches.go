package commands

import (
	"fmt"
	"io"
	"os"

	"sigawatch/internal/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(searchesCmd)
}

func renderSearches(out io.Writer, searches []config.Search) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Title", "Entity", "Service", "Location", "Max days", "Window", "Every"})

	for _, s := range searches {
		location := fmt.Sprintf("%d/%d", s.Location.Distrito, s.Location.Localidade)
		if s.HasServiceDesk() {
			location += "/" + s.Location.LocalAtendimento.String()
		}
		t.AppendRow(table.Row{
			s.Title,
			s.EntityOpt,
			fmt.Sprintf("%d/%d/%d", s.Service.Tema, s.Service.Subtema, s.Service.Motivo),
			location,
			s.MaxDays,
			fmt.Sprintf("%s-%s", s.StartTime, s.EndTime),
			fmt.Sprintf("%dm", s.Frequency),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

var searchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "Prints the valid searches of the search file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		renderSearches(os.Stdout, a.searches)
		return nil
	},
}
