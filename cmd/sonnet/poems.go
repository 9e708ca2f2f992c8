package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/symbiotic-sonnet/internal/render"
)

var poemsLimit int

var poemsCmd = &cobra.Command{
	Use:   "poems",
	Short: "Browse archived poems",
}

var poemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent poems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		poems, err := newAPIClient().ListPoems(cmd.Context(), poemsLimit)
		if err != nil {
			return err
		}

		term := render.NewTerminal(cmd.OutOrStdout())
		if len(poems) == 0 {
			term.Println("no poems yet")
			return nil
		}
		for _, p := range poems {
			first := ""
			if len(p.Lines) > 0 {
				first = p.Lines[0].Line
			}
			term.Println(fmt.Sprintf("%s  %s  %-16s %s",
				p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"), p.Theme, first))
		}
		return nil
	},
}

var poemsShowCmd = &cobra.Command{
	Use:   "show [poem-id]",
	Short: "Print one archived poem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newAPIClient().GetPoem(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		term := render.NewTerminal(cmd.OutOrStdout())
		term.Println(term.Poem(p.Theme, p.Lines))
		return nil
	},
}

func init() {
	poemsListCmd.Flags().IntVarP(&poemsLimit, "limit", "n", 20, "Maximum number of poems")

	poemsCmd.AddCommand(poemsListCmd)
	poemsCmd.AddCommand(poemsShowCmd)
}
