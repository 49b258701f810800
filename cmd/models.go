package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HartreeWorks/bestofn/internal/catalog"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogPath, _ := cmd.Flags().GetString("catalog")
		if catalogPath == "" {
			catalogPath = cfg.Catalog.Path
		}
		cat, err := catalog.Load(catalogPath)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tELIGIBLE\tNOTES")
		for _, m := range cat.Models {
			eligible := "yes"
			if !m.Eligible() {
				eligible = "no"
			}
			var notes []string
			if m.Reasoning {
				notes = append(notes, "reasoning")
			}
			if m.Slow {
				notes = append(notes, "slow")
			}
			if m.DeepResearch {
				notes = append(notes, "async deep research")
			}
			if m.BrowserOnly {
				notes = append(notes, "browser only")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				m.ID, m.DisplayName, m.Provider, eligible, strings.Join(notes, ", "))
		}
		return w.Flush()
	},
}

func init() {
	modelsCmd.Flags().String("catalog", "", "model catalog YAML overriding the built-in catalog")
	rootCmd.AddCommand(modelsCmd)
}
