package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HartreeWorks/bestofn/internal/catalog"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the presets in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogPath, _ := cmd.Flags().GetString("catalog")
		if catalogPath == "" {
			catalogPath = cfg.Catalog.Path
		}
		cat, err := catalog.Load(catalogPath)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(cat.Presets))
		for name := range cat.Presets {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMODELS\tSAMPLES\tTEMPERATURE\tMODE")
		for _, name := range names {
			p := cat.Presets[name]

			temp := "default"
			if p.Range != nil {
				temp = fmt.Sprintf("%.2f–%.2f", p.Range.Low, p.Range.High)
			} else if p.Temperature > 0 {
				temp = fmt.Sprintf("%.2f", p.Temperature)
			}

			mode := "selection"
			if p.Brainstorm {
				mode = "brainstorm"
			}

			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				name, strings.Join(p.Models, ","), p.Samples, temp, mode)
		}
		return w.Flush()
	},
}

func init() {
	presetsCmd.Flags().String("catalog", "", "model catalog YAML overriding the built-in catalog")
	rootCmd.AddCommand(presetsCmd)
}
