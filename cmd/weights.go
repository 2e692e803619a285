package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dealhawk/cardmatch/internal/model"
)

var weightsLimit int

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "List persisted weight-set versions, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "weights: init store")
		}
		defer st.Close() //nolint:errcheck

		sets, err := st.ListWeightSets(ctx, weightsLimit)
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			fmt.Println("no calibrated weight sets; defaults are active")
			return nil
		}

		rows := make([][]string, 0, len(sets))
		for _, ws := range sets {
			row := []string{ws.Version, ws.CreatedAt.Format("2006-01-02 15:04")}
			for _, sig := range model.AllSignals() {
				row = append(row, strconv.FormatFloat(ws.Weights[sig], 'f', 3, 64))
			}
			rows = append(rows, row)
		}

		headers := []string{"VERSION", "CREATED"}
		aligns := []columnAlignment{alignLeft, alignLeft}
		for _, sig := range model.AllSignals() {
			headers = append(headers, string(sig))
			aligns = append(aligns, alignRight)
		}
		fmt.Println(renderTable(headers, rows, aligns))
		return nil
	},
}

func init() {
	weightsCmd.Flags().IntVar(&weightsLimit, "limit", 10, "max weight sets to list")
	rootCmd.AddCommand(weightsCmd)
}
