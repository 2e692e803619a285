package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dealhawk/cardmatch/internal/model"
)

var confusionKey string

var confusionCmd = &cobra.Command{
	Use:   "confusion",
	Short: "List confusion-memory records",
	Long: `Shows confirmed wrong matches per card number. Only the latest
record per (number key, wrong card) pair is listed; that is what biases
candidate selection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "confusion: init store")
		}
		defer st.Close() //nolint:errcheck

		var records []model.ConfusionRecord
		if confusionKey != "" {
			records, err = st.ListConfusionByKey(ctx, confusionKey)
		} else {
			records, err = st.ListConfusionRecords(ctx)
		}
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no confusion records")
			return nil
		}

		rows := make([][]string, 0, len(records))
		for _, rec := range records {
			correction := rec.CorrectCardID
			if correction == "" {
				correction = "-"
			}
			rows = append(rows, []string{
				rec.NumberKey,
				rec.WrongCardID,
				correction,
				string(rec.Reason),
				rec.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		fmt.Println(renderTable(
			[]string{"NUMBER", "WRONG CARD", "CORRECTION", "REASON", "RECORDED"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
		))
		return nil
	},
}

func init() {
	confusionCmd.Flags().StringVar(&confusionKey, "number", "", "filter by number key (e.g. 199 or swsh250)")
	rootCmd.AddCommand(confusionCmd)
}
