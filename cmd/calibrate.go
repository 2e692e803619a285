package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/calibrate"
	"github.com/dealhawk/cardmatch/internal/model"
	"github.com/dealhawk/cardmatch/internal/score"
)

var calibrateJSON bool

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Tune signal weights from reviewed match outcomes",
	Long: `Loads the reviewed-match corpus, proposes a new weight set and
applies it only when classification accuracy at the decision threshold
improves. A file lock guarantees a single calibration run at a time.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := interruptContext(cmd.Context())
		defer stop()

		lock := flock.New(cfg.Calibrate.LockFile)
		ok, err := lock.TryLock()
		if err != nil {
			return eris.Wrap(err, "calibrate: acquire lock")
		}
		if !ok {
			return eris.New("calibrate: another calibration run is in progress")
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				zap.L().Warn("calibrate: release lock", zap.Error(err))
			}
		}()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "calibrate: init store")
		}
		defer st.Close() //nolint:errcheck

		active, err := st.ActiveWeightSet(ctx)
		if err != nil {
			return eris.Wrap(err, "calibrate: load active weight set")
		}
		holder := score.NewHolder(active)

		report, err := calibrate.New(st, st, holder, cfg.Calibrate).Run(ctx)
		if err != nil {
			return err
		}

		if calibrateJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printCalibrationReport(report)
		return nil
	},
}

func init() {
	calibrateCmd.Flags().BoolVar(&calibrateJSON, "json", false, "emit the full report as JSON")
	rootCmd.AddCommand(calibrateCmd)
}

func printCalibrationReport(report *calibrate.Report) {
	status := "not applied"
	if report.Applied {
		status = "applied"
	}
	fmt.Printf("calibration %s: %s\n", status, report.Reason)
	fmt.Printf("corpus: %d reviewed (%d incorrect)\n", report.SampleSize, report.IncorrectCount)
	if report.AccuracyBefore > 0 || report.AccuracyAfter > 0 {
		fmt.Printf("accuracy: %.4f -> %.4f\n", report.AccuracyBefore, report.AccuracyAfter)
	}
	if report.NewWeights == nil {
		return
	}

	rows := make([][]string, 0, len(model.AllSignals()))
	for _, sig := range model.AllSignals() {
		row := []string{
			string(sig),
			strconv.FormatFloat(report.OldWeights[sig], 'f', 3, 64),
			strconv.FormatFloat(report.NewWeights[sig], 'f', 3, 64),
		}
		if stats, ok := report.Stats[sig]; ok {
			row = append(row, strconv.FormatFloat(stats.Separation, 'f', 3, 64))
		} else {
			row = append(row, "-")
		}
		rows = append(rows, row)
	}
	fmt.Println(renderTable(
		[]string{"SIGNAL", "OLD", "NEW", "SEPARATION"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
}
