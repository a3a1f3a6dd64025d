package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachevis/insts"
	"github.com/sarchlab/cachevis/replay"
)

var runCmd = &cobra.Command{
	Use:   "run <tracefile>",
	Short: "Replay an instruction trace and print the hit/miss results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := newModel(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		program, err := insts.ParseProgram(f)
		if err != nil {
			return err
		}

		replayer := replay.NewReplayer(model)

		recordPath, _ := cmd.Flags().GetString("record")
		if recordPath != "" {
			replayer.WithRecorder(replay.NewRecorder(recordPath))
		}

		results, err := replayer.Run(program)

		for i, r := range results {
			line := fmt.Sprintf("%4d  %-20s %-4s line %d",
				r.Step, program[i], r.Outcome, r.LineIndex)
			if r.Evicted {
				line += fmt.Sprintf("  evicted tag %d", r.EvictedTag)
			}
			fmt.Println(line)
		}

		if err != nil {
			return err
		}

		stats := model.Snapshot().Stats
		fmt.Printf("\n%d accesses, %d hits, %d misses, %d evictions\n",
			stats.Accesses, stats.Hits, stats.Misses, stats.Evictions)

		atexit.Exit(0)

		return nil
	},
}

func init() {
	runCmd.Flags().String("record", "",
		"record the access trace into a SQLite database at this path")

	rootCmd.AddCommand(runCmd)
}
