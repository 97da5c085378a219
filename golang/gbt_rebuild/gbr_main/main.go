package main

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	configFile string
	memprofile string
)

var rootCmd = &cobra.Command{
	Use:   "gbr_main [command] (flags)",
	Short: "capture the trees of a boosted model and rebuild them into a new model",
	Long:  ``,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return writeMemProfile(memprofile)
	},
	SilenceUsage: true,
}

func writeMemProfile(filename string) (err error) {
	if filename == "" {
		return nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { err = errors.CombineErrors(err, f.Close()) }()
	runtime.GC()
	return errors.Wrap(pprof.WriteHeapProfile(f), "could not write memory profile")
}

func main() {
	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		rebuildCmd,
		predictCmd,
		graphCmd,
	)

	rootCmd.PersistentFlags().StringVar(
		&memprofile, "memprofile", "", "write memory profile to `file`")
	for _, cmd := range []*cobra.Command{rebuildCmd, predictCmd, graphCmd} {
		cmd.Flags().StringVarP(
			&configFile, "config", "c", "gbr_config.json", "a config file for the run of the program")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
