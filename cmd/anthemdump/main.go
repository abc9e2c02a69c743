// Command anthemdump is a thin CLI over the layout/graph/extract
// libraries: it owns a filesystem convention for locating the layout,
// TOC/SB and CAS files and a filesystem sink for extracted parts, but no
// format knowledge of its own (spec.md §1 excludes the driver from core
// scope).
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xyrin88/anthemtool/extract"
	"github.com/xyrin88/anthemtool/graph"
)

var (
	verbose bool
	workers int
)

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func runExtract(cmd *cobra.Command, args []string) error {
	root, outDir := args[0], args[1]
	log := newLogger()
	defer log.Sync()

	loader := &fsLoader{root: root}
	g, err := graph.Build(loader, log)
	if err != nil {
		return fmt.Errorf("building graph: %w", err)
	}

	casReader, err := newCASReader(g, root, log)
	if err != nil {
		return fmt.Errorf("opening cas reader: %w", err)
	}
	defer casReader.Close()

	sink := &fsSink{outDir: outDir}
	driver := extract.NewDriver(g, casReader, &extract.Options{
		Sink:    sink,
		Workers: workers,
		Log:     log,
	})

	summary, err := driver.Run(nil)
	if err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	log.Infof("extracted %d parts, skipped %d unavailable, %d failed",
		summary.Extracted, summary.SkippedUnavailable, summary.Failed)
	return nil
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "anthemdump",
		Short: "Extracts bundle content from a title's layout/TOC/SB/CAS tree",
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("anthemdump 0.1.0")
		},
	}

	var extractCmd = &cobra.Command{
		Use:   "extract <root> <out-dir>",
		Short: "Extracts every reachable part into out-dir",
		Args:  cobra.ExactArgs(2),
		RunE:  runExtract,
	}
	extractCmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "worker pool width")
	extractCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")

	rootCmd.AddCommand(versionCmd, extractCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
