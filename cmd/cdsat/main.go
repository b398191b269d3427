// Command cdsat solves DIMACS CNF instances with a concurrent portfolio of
// CDCL solver workers.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arborsat/cdsat/internal/dimacs"
	"github.com/arborsat/cdsat/internal/portfolio"
	"github.com/arborsat/cdsat/internal/sat"
	"github.com/arborsat/cdsat/internal/statsout"
)

var log = logrus.New()

type flags struct {
	workers    int
	timeout    time.Duration
	statsCSV   string
	cpuProfile string
	memProfile string
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "cdsat <instance.cnf> [instance2.cnf ...]",
		Short: "Solve DIMACS CNF instances with a concurrent CDCL portfolio",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f, args)
		},
	}

	cmd.Flags().IntVar(&f.workers, "workers", portfolio.DefaultWorkerCount(), "number of portfolio workers (1 disables parallel search)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "abort before solving starts if this duration has already elapsed since the process began (0 disables)")
	cmd.Flags().StringVar(&f.statsCSV, "stats-csv", "", "write per-worker statistics to this CSV file (created or truncated)")
	cmd.Flags().StringVar(&f.cpuProfile, "cpuprofile", "", "write a pprof CPU profile to this file")
	cmd.Flags().StringVar(&f.memProfile, "memprofile", "", "write a pprof heap profile to this file")

	return cmd
}

func run(f *flags, paths []string) error {
	if f.cpuProfile != "" {
		pf, err := os.Create(f.cpuProfile)
		if err != nil {
			return fmt.Errorf("cdsat: creating CPU profile: %w", err)
		}
		defer pf.Close()
		if err := pprof.StartCPUProfile(pf); err != nil {
			return fmt.Errorf("cdsat: starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	ctx := context.Background()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var allResults []portfolio.WorkerResult
	for _, path := range paths {
		if err := solveOne(ctx, f, path, &allResults); err != nil {
			log.WithField("instance", path).WithError(err).Error("solve failed")
			return err
		}
	}

	if f.statsCSV != "" {
		if err := statsout.WriteCSVFile(f.statsCSV, allResults); err != nil {
			return fmt.Errorf("cdsat: writing stats CSV: %w", err)
		}
	}

	if f.memProfile != "" {
		mf, err := os.Create(f.memProfile)
		if err != nil {
			return fmt.Errorf("cdsat: creating heap profile: %w", err)
		}
		defer mf.Close()
		if err := pprof.WriteHeapProfile(mf); err != nil {
			return fmt.Errorf("cdsat: writing heap profile: %w", err)
		}
	}

	return nil
}

func solveOne(ctx context.Context, f *flags, path string, allResults *[]portfolio.WorkerResult) error {
	gzipped := strings.HasSuffix(path, ".gz")
	root, err := dimacs.Load(path, gzipped, sat.DefaultOptions)
	if err != nil {
		return fmt.Errorf("cdsat: loading %q: %w", path, err)
	}

	p := portfolio.New(root, f.workers)
	result, model, results, err := portfolio.Run(ctx, p)
	if err != nil {
		return fmt.Errorf("cdsat: solving %q: %w", path, err)
	}
	*allResults = append(*allResults, results...)

	switch result {
	case sat.True:
		fmt.Printf("%s SAT\n", path)
		fmt.Println(formatModel(model))
	case sat.False:
		fmt.Printf("%s UNSAT\n", path)
	default:
		return fmt.Errorf("cdsat: %q: solver returned no result", path)
	}
	return nil
}

// formatModel renders a satisfying assignment as a conjunction of literals,
// one per 1-based variable, e.g. "1 & !2 & 3" (spec.md §6).
func formatModel(model []bool) string {
	parts := make([]string, len(model))
	for v, b := range model {
		if b {
			parts[v] = fmt.Sprintf("%d", v+1)
		} else {
			parts[v] = fmt.Sprintf("!%d", v+1)
		}
	}
	return strings.Join(parts, " & ")
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("cdsat failed")
		os.Exit(1)
	}
}
