// Package statsout writes per-worker solver statistics to CSV, entirely
// outside the solving core: internal/sat.Stats has no notion of files or
// rows, it is just counters a writer here reads after the fact.
package statsout

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/arborsat/cdsat/internal/portfolio"
)

var header = []string{
	"worker_id",
	"restarts",
	"clauses_learned",
	"propagations",
	"written_clauses",
	"transferred_clauses",
	"elapsed_seconds",
	"conflict_rate",
}

// WriteCSV appends one row per worker result to w, in worker-id order,
// preceded by a header row (spec.md §6's "CSV statistics output",
// explicitly outside the solver core).
func WriteCSV(w io.Writer, results []portfolio.WorkerResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("statsout: writing header: %w", err)
	}
	for _, r := range results {
		st := r.Stats
		row := []string{
			strconv.Itoa(r.WorkerID),
			strconv.FormatUint(st.Restarts, 10),
			strconv.FormatUint(st.ClausesLearned, 10),
			strconv.FormatUint(st.Propagations, 10),
			strconv.FormatUint(st.WrittenClauses, 10),
			strconv.FormatUint(st.TransferredClauses, 10),
			strconv.FormatFloat(st.Elapsed().Seconds(), 'f', 6, 64),
			strconv.FormatFloat(st.ConflictRate(), 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("statsout: writing row for worker %d: %w", r.WorkerID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("statsout: flushing: %w", err)
	}
	return nil
}

// WriteCSVFile creates (or truncates) path and writes the stats CSV to it.
func WriteCSVFile(path string, results []portfolio.WorkerResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("statsout: creating %q: %w", path, err)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
