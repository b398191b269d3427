// Package dimacs loads a DIMACS CNF instance into a ready-to-solve
// *sat.Solver, on top of the real github.com/rhartert/dimacs parser.
package dimacs

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	rdimacs "github.com/rhartert/dimacs"

	"github.com/arborsat/cdsat/internal/sat"
)

// solverBuilder adapts rdimacs.Builder to populate a *sat.Solver: it
// cannot construct the solver until the problem line gives it a variable
// count, and rdimacs.Builder.Clause has no error return, so an AddClause
// failure is stashed and surfaced by Load/LoadReader after ReadBuilder
// returns. It also tracks the highest variable index actually seen in the
// clause data so LoadReader can check it against the declared count
// (spec.md §6: "the loader must verify that the highest variable seen
// equals max_var and fail otherwise").
type solverBuilder struct {
	opts    sat.Options
	nVars   int
	maxSeen int
	solver  *sat.Solver
	err     error
}

func (b *solverBuilder) Problem(nVars, nClauses int) {
	b.nVars = nVars
	b.solver = sat.NewSolver(nVars, b.opts)
}

func (b *solverBuilder) Clause(tmpClause []int) {
	if b.err != nil {
		return
	}
	lits := make([]sat.Literal, len(tmpClause))
	for i, l := range tmpClause {
		var v int
		switch {
		case l < 0:
			v = -l - 1
			lits[i] = sat.NegativeLiteral(v)
		case l > 0:
			v = l - 1
			lits[i] = sat.PositiveLiteral(v)
		default:
			b.err = fmt.Errorf("dimacs: literal 0 inside clause")
			return
		}
		if v+1 > b.maxSeen {
			b.maxSeen = v + 1
		}
		if v >= b.nVars {
			b.err = fmt.Errorf("dimacs: variable %d exceeds declared count %d", v+1, b.nVars)
			return
		}
	}
	if err := b.solver.AddClause(lits); err != nil {
		b.err = err
	}
}

func (b *solverBuilder) Comment(string) {} // ignore comments, per the parser's own idiom

// LoadReader parses a DIMACS CNF stream and returns a Solver with every
// clause already installed, ready for Portfolio.New.
func LoadReader(r io.Reader, opts sat.Options) (*sat.Solver, error) {
	b := &solverBuilder{opts: opts}
	if err := rdimacs.ReadBuilder(r, b); err != nil {
		return nil, fmt.Errorf("dimacs: %w", err)
	}
	if b.solver == nil {
		return nil, fmt.Errorf("dimacs: no problem line found")
	}
	if b.err != nil {
		return nil, fmt.Errorf("dimacs: %w", b.err)
	}
	if b.maxSeen != b.nVars {
		return nil, fmt.Errorf("dimacs: highest variable seen (%d) does not match declared count (%d)", b.maxSeen, b.nVars)
	}
	return b.solver, nil
}

// Load opens filename (transparently gunzipping it if gzipped is true) and
// parses it into a Solver.
func Load(filename string, gzipped bool, opts sat.Options) (*sat.Solver, error) {
	r, err := openReader(filename, gzipped)
	if err != nil {
		return nil, fmt.Errorf("dimacs: opening %q: %w", filename, err)
	}
	defer r.Close()

	s, err := LoadReader(r, opts)
	if err != nil {
		return nil, fmt.Errorf("%w (file %q)", err, filename)
	}
	return s, nil
}

func openReader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			file.Close()
			return nil, err
		}
	}
	return rc, nil
}
