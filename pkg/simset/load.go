package simset

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/sttools/pkg/columnar"
	"github.com/ajitpratap0/sttools/pkg/compression"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/formats"
	"github.com/ajitpratap0/sttools/pkg/formats/dump"
	"github.com/ajitpratap0/sttools/pkg/metrics"
	"github.com/ajitpratap0/sttools/pkg/observability"
)

// distColumns names the columns of the collimation particle distributions
var distColumns = map[string]string{
	"0": "X",
	"1": "XP",
	"2": "Y",
	"3": "YP",
	"4": "S",
	"5": "P",
}

// ColumnMaps lists the per-dataset column renames applied by Load. Files in
// ColumnMaps may come without a header line; their columns are then
// numbered from 0 before renaming.
var ColumnMaps = map[string]map[string]string{
	"dist0.dat": distColumns,
	"distn.dat": distColumns,
}

// Result is one table of a LoadAll call
type Result struct {
	Simulation string
	Table      *columnar.Table
}

// Load reads dataset from the named simulation. dataset may be a file name
// or an alias.
func (s *Set) Load(ctx context.Context, simulation, dataset string) (*columnar.Table, error) {
	sim, ok := s.byName[simulation]
	if !ok {
		return nil, errors.New(errors.ErrorTypeNotFound, "unknown simulation").
			WithDetail("simulation", simulation)
	}
	name, ok := s.Resolve(dataset)
	if !ok || !sim.Has(name) {
		return nil, errors.New(errors.ErrorTypeNotFound, "dataset not in simulation").
			WithDetail("simulation", simulation).
			WithDetail("dataset", dataset)
	}
	return s.load(ctx, sim, name)
}

// LoadAll reads dataset from every simulation holding it, at most workers
// at a time. workers <= 0 falls back to Options.Workers, then to one per
// simulation. Results are in simulation order; the first error cancels the
// remaining loads.
func (s *Set) LoadAll(ctx context.Context, dataset string, workers int) ([]Result, error) {
	name, ok := s.Resolve(dataset)
	if !ok {
		return nil, errors.New(errors.ErrorTypeNotFound, "unknown dataset").
			WithDetail("dataset", dataset)
	}

	var sims []*Simulation
	for _, sim := range s.sims {
		if sim.Has(name) {
			sims = append(sims, sim)
		} else {
			s.log.Debug("dataset missing, skipping simulation",
				zap.String("simulation", sim.Name), zap.String("dataset", name))
		}
	}

	if workers <= 0 {
		workers = s.opts.Workers
	}
	if workers <= 0 {
		workers = len(sims)
	}

	results := make([]Result, len(sims))
	err := observability.Trace(ctx, "sttools.load_all", func(ctx context.Context, span *observability.Span) error {
		g, ctx := errgroup.WithContext(ctx)
		if workers > 0 {
			g.SetLimit(workers)
		}
		for i, sim := range sims {
			i, sim := i, sim
			g.Go(func() error {
				table, err := s.load(ctx, sim, name)
				if err != nil {
					return err
				}
				results[i] = Result{Simulation: sim.Name, Table: table}
				return nil
			})
		}
		span.SetAttribute("simulations", len(sims))
		span.SetAttribute("workers", workers)
		return g.Wait()
	}, attribute.String("dataset", name))
	if err != nil {
		return nil, err
	}

	s.log.Info("dataset loaded from ensemble",
		zap.String("dataset", name),
		zap.Int("simulations", len(results)),
		zap.Int("workers", workers))
	return results, nil
}

func (s *Set) load(ctx context.Context, sim *Simulation, name string) (*columnar.Table, error) {
	path := filepath.Join(sim.Path, name)
	log := s.log.With(zap.String("simulation", sim.Name), zap.String("dataset", name))

	remap, ok := ColumnMaps[name]
	if !ok {
		log.Debug("not remapping columns")
		return formats.Load(ctx, path, formats.Options{
			Config:  s.opts.Config,
			Metrics: s.opts.Metrics,
			Logger:  log,
		})
	}

	table, err := s.loadNumbered(ctx, path, log)
	if err != nil {
		return nil, err
	}
	log.Debug("remapping columns", zap.Any("columns", remap))
	return table.RenameColumns(remap)
}

// loadNumbered reads a dump file that may lack a header line
func (s *Set) loadNumbered(ctx context.Context, path string, log *zap.Logger) (*columnar.Table, error) {
	timer := metrics.NewTimer()
	table, err := s.parseNumbered(ctx, path, log)

	rows, skipped := 0, 0
	if table != nil {
		rows, skipped = table.Rows(), table.Skipped()
	}
	s.opts.Metrics.FileLoaded(string(formats.FormatDump), rows, skipped, timer.Stop(), err)
	return table, err
}

func (s *Set) parseNumbered(ctx context.Context, path string, log *zap.Logger) (*columnar.Table, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the directory scan
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "file not found").
				WithDetail("file", path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("file", path)
	}
	defer f.Close()

	dec, err := compression.NewReader(f, compression.FromExtension(path))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open compressed stream").
			WithDetail("file", path)
	}
	defer dec.Close()

	cfg := s.opts.Config.Dump
	br := bufio.NewReader(dec)
	var consumed strings.Builder
	for {
		line, err := br.ReadString('\n')
		consumed.WriteString(line)
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed != "" {
			if !cfg.IsComment(trimmed) {
				header := numberedHeader(cfg.CommentMarkers, len(strings.Fields(trimmed)))
				log.Debug("no header line, numbering columns", zap.String("header", strings.TrimSpace(header)))
				consumed.Reset()
				consumed.WriteString(header)
				consumed.WriteString(line)
			}
			break
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read file").
				WithDetail("file", path)
		}
	}

	src := io.MultiReader(strings.NewReader(consumed.String()), br)
	return dump.Parse(ctx, path, src, cfg, log)
}

// numberedHeader returns a header line naming n columns 0 to n-1
func numberedHeader(markers string, n int) string {
	marker := "#"
	if markers != "" {
		marker = markers[:1]
	}
	var b strings.Builder
	b.WriteString(marker)
	for i := 0; i < n; i++ {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(i))
	}
	b.WriteByte('\n')
	return b.String()
}
