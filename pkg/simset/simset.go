// Package simset scans a folder of SixTrack simulation runs and loads the
// same dataset across all of them.
//
// Each sub-folder holding a fort.2 or fort.3 input file is a simulation.
// Every non-empty file in it that is not a SixTrack input file is a dataset.
package simset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/errors"
	"github.com/ajitpratap0/sttools/pkg/logger"
	"github.com/ajitpratap0/sttools/pkg/metrics"
)

// inputFiles are SixTrack input files, never datasets
var inputFiles = map[string]bool{
	"fort.2":  true,
	"fort.3":  true,
	"fort.8":  true,
	"fort.13": true,
	"fort.16": true,
}

// markerFiles make a folder a simulation; one is enough
var markerFiles = []string{"fort.2", "fort.3"}

// Aliases translate short dataset keys to collimation and aperture output
// file names
var Aliases = map[string]string{
	"aperture_losses": "aperture_losses.dat",
	"all_absorptions": "all_absorptions.dat",
	"all_impacts":     "all_impacts.dat",
	"coll_scatter":    "Coll_Scatter.dat",
	"coll_summary":    "coll_summary.dat",
	"dist0":           "dist0.dat",
	"distn":           "distn.dat",
	"efficiency":      "efficiency.dat",
	"efficiency_2d":   "efficiency_2d.dat",
	"efficiency_dpop": "efficiency_dpop.dat",
	"first_impacts":   "FirstImpacts.dat",
	"survival":        "survival.dat",
	"scatter_log":     "scatter_log.dat",
	"scatter_summary": "scatter_summary.dat",
}

// Simulation is one accepted simulation folder
type Simulation struct {
	Name string
	Path string
	// Files lists every regular file, sorted
	Files []string
	// Datasets lists the non-empty output files, sorted
	Datasets []string
}

// Has reports whether the simulation holds dataset
func (s *Simulation) Has(dataset string) bool {
	i := sort.SearchStrings(s.Datasets, dataset)
	return i < len(s.Datasets) && s.Datasets[i] == dataset
}

// Options controls scanning and loading
type Options struct {
	// LoadOnly restricts the scan to the named folders; empty means all
	LoadOnly []string
	// ForceAccept accepts folders without fort.2 and fort.3
	ForceAccept bool
	// Workers bounds concurrent loads in LoadAll; 0 means one per
	// simulation
	Workers int
	// Config supplies the loader settings; nil means config.Default()
	Config  *config.Config
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// OptionsFromConfig builds Options from the scan section of cfg
func OptionsFromConfig(cfg *config.Config, collector *metrics.Collector, log *zap.Logger) Options {
	return Options{
		LoadOnly:    cfg.Scan.LoadOnly,
		ForceAccept: cfg.Scan.ForceAccept,
		Workers:     cfg.Scan.Workers,
		Config:      cfg,
		Metrics:     collector,
		Logger:      log,
	}
}

// Set is a scanned simulation ensemble
type Set struct {
	root     string
	opts     Options
	log      *zap.Logger
	sims     []*Simulation
	byName   map[string]*Simulation
	datasets []string
}

// Scan lists the simulations below dir, sorted by folder name
func Scan(dir string, opts Options) (*Set, error) {
	log := logger.OrNop(opts.Logger)
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return nil, errors.New(errors.ErrorTypeNotFound, "simulation folder does not exist").
			WithDetail("dir", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot list simulation folder").
			WithDetail("dir", dir)
	}

	var loadOnly map[string]bool
	if len(opts.LoadOnly) > 0 {
		loadOnly = make(map[string]bool, len(opts.LoadOnly))
		for _, name := range opts.LoadOnly {
			loadOnly[name] = true
		}
	}

	set := &Set{
		root:   dir,
		opts:   opts,
		log:    log,
		byName: make(map[string]*Simulation),
	}
	seen := make(map[string]bool)

	log.Info("scanning simulations", zap.String("dir", dir))
	// os.ReadDir sorts by name, which orders the simulations
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		switch {
		case !e.IsDir():
			log.Debug("skipping entry", zap.String("entry", name), zap.String("status", "not a simulation"))
			continue
		case loadOnly != nil && !loadOnly[name]:
			log.Debug("skipping entry", zap.String("entry", name), zap.String("status", "ignored"))
			continue
		case !opts.ForceAccept && !hasMarker(path):
			log.Info("skipping entry", zap.String("entry", name), zap.String("status", "not sixtrack"))
			continue
		}

		sim, err := scanSimulation(name, path)
		if err != nil {
			return nil, err
		}
		set.sims = append(set.sims, sim)
		set.byName[name] = sim
		for _, ds := range sim.Datasets {
			if !seen[ds] {
				seen[ds] = true
				set.datasets = append(set.datasets, ds)
			}
		}
		log.Debug("simulation accepted", zap.String("simulation", name), zap.Int("datasets", len(sim.Datasets)))
	}

	sort.Strings(set.datasets)
	log.Info("scan complete", zap.String("dir", dir), zap.Int("simulations", len(set.sims)))
	return set, nil
}

func hasMarker(dir string) bool {
	for _, name := range markerFiles {
		if st, err := os.Stat(filepath.Join(dir, name)); err == nil && st.Mode().IsRegular() {
			return true
		}
	}
	return false
}

func scanSimulation(name, path string) (*Simulation, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot list simulation").
			WithDetail("simulation", name)
	}

	sim := &Simulation{Name: name, Path: path}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		sim.Files = append(sim.Files, e.Name())
		if inputFiles[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot stat dataset").
				WithDetail("simulation", name).
				WithDetail("file", e.Name())
		}
		if info.Size() == 0 {
			continue
		}
		sim.Datasets = append(sim.Datasets, e.Name())
	}
	return sim, nil
}

// Root returns the scanned folder
func (s *Set) Root() string { return s.root }

// Len returns the number of simulations
func (s *Set) Len() int { return len(s.sims) }

// Simulations returns the simulations in name order
func (s *Set) Simulations() []*Simulation {
	return append([]*Simulation(nil), s.sims...)
}

// Simulation returns a simulation by folder name
func (s *Set) Simulation(name string) (*Simulation, bool) {
	sim, ok := s.byName[name]
	return sim, ok
}

// Datasets returns the union of the datasets of all simulations, sorted
func (s *Set) Datasets() []string {
	return append([]string(nil), s.datasets...)
}

// Resolve maps a dataset key to a file name. Known file names resolve to
// themselves; otherwise the lower-cased key is looked up in Aliases.
func (s *Set) Resolve(key string) (string, bool) {
	i := sort.SearchStrings(s.datasets, key)
	if i < len(s.datasets) && s.datasets[i] == key {
		return key, true
	}
	name, ok := Aliases[strings.ToLower(key)]
	return name, ok
}
