package testutil

import (
	"context"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/suite"
)

// Simulation lists the files of one fixture simulation folder
type Simulation map[string]string

// EnsembleSuite provides a temporary simulation ensemble for suite-based
// tests
type EnsembleSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	rootDir string
}

// SetupTest creates an empty ensemble root before each test
func (s *EnsembleSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
	s.rootDir = s.T().TempDir()
}

// TearDownTest cancels the test context
func (s *EnsembleSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Context returns the test context
func (s *EnsembleSuite) Context() context.Context {
	return s.ctx
}

// Root returns the ensemble directory
func (s *EnsembleSuite) Root() string {
	return s.rootDir
}

// AddSimulation writes a simulation folder with the given files and
// returns its path
func (s *EnsembleSuite) AddSimulation(name string, files Simulation) string {
	dir := filepath.Join(s.rootDir, name)
	for file, content := range files {
		WriteFile(s.T(), dir, file, content)
	}
	return dir
}

// InputFiles returns the SixTrack input files that make a folder a valid
// simulation
func InputFiles() Simulation {
	return Simulation{
		"fort.2": "SINGLE ELEMENTS---\n",
		"fort.3": "GEOME-STRENGTH TITLE\nENDE\n",
	}
}

// With returns a copy of s with extra files added
func (s Simulation) With(name, content string) Simulation {
	out := make(Simulation, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[name] = content
	return out
}
