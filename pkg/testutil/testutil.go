// Package testutil provides testing utilities and file fixtures for sttools
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/sttools/pkg/compression"
)

// DumpScenario is a dump file with ID:int, TURN:int, X:float and six rows:
// particles 1 to 3 on turns 1 and 2.
const DumpScenario = `# DUMP, bez = IP5, number of particles = 3
# ID TURN X[mm]
1 1 0.1
2 1 0.2
3 1 0.3
1 2 1.1
2 2 1.2
3 2 1.3
`

// TFSScenario is a small MadX twiss table
const TFSScenario = `@ NAME             %05s "TWISS"
@ TYPE             %05s "TWISS"
@ LENGTH           %le   100.0
@ NPART            %d    2
* NAME             KEYWORD  S        BETX    MU1
$ %s               %s       %le      %le     %d
 "IP1"             "MARKER"  0.0      0.55    0
 "MQ.1R1"          "QUADRUPOLE" 10.0  120.5   0
 "MQ.2R1"          "QUADRUPOLE" 20.0  30.25   1
 "IP5"             "MARKER"  50.0     0.55    1
 "MQ.1R5"          "QUADRUPOLE" 60.0  110.0   1
`

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// WriteFile writes content to dir/name, compressing it when the name has
// a compression extension, and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	data := []byte(content)
	if alg := compression.FromExtension(name); alg != compression.None {
		var err error
		data, err = compression.Compress(data, alg, compression.Default)
		require.NoError(t, err, "compress fixture %s", name)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600), "write fixture %s", name)
	return path
}
