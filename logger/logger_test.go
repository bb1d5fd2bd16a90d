package logger_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/require"

	"github.com/jarrahkula/pix2pix/logger"
)

func tempRoot(t *testing.T) string {
	t.Helper()

	root, err := ioutil.TempDir("", "logs")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	return root
}

func TestVersionedRunDirs(t *testing.T) {
	root := tempRoot(t)

	l0, err := logger.NewCSVLogger(root, "facades")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "facades", "version_0"), l0.Dir())

	l1, err := logger.NewCSVLogger(root, "facades")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "facades", "version_1"), l1.Dir())

	// A different run name starts at version_0 again.
	other, err := logger.NewCSVLogger(root, "maps")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "maps", "version_0"), other.Dir())
}

func TestLogWritesCSV(t *testing.T) {
	root := tempRoot(t)

	l, err := logger.NewCSVLogger(root, "run")
	require.NoError(t, err)

	require.NoError(t, l.Log(logger.Row{Epoch: 0, GenLoss: 1.5, DiscLoss: 0.7}))
	require.NoError(t, l.Log(logger.Row{Epoch: 1, GenLoss: 1.2, DiscLoss: 0.6, ValL1: 0.4, ValPSNR: 12}))

	f, err := os.Open(filepath.Join(l.Dir(), "metrics.csv"))
	require.NoError(t, err)
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	require.NoError(t, df.Err)
	require.Equal(t, 2, df.Nrow())
	require.Equal(t, []string{"epoch", "gen_loss", "disc_loss", "val_l1", "val_psnr"}, df.Names())

	gen := df.Col("gen_loss").Float()
	require.InDelta(t, 1.5, gen[0], 1e-6)
	require.InDelta(t, 1.2, gen[1], 1e-6)
}

func TestSaveHparams(t *testing.T) {
	root := tempRoot(t)

	l, err := logger.NewCSVLogger(root, "run")
	require.NoError(t, err)

	require.NoError(t, l.SaveHparams(map[string]interface{}{"l1_lambda": 50}))

	buf, err := ioutil.ReadFile(filepath.Join(l.Dir(), "hparams.json"))
	require.NoError(t, err)
	require.Contains(t, string(buf), "l1_lambda")
}

func TestPlotLoss(t *testing.T) {
	root := tempRoot(t)

	l, err := logger.NewCSVLogger(root, "run")
	require.NoError(t, err)

	// Nothing logged yet: no plot, no error.
	require.NoError(t, l.PlotLoss())
	_, err = os.Stat(filepath.Join(l.Dir(), "loss.png"))
	require.True(t, os.IsNotExist(err))

	require.NoError(t, l.Log(logger.Row{Epoch: 0, GenLoss: 2, DiscLoss: 1}))
	require.NoError(t, l.Log(logger.Row{Epoch: 1, GenLoss: 1, DiscLoss: 0.5}))
	require.NoError(t, l.PlotLoss())

	info, err := os.Stat(filepath.Join(l.Dir(), "loss.png"))
	require.NoError(t, err)
	require.True(t, info.Size() > 0)
}
