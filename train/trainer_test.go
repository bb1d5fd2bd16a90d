package train_test

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jarrahkula/pix2pix/logger"
	"github.com/jarrahkula/pix2pix/train"
)

func testLogger(t *testing.T) *logger.CSVLogger {
	t.Helper()

	root, err := ioutil.TempDir("", "train")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	l, err := logger.NewCSVLogger(root, "test")
	require.NoError(t, err)

	return l
}

func TestNewTrainerRejectsBadConfig(t *testing.T) {
	log := testLogger(t)

	cfg := train.Default()
	cfg.Precision = "64"
	_, err := train.NewTrainer(cfg, log)
	require.Error(t, err)

	cfg = train.Default()
	cfg.Epochs = 0
	_, err = train.NewTrainer(cfg, log)
	require.Error(t, err)
}

func TestNewTrainerDefaults(t *testing.T) {
	log := testLogger(t)

	cfg := train.Default()
	require.Equal(t, 200, cfg.Epochs)
	require.Equal(t, "32", cfg.Precision)

	tr, err := train.NewTrainer(cfg, log)
	require.NoError(t, err)
	require.NotNil(t, tr.GenPath())
	require.NotNil(t, tr.DiscPath())

	// Half precision is the only other accepted setting.
	cfg.Precision = "16"
	_, err = train.NewTrainer(cfg, log)
	require.NoError(t, err)
}
