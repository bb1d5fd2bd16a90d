// Package logger persists per-run training metrics in a versioned directory
// tree: <root>/<run-name>/version_<n>/metrics.csv, with hyperparameters and
// a rendered loss curve beside it.
package logger

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Row is one epoch of logged metrics.
type Row struct {
	Epoch    int
	GenLoss  float64
	DiscLoss float64
	ValL1    float64
	ValPSNR  float64
}

// CSVLogger accumulates metric rows and writes them as CSV through gota.
type CSVLogger struct {
	dir  string
	rows []Row
}

// NewCSVLogger creates the next version directory for a run name.
func NewCSVLogger(root, name string) (*CSVLogger, error) {
	runDir := filepath.Join(root, name)
	version, err := nextVersion(runDir)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(runDir, fmt.Sprintf("version_%v", version))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &CSVLogger{dir: dir}, nil
}

// Dir returns the run's version directory.
func (l *CSVLogger) Dir() string {
	return l.dir
}

// Log appends one epoch row and rewrites metrics.csv.
func (l *CSVLogger) Log(row Row) error {
	l.rows = append(l.rows, row)

	records := [][]string{
		{"epoch", "gen_loss", "disc_loss", "val_l1", "val_psnr"},
	}
	for _, r := range l.rows {
		records = append(records, []string{
			strconv.Itoa(r.Epoch),
			strconv.FormatFloat(r.GenLoss, 'f', 6, 64),
			strconv.FormatFloat(r.DiscLoss, 'f', 6, 64),
			strconv.FormatFloat(r.ValL1, 'f', 6, 64),
			strconv.FormatFloat(r.ValPSNR, 'f', 6, 64),
		})
	}

	df := dataframe.LoadRecords(records)
	if df.Err != nil {
		return df.Err
	}

	f, err := os.Create(filepath.Join(l.dir, "metrics.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	return df.WriteCSV(f)
}

// SaveHparams writes the run's hyperparameters as JSON.
func (l *CSVLogger) SaveHparams(hparams interface{}) error {
	buf, err := json.MarshalIndent(hparams, "", "  ")
	if err != nil {
		return err
	}

	return ioutil.WriteFile(filepath.Join(l.dir, "hparams.json"), buf, 0644)
}

// PlotLoss renders generator and discriminator loss curves to loss.png.
func (l *CSVLogger) PlotLoss() error {
	if len(l.rows) == 0 {
		return nil
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Training loss"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "loss"

	gen := make(plotter.XYs, len(l.rows))
	disc := make(plotter.XYs, len(l.rows))
	for i, r := range l.rows {
		gen[i].X = float64(r.Epoch)
		gen[i].Y = r.GenLoss
		disc[i].X = float64(r.Epoch)
		disc[i].Y = r.DiscLoss
	}

	genLine, err := plotter.NewLine(gen)
	if err != nil {
		return err
	}
	discLine, err := plotter.NewLine(disc)
	if err != nil {
		return err
	}
	p.Add(genLine, discLine)
	p.Legend.Add("generator", genLine)
	p.Legend.Add("discriminator", discLine)

	return p.Save(6*vg.Inch, 4*vg.Inch, filepath.Join(l.dir, "loss.png"))
}

// nextVersion scans a run directory for version_<n> entries and returns the
// first unused n.
func nextVersion(runDir string) (int, error) {
	entries, err := ioutil.ReadDir(runDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	next := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(e.Name(), "version_%d", &n); err == nil && n >= next {
			next = n + 1
		}
	}

	return next, nil
}
