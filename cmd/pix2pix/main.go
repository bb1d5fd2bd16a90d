package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jarrahkula/pix2pix/dataset"
	"github.com/jarrahkula/pix2pix/gan"
	"github.com/jarrahkula/pix2pix/logger"
	"github.com/jarrahkula/pix2pix/train"
)

// flag variables
var (
	InputDir  string
	TargetDir string
	L1Lambda  float64
	Epochs    int
	BatchSize int
	Precision string
	Model     string
	Cuda      bool
	LogDir    string
)

const valSize = 0.3

func init() {
	flag.StringVar(&InputDir, "i", "./input", "Input images directory path")
	flag.StringVar(&TargetDir, "t", "./target", "Target images directory path")
	flag.Float64Var(&L1Lambda, "l1", 50, "L1 loss weight")
	flag.IntVar(&Epochs, "e", 200, "Number of training epochs")
	flag.IntVar(&BatchSize, "bs", 2, "Batch size")
	flag.StringVar(&Precision, "p", "32", "Floating-point precision (32 or 16)")
	flag.StringVar(&Model, "m", "pix2pix", "Model name (pix2pix | palette | transgan)")
	flag.BoolVar(&Cuda, "cuda", false, "Train on CUDA when available")
	flag.StringVar(&LogDir, "logs", "./logs", "Metrics/checkpoint root directory")
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %v [flags] <run-name>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	name := flag.Arg(0)

	// Configuration errors fail before any dataset or trainer resource is
	// allocated.
	modelName, err := gan.ParseModelName(Model)
	if err != nil {
		log.Fatal(err)
	}

	runLog, err := logger.NewCSVLogger(absPath(LogDir), name)
	if err != nil {
		log.Fatal(err)
	}

	cfg := train.Default()
	cfg.Epochs = Epochs
	cfg.Precision = Precision
	cfg.Cuda = Cuda

	trainer, err := train.NewTrainer(cfg, runLog)
	if err != nil {
		log.Fatal(err)
	}

	model, err := gan.NewModel(modelName, trainer.GenPath(), trainer.DiscPath(), L1Lambda)
	if err != nil {
		log.Fatal(err)
	}

	hparams, err := gan.ModelConfig(modelName, L1Lambda)
	if err != nil {
		log.Fatal(err)
	}
	if err := runLog.SaveHparams(hparams); err != nil {
		log.Fatal(err)
	}

	dm, err := dataset.NewModule(absPath(InputDir), absPath(TargetDir), BatchSize, valSize)
	if err != nil {
		log.Fatal(err)
	}

	if err := trainer.Fit(model, dm); err != nil {
		log.Fatal(err)
	}
}

// helper to get absolute file path
func absPath(p string) string {
	fullpath, err := filepath.Abs(p)
	if err != nil {
		log.Fatal(err)
	}
	return fullpath
}
