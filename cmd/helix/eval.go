package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/seqvec/helix/internal/dataset"
	"github.com/seqvec/helix/internal/eval"
	"github.com/seqvec/helix/internal/hdc"
	"github.com/seqvec/helix/internal/logger"
	"github.com/seqvec/helix/internal/tensor"
	"github.com/seqvec/helix/pkg/embfile"
)

func evalCmd() *cli.Command {
	var (
		datasetName string
		samples     int64
		seed        int64
		k           int64
		binary      bool
	)

	return &cli.Command{
		Name:  "eval",
		Usage: "k-NN comparison of a random embedding table against a trained one",
		Flags: append(modelFlags(),
			&cli.StringFlag{
				Name:        "dataset",
				Usage:       "dataset generator (promoter, taxonomy, splice)",
				Value:       "promoter",
				Destination: &datasetName,
			},
			&cli.Int64Flag{
				Name:        "samples",
				Usage:       "number of samples to generate",
				Value:       300,
				Destination: &samples,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "random seed",
				Value:       42,
				Destination: &seed,
			},
			&cli.Int64Flag{
				Name:        "k",
				Usage:       "number of nearest neighbours",
				Value:       5,
				Destination: &k,
			},
			&cli.BoolFlag{
				Name:        "binary",
				Usage:       "compare binary encodings with Hamming similarity",
				Destination: &binary,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if embeddingsPath == "" {
				return fmt.Errorf("--embeddings is required")
			}

			learned, err := embfile.LoadModel(embeddingsPath, "")
			if err != nil {
				return err
			}

			// The baseline shares every hyperparameter with the learned
			// model but keeps its random initial table.
			baseCfg := hdc.DefaultConfig()
			baseCfg.Dim = learned.Dim()
			baseCfg.KmerLength = learned.KmerLength()
			baseCfg.Seed = seed
			baseline, err := hdc.New(baseCfg)
			if err != nil {
				return err
			}

			set, ok := dataset.ByName(datasetName, int(samples), seed)
			if !ok {
				return fmt.Errorf("unknown dataset %q (want promoter, taxonomy or splice)", datasetName)
			}
			train, _, test := set.Split(0.7, 0)

			metric := eval.Cosine
			if binary {
				metric = eval.Hamming
			}

			encode := func(m *hdc.Model, seqs []string) tensor.Mat {
				if !binary {
					return m.EncodeBatch(seqs)
				}
				out := tensor.NewMat(len(seqs), m.Dim())
				for i, s := range seqs {
					copy(out.Row(i), m.EncodeBinary(s))
				}
				return out
			}

			accOf := func(m *hdc.Model) (float64, error) {
				trainVecs := eval.ToDense(encode(m, train.Seqs))
				testVecs := eval.ToDense(encode(m, test.Seqs))
				preds, err := eval.KNN(trainVecs, train.Labels, testVecs, int(k), metric)
				if err != nil {
					return 0, err
				}
				return eval.Accuracy(preds, test.Labels), nil
			}

			baseAcc, err := accOf(baseline)
			if err != nil {
				return err
			}
			learnedAcc, err := accOf(learned)
			if err != nil {
				return err
			}

			log.Info("k-NN evaluation",
				"dataset", datasetName,
				"k", k,
				"metric", metricName(metric),
				"baseline_acc", baseAcc,
				"learned_acc", learnedAcc)
			fmt.Printf("baseline (random table): %.4f\n", baseAcc)
			fmt.Printf("learned table:           %.4f\n", learnedAcc)
			return nil
		},
	}
}

func metricName(m eval.Metric) string {
	if m == eval.Hamming {
		return "hamming"
	}
	return "cosine"
}
