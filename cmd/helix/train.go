package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/seqvec/helix/internal/dataset"
	"github.com/seqvec/helix/internal/eval"
	"github.com/seqvec/helix/internal/hdc"
	"github.com/seqvec/helix/internal/logger"
	"github.com/seqvec/helix/internal/runstore"
	"github.com/seqvec/helix/pkg/embfile"
)

func trainCmd() *cli.Command {
	defaults := hdc.DefaultConfig()

	var (
		datasetName string
		samples     int64

		dim               int64
		kmerLength        int64
		hidden            int64
		contrastiveEpochs int64
		finetuneEpochs    int64
		batchSize         int64
		seed              int64
		temperature       float64
		contrastiveLR     float64
		finetuneLR        float64
		mutationRate      float64
		l2Reg             float64
		patience          int64
		skipPretrain      bool

		outEmbeddings string
		outClassifier string
		runsDB        string
	)

	return &cli.Command{
		Name:  "train",
		Usage: "Pretrain and fine-tune an encoder on a synthetic dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dataset",
				Usage:       "dataset generator (promoter, taxonomy, splice)",
				Value:       "promoter",
				Destination: &datasetName,
			},
			&cli.Int64Flag{
				Name:        "samples",
				Usage:       "number of samples to generate",
				Value:       500,
				Destination: &samples,
			},
			&cli.Int64Flag{
				Name:        "dim",
				Usage:       "hypervector dimension",
				Value:       int64(defaults.Dim),
				Destination: &dim,
			},
			&cli.Int64Flag{
				Name:        "kmer-length",
				Aliases:     []string{"k"},
				Usage:       "k-mer window size",
				Value:       int64(defaults.KmerLength),
				Destination: &kmerLength,
			},
			&cli.Int64Flag{
				Name:        "hidden",
				Usage:       "classifier hidden layer width",
				Value:       int64(defaults.Hidden),
				Destination: &hidden,
			},
			&cli.Int64Flag{
				Name:        "contrastive-epochs",
				Usage:       "contrastive pretraining epochs",
				Value:       int64(defaults.ContrastiveEpochs),
				Destination: &contrastiveEpochs,
			},
			&cli.Int64Flag{
				Name:        "finetune-epochs",
				Usage:       "fine-tuning epoch budget",
				Value:       int64(defaults.FinetuneEpochs),
				Destination: &finetuneEpochs,
			},
			&cli.Int64Flag{
				Name:        "batch-size",
				Usage:       "mini-batch size",
				Value:       int64(defaults.BatchSize),
				Destination: &batchSize,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "random seed",
				Value:       defaults.Seed,
				Destination: &seed,
			},
			&cli.Float64Flag{
				Name:        "temperature",
				Usage:       "InfoNCE temperature",
				Value:       float64(defaults.Temperature),
				Destination: &temperature,
			},
			&cli.Float64Flag{
				Name:        "contrastive-lr",
				Usage:       "pretraining learning rate",
				Value:       float64(defaults.ContrastiveLR),
				Destination: &contrastiveLR,
			},
			&cli.Float64Flag{
				Name:        "finetune-lr",
				Usage:       "fine-tuning learning rate",
				Value:       float64(defaults.FinetuneLR),
				Destination: &finetuneLR,
			},
			&cli.Float64Flag{
				Name:        "mutation-rate",
				Usage:       "augmentation mutation rate",
				Value:       float64(defaults.MutationRate),
				Destination: &mutationRate,
			},
			&cli.Float64Flag{
				Name:        "l2",
				Usage:       "classifier L2 regularisation",
				Value:       float64(defaults.L2Reg),
				Destination: &l2Reg,
			},
			&cli.Int64Flag{
				Name:        "patience",
				Usage:       "early stopping patience (epochs)",
				Value:       int64(defaults.Patience),
				Destination: &patience,
			},
			&cli.BoolFlag{
				Name:        "skip-pretrain",
				Usage:       "skip contrastive pretraining",
				Destination: &skipPretrain,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path for the embedding table JSON",
				Value:       "embeddings.json",
				Destination: &outEmbeddings,
			},
			&cli.StringFlag{
				Name:        "out-classifier",
				Usage:       "output path for the classifier JSON",
				Value:       "classifier.json",
				Destination: &outClassifier,
			},
			&cli.StringFlag{
				Name:        "runs-db",
				Usage:       "SQLite database to record the run in (optional)",
				Destination: &runsDB,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyTrainConfig(cmd, LoadConfig(),
				&dim, &kmerLength, &contrastiveEpochs, &finetuneEpochs, &batchSize, &seed,
				&temperature, &runsDB)

			set, ok := dataset.ByName(datasetName, int(samples), seed)
			if !ok {
				return fmt.Errorf("unknown dataset %q (want promoter, taxonomy or splice)", datasetName)
			}

			cfg := hdc.DefaultConfig()
			cfg.Dim = int(dim)
			cfg.KmerLength = int(kmerLength)
			cfg.Hidden = int(hidden)
			cfg.NumClasses = set.Classes()
			cfg.ContrastiveEpochs = int(contrastiveEpochs)
			cfg.FinetuneEpochs = int(finetuneEpochs)
			cfg.BatchSize = int(batchSize)
			cfg.Seed = seed
			cfg.Temperature = float32(temperature)
			cfg.ContrastiveLR = float32(contrastiveLR)
			cfg.FinetuneLR = float32(finetuneLR)
			cfg.MutationRate = float32(mutationRate)
			cfg.L2Reg = float32(l2Reg)
			cfg.Patience = int(patience)

			model, err := hdc.New(cfg)
			if err != nil {
				return err
			}

			train, val, test := set.Split(0.6, 0.2)
			log.Info("dataset ready",
				"dataset", datasetName,
				"classes", set.Classes(),
				"train", train.Len(), "val", val.Len(), "test", test.Len())

			var pretrain []float32
			if !skipPretrain {
				pretrain = model.ContrastivePretrain(train.Seqs, log)
			}

			res, err := model.Finetune(train.Seqs, train.Labels, val.Seqs, val.Labels, log)
			if err != nil {
				return err
			}

			preds, err := model.Predict(test.Seqs)
			if err != nil {
				return err
			}
			testAcc := eval.Accuracy(preds, test.Labels)
			log.Info("training done",
				"best_val_acc", res.BestValAcc,
				"best_epoch", res.BestEpoch,
				"test_acc", testAcc)

			if err := embfile.SaveModel(outEmbeddings, outClassifier, model); err != nil {
				return err
			}
			log.Info("model exported", "embeddings", outEmbeddings, "classifier", outClassifier)

			if runsDB == "" {
				return nil
			}
			store := runstore.New(runsDB)
			if err := store.Init(ctx); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run := runstore.NewRun(datasetName, cfg)
			run.Pretrain = pretrain
			run.TrainLoss = res.TrainLoss
			run.ValAcc = res.ValAcc
			run.BestValAcc = res.BestValAcc
			run.BestEpoch = res.BestEpoch
			run.TestAcc = float32(testAcc)
			if err := store.SaveRun(ctx, run); err != nil {
				return err
			}
			log.Info("run recorded", "id", run.ID, "db", runsDB)
			return nil
		},
	}
}
