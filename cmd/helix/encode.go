package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/seqvec/helix/internal/dataset"
	"github.com/seqvec/helix/internal/logger"
	"github.com/seqvec/helix/pkg/embfile"
)

func encodeCmd() *cli.Command {
	var (
		fastaPath string
		binary    bool
	)

	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode sequences with an exported embedding table",
		ArgsUsage: "[sequence ...]",
		Flags: append(modelFlags(),
			&cli.StringFlag{
				Name:        "fasta",
				Aliases:     []string{"f"},
				Usage:       "read sequences from a FASTA file instead of arguments",
				Destination: &fastaPath,
			},
			&cli.BoolFlag{
				Name:        "binary",
				Usage:       "emit 0/1 sign-indicator vectors",
				Destination: &binary,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if embeddingsPath == "" {
				return fmt.Errorf("--embeddings is required")
			}

			model, err := embfile.LoadModel(embeddingsPath, "")
			if err != nil {
				return err
			}

			type input struct {
				id  string
				seq string
			}
			var inputs []input
			if fastaPath != "" {
				records, err := dataset.ReadFASTAFile(fastaPath)
				if err != nil {
					return err
				}
				for _, r := range records {
					inputs = append(inputs, input{id: r.ID, seq: r.Seq})
				}
			} else {
				for i, seq := range cmd.Args().Slice() {
					inputs = append(inputs, input{id: fmt.Sprintf("seq%d", i+1), seq: seq})
				}
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no sequences given (arguments or --fasta)")
			}
			log.Debug("encoding", "sequences", len(inputs), "binary", binary)

			// One JSON object per line so output can be streamed into
			// downstream tools.
			w := bufio.NewWriter(os.Stdout)
			defer func() { _ = w.Flush() }()
			enc := json.NewEncoder(w)

			type line struct {
				ID     string    `json:"id"`
				Vector []float32 `json:"vector"`
			}
			for _, in := range inputs {
				var vec []float32
				if binary {
					vec = model.EncodeBinary(in.seq)
				} else {
					vec = model.Encode(in.seq)
				}
				if err := enc.Encode(line{ID: in.id, Vector: vec}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
