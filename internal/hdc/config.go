package hdc

import "fmt"

// Config holds the hyperparameters for the two-stage training pipeline.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// Dim is the hypervector dimension.
	Dim int
	// KmerLength is the sliding window size over input sequences.
	KmerLength int
	// NumClasses is the number of output classes for fine-tuning.
	NumClasses int

	// Contrastive pretraining.
	ContrastiveLR     float32
	ContrastiveEpochs int
	Temperature       float32
	NumNegatives      int
	MutationRate      float32

	// Supervised fine-tuning.
	FinetuneLR     float32
	FinetuneEpochs int
	L2Reg          float32
	Hidden         int

	// Early stopping.
	Patience int
	MinDelta float32

	BatchSize int
	Seed      int64
}

// DefaultConfig returns the hyperparameters the pipeline was tuned with.
func DefaultConfig() Config {
	return Config{
		Dim:               1000,
		KmerLength:        6,
		NumClasses:        2,
		ContrastiveLR:     0.01,
		ContrastiveEpochs: 20,
		Temperature:       0.1,
		NumNegatives:      8,
		MutationRate:      0.1,
		FinetuneLR:        0.001,
		FinetuneEpochs:    50,
		L2Reg:             0.001,
		Hidden:            256,
		Patience:          5,
		MinDelta:          0.001,
		BatchSize:         32,
		Seed:              42,
	}
}

func (c Config) validate() error {
	if c.Dim <= 0 {
		return fmt.Errorf("hdc: dimension must be positive, got %d", c.Dim)
	}
	if c.NumClasses < 2 {
		return fmt.Errorf("hdc: need at least 2 classes, got %d", c.NumClasses)
	}
	if c.Hidden <= 0 {
		return fmt.Errorf("hdc: hidden size must be positive, got %d", c.Hidden)
	}
	if c.BatchSize < 2 {
		return fmt.Errorf("hdc: batch size must be at least 2, got %d", c.BatchSize)
	}
	if c.Temperature <= 0 {
		return fmt.Errorf("hdc: temperature must be positive, got %v", c.Temperature)
	}
	if c.NumNegatives < 1 {
		return fmt.Errorf("hdc: need at least 1 negative, got %d", c.NumNegatives)
	}
	return nil
}
