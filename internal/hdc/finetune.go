package hdc

import (
	"fmt"

	"github.com/seqvec/helix/internal/logger"
	"github.com/seqvec/helix/internal/tensor"
)

// embeddingLRScale reduces the fine-tuning learning rate for embedding
// rows relative to the classifier tensors.
const embeddingLRScale = 0.1

// FinetuneResult reports the outcome of one fine-tuning run.
type FinetuneResult struct {
	BestValAcc float32
	BestEpoch  int
	TrainLoss  []float32
	ValAcc     []float32
}

// earlyStop implements patience-based stopping on validation accuracy:
// an epoch counts against the patience budget unless it improves the best
// accuracy by more than minDelta.
type earlyStop struct {
	minDelta float32
	patience int

	best      float32
	bestEpoch int
	counter   int
}

// observe records one epoch's validation accuracy and reports whether
// training should stop. epoch is 1-based.
func (s *earlyStop) observe(epoch int, acc float32) bool {
	if acc > s.best+s.minDelta {
		s.best = acc
		s.bestEpoch = epoch
		s.counter = 0
		return false
	}
	s.counter++
	return s.counter >= s.patience
}

// Finetune initialises the classifier head and trains it jointly with the
// embedding table on labeled sequences. The classifier tensors use the
// configured learning rate; the embedding rows are updated through the
// same sparse optimizer state as pretraining at a tenth of that rate.
// With a validation set, training stops early once accuracy fails to
// improve by MinDelta for Patience consecutive epochs; without one it
// runs the full epoch budget.
func (m *Model) Finetune(trainSeqs []string, trainLabels []int, valSeqs []string, valLabels []int, log logger.Logger) (FinetuneResult, error) {
	cfg := m.cfg
	if len(trainSeqs) == 0 {
		return FinetuneResult{}, fmt.Errorf("hdc: no training sequences")
	}
	if len(trainSeqs) != len(trainLabels) {
		return FinetuneResult{}, fmt.Errorf("hdc: %d sequences but %d labels", len(trainSeqs), len(trainLabels))
	}
	if len(valSeqs) != len(valLabels) {
		return FinetuneResult{}, fmt.Errorf("hdc: %d validation sequences but %d labels", len(valSeqs), len(valLabels))
	}
	for i, l := range trainLabels {
		if l < 0 || l >= cfg.NumClasses {
			return FinetuneResult{}, fmt.Errorf("hdc: label %d at index %d out of range [0,%d)", l, i, cfg.NumClasses)
		}
	}

	m.clf = newClassifier(cfg.Dim, cfg.Hidden, cfg.NumClasses, cfg.FinetuneLR, m.rng)

	log.Info("fine-tuning",
		"train", len(trainSeqs),
		"validation", len(valSeqs),
		"epochs", cfg.FinetuneEpochs,
		"patience", cfg.Patience)

	res := FinetuneResult{
		TrainLoss: make([]float32, 0, cfg.FinetuneEpochs),
		ValAcc:    make([]float32, 0, cfg.FinetuneEpochs),
	}
	es := earlyStop{minDelta: cfg.MinDelta, patience: cfg.Patience}

	for epoch := 0; epoch < cfg.FinetuneEpochs; epoch++ {
		perm := m.rng.Perm(len(trainSeqs))

		var epochLoss float64
		for start := 0; start < len(perm); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(perm) {
				end = len(perm)
			}
			batchSeqs := make([]string, 0, end-start)
			batchLabels := make([]int, 0, end-start)
			for _, i := range perm[start:end] {
				batchSeqs = append(batchSeqs, trainSeqs[i])
				batchLabels = append(batchLabels, trainLabels[i])
			}
			loss := m.finetuneStep(batchSeqs, batchLabels)
			epochLoss += float64(loss) * float64(len(batchSeqs))
		}
		avgLoss := float32(epochLoss / float64(len(trainSeqs)))
		res.TrainLoss = append(res.TrainLoss, avgLoss)

		if len(valSeqs) == 0 {
			log.Debug("finetune epoch", "epoch", epoch+1, "loss", avgLoss)
			continue
		}

		preds, err := m.Predict(valSeqs)
		if err != nil {
			return FinetuneResult{}, err
		}
		correct := 0
		for i, p := range preds {
			if p == valLabels[i] {
				correct++
			}
		}
		acc := float32(correct) / float32(len(valSeqs))
		res.ValAcc = append(res.ValAcc, acc)
		log.Debug("finetune epoch", "epoch", epoch+1, "loss", avgLoss, "val_acc", acc)

		if es.observe(epoch+1, acc) {
			log.Info("early stopping", "epoch", epoch+1, "best_val_acc", es.best, "best_epoch", es.bestEpoch)
			break
		}
	}

	res.BestValAcc = es.best
	res.BestEpoch = es.bestEpoch
	return res, nil
}

// finetuneStep runs forward/backward over one mini-batch and applies the
// classifier and embedding updates.
func (m *Model) finetuneStep(seqs []string, labels []int) float32 {
	cfg := m.cfg
	n := len(seqs)

	x := tensor.NewMat(n, cfg.Dim)
	indices := make([][]int, n)
	for i, seq := range seqs {
		vec, idx := m.encode(seq, true)
		copy(x.Row(i), vec)
		indices[i] = idx
	}

	st := m.clf.forward(x)
	loss := m.clf.loss(st, labels, cfg.L2Reg)
	g := m.clf.backward(st, labels, cfg.L2Reg)
	m.clf.apply(g)

	// Propagate dX into the embedding table at a reduced rate, sample by
	// sample through the shared sparse Adam state.
	lr := cfg.FinetuneLR * embeddingLRScale
	m.opt.step()
	for i := 0; i < n; i++ {
		if len(indices[i]) == 0 {
			continue
		}
		grad := g.dX.Row(i)
		tensor.Scale(grad, 1/float32(len(indices[i])))
		for _, idx := range indices[i] {
			m.opt.updateRow(m.emb.Row(idx), idx, grad, lr)
		}
	}

	return loss
}
