package hdc

import (
	"math"

	"github.com/seqvec/helix/internal/logger"
	"github.com/seqvec/helix/internal/tensor"
)

// simClip bounds similarity/temperature ratios before exponentiation.
const simClip = 20

// ContrastivePretrain optimises the embedding table with an InfoNCE
// objective over unlabeled sequences: each anchor is pulled toward an
// augmented copy of itself and pushed away from other in-batch anchors.
// Only the embedding table and its optimizer state are mutated. Runs for
// the configured epoch budget (unlabeled data carries no validation
// signal, so there is no early stopping) and returns the per-epoch mean
// loss.
func (m *Model) ContrastivePretrain(seqs []string, log logger.Logger) []float32 {
	cfg := m.cfg
	losses := make([]float32, 0, cfg.ContrastiveEpochs)

	log.Info("contrastive pretraining",
		"sequences", len(seqs),
		"epochs", cfg.ContrastiveEpochs,
		"temperature", cfg.Temperature,
		"negatives", cfg.NumNegatives)

	for epoch := 0; epoch < cfg.ContrastiveEpochs; epoch++ {
		perm := m.rng.Perm(len(seqs))

		var epochLoss float64
		batches := 0
		for start := 0; start < len(perm); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(perm) {
				end = len(perm)
			}
			// A batch of one has no in-batch negatives; skip it.
			if end-start < 2 {
				continue
			}
			batch := make([]string, 0, end-start)
			for _, i := range perm[start:end] {
				batch = append(batch, seqs[i])
			}
			epochLoss += float64(m.contrastiveStep(batch))
			batches++
		}

		if batches == 0 {
			batches = 1
		}
		avg := float32(epochLoss / float64(batches))
		losses = append(losses, avg)

		log.Debug("pretrain epoch", "epoch", epoch+1, "loss", avg)
		if (epoch+1)%5 == 0 {
			log.Info("pretrain epoch", "epoch", epoch+1, "loss", avg)
		}
	}
	return losses
}

// contrastiveStep processes one batch: encode anchors and augmented
// positives, then for each anchor compute the InfoNCE loss against up to
// NumNegatives other anchors and push the gradient into the anchor's
// embedding rows. Row updates are applied sample by sample, so a row
// shared between two anchors sees the first anchor's update before the
// second anchor's gradient lands; that ordering is part of the model's
// numerics.
func (m *Model) contrastiveStep(batch []string) float32 {
	cfg := m.cfg
	n := len(batch)

	anchors := make([][]float32, n)
	positives := make([][]float32, n)
	anchorIdx := make([][]int, n)
	for i, seq := range batch {
		anchors[i], anchorIdx[i] = m.encode(seq, true)
		positives[i], _ = m.encode(Augment(seq, cfg.MutationRate, m.rng), true)
	}

	m.opt.step()

	var total float64

	for i := 0; i < n; i++ {
		others := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				others = append(others, j)
			}
		}
		m.rng.Shuffle(len(others), func(a, b int) {
			others[a], others[b] = others[b], others[a]
		})
		if len(others) > cfg.NumNegatives {
			others = others[:cfg.NumNegatives]
		}

		negatives := make([][]float32, len(others))
		for j, neg := range others {
			negatives[j] = anchors[neg]
		}

		loss, dAnchor := infoNCE(anchors[i], positives[i], negatives, cfg.Temperature)
		total += loss

		if len(anchorIdx[i]) == 0 {
			continue
		}
		// The anchor is a mean over its k-mer rows, so the gradient is
		// split evenly across them.
		tensor.Scale(dAnchor, 1/float32(len(anchorIdx[i])))
		for _, idx := range anchorIdx[i] {
			m.opt.updateRow(m.emb.Row(idx), idx, dAnchor, cfg.ContrastiveLR)
		}
	}

	return float32(total / float64(n))
}

// infoNCE computes the InfoNCE loss for one anchor and its gradient
// w.r.t. the anchor:
//
//	L = -log( exp(sim(a,p)/τ) / (exp(sim(a,p)/τ) + Σ exp(sim(a,n_j)/τ)) )
//	dL/da = (softmax-weighted sum of positive and negatives - positive) / τ
//
// with sim = cosine similarity. Ratios are clipped to ±simClip before
// exponentiation so extreme similarities cannot overflow.
func infoNCE(anchor, positive []float32, negatives [][]float32, temp float32) (float64, []float32) {
	invTemp := 1 / temp

	simPos := tensor.Clip(tensor.CosineSim(anchor, positive)*invTemp, -simClip, simClip)
	expPos := math.Exp(float64(simPos))
	denom := expPos
	expNegs := make([]float64, len(negatives))
	for j, neg := range negatives {
		sim := tensor.Clip(tensor.CosineSim(anchor, neg)*invTemp, -simClip, simClip)
		expNegs[j] = math.Exp(float64(sim))
		denom += expNegs[j]
	}

	loss := -math.Log(expPos / (denom + 1e-10))

	dAnchor := make([]float32, len(anchor))
	tensor.Axpy(dAnchor, float32(expPos/denom), positive)
	for j, neg := range negatives {
		tensor.Axpy(dAnchor, float32(expNegs[j]/denom), neg)
	}
	tensor.Axpy(dAnchor, -1, positive)
	tensor.Scale(dAnchor, invTemp)

	return loss, dAnchor
}
