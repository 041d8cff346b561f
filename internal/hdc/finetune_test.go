package hdc

import (
	"errors"
	"testing"
)

// Accuracy improves through epoch 3 and stalls after; with patience 2 the
// stop must land on epoch 5.
func TestEarlyStopTrace(t *testing.T) {
	es := earlyStop{minDelta: 0.001, patience: 2}
	accs := []float32{0.5, 0.6, 0.7, 0.7, 0.7, 0.7}

	stopped := 0
	for i, acc := range accs {
		if es.observe(i+1, acc) {
			stopped = i + 1
			break
		}
	}
	if stopped != 5 {
		t.Fatalf("stopped at epoch %d, want 5", stopped)
	}
	if es.best != 0.7 || es.bestEpoch != 3 {
		t.Fatalf("best = %v at epoch %d, want 0.7 at epoch 3", es.best, es.bestEpoch)
	}
}

func TestEarlyStopImprovementResetsCounter(t *testing.T) {
	es := earlyStop{minDelta: 0.001, patience: 2}
	if es.observe(1, 0.5) {
		t.Fatal("first observation must not stop")
	}
	if es.observe(2, 0.5) {
		t.Fatal("one stalled epoch is within patience 2")
	}
	if es.observe(3, 0.6) {
		t.Fatal("improvement must reset the counter")
	}
	if es.counter != 0 {
		t.Fatalf("counter = %d after improvement, want 0", es.counter)
	}
}

// A gain at or below minDelta does not count as an improvement.
func TestEarlyStopMinDelta(t *testing.T) {
	es := earlyStop{minDelta: 0.05, patience: 1}
	es.observe(1, 0.5)
	if !es.observe(2, 0.54) {
		t.Fatal("gain below minDelta should exhaust patience 1")
	}
	if es.best != 0.5 {
		t.Fatalf("best = %v, want 0.5 (marginal gain not recorded)", es.best)
	}
}

func TestFinetuneValidatesInput(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	log := quietLogger()

	if _, err := m.Finetune(nil, nil, nil, nil, log); err == nil {
		t.Error("empty training set should be rejected")
	}
	if _, err := m.Finetune([]string{"ACGT"}, []int{0, 1}, nil, nil, log); err == nil {
		t.Error("sequence/label length mismatch should be rejected")
	}
	if _, err := m.Finetune([]string{"ACGT"}, []int{2}, nil, nil, log); err == nil {
		t.Error("label outside [0, NumClasses) should be rejected")
	}
	if _, err := m.Finetune([]string{"ACGT"}, []int{0}, []string{"ACGT"}, nil, log); err == nil {
		t.Error("validation sequence/label mismatch should be rejected")
	}
}

func TestPredictBeforeFinetune(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Predict([]string{"ACGT"}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("Predict before Finetune = %v, want ErrNotFitted", err)
	}
	if _, err := m.PredictProba([]string{"ACGT"}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("PredictProba before Finetune = %v, want ErrNotFitted", err)
	}
}

// Two classes built from disjoint 2-mer alphabets are linearly separable
// in embedding space; the head must reach perfect training accuracy.
func TestFinetuneSeparatesPlantedClasses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dim = 8
	cfg.KmerLength = 2
	cfg.Hidden = 16
	cfg.FinetuneLR = 0.05
	cfg.FinetuneEpochs = 20
	cfg.L2Reg = 0
	cfg.BatchSize = 4
	cfg.Patience = 20
	cfg.Seed = 42

	m, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	seqs := []string{"AAACAA", "AACAAA", "TTTGTT", "TTGTTT"}
	labels := []int{0, 0, 1, 1}

	res, err := m.Finetune(seqs, labels, nil, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.TrainLoss) != cfg.FinetuneEpochs {
		t.Fatalf("got %d epoch losses, want %d", len(res.TrainLoss), cfg.FinetuneEpochs)
	}
	if res.TrainLoss[len(res.TrainLoss)-1] >= res.TrainLoss[0] {
		t.Fatalf("training loss did not decrease: first %v, last %v",
			res.TrainLoss[0], res.TrainLoss[len(res.TrainLoss)-1])
	}

	preds, err := m.Predict(seqs)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range preds {
		if p != labels[i] {
			t.Fatalf("Predict(%q) = %d, want %d (preds %v)", seqs[i], p, labels[i], preds)
		}
	}
}

func TestFinetuneWithValidationEarlyStops(t *testing.T) {
	cfg := testConfig()
	cfg.FinetuneEpochs = 30
	cfg.Patience = 3
	cfg.FinetuneLR = 0.05

	m, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	train := []string{"AAACAAAC", "ACAAACAA", "TTTGTTTG", "TGTTTGTT"}
	labels := []int{0, 0, 1, 1}
	val := []string{"AACAACAA", "TTGTTGTT"}
	valLabels := []int{0, 1}

	res, err := m.Finetune(train, labels, val, valLabels, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ValAcc) != len(res.TrainLoss) {
		t.Fatalf("val accuracy recorded for %d epochs, losses for %d", len(res.ValAcc), len(res.TrainLoss))
	}
	if res.BestEpoch < 1 || res.BestEpoch > len(res.ValAcc) {
		t.Fatalf("best epoch %d outside the epochs that ran (%d)", res.BestEpoch, len(res.ValAcc))
	}
	if res.BestValAcc < 0 || res.BestValAcc > 1 {
		t.Fatalf("best validation accuracy %v outside [0,1]", res.BestValAcc)
	}
}

func TestFinetuneMovesEmbeddings(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	before := append([]float32(nil), m.emb.Data...)

	_, err = m.Finetune(
		[]string{"ACGTACGT", "TTTTGGGG", "GATTACAG", "CCCCAAAA"},
		[]int{0, 0, 1, 1}, nil, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	changed := false
	for i := range before {
		if before[i] != m.emb.Data[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Fatal("fine-tuning should update the embedding table through dX")
	}
}
