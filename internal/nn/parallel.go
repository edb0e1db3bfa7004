package nn

import (
	"context"
	"sync"
)

// EvaluateParallel returns the same outputs as Evaluate, firing each
// dependency level on a pool of at most workers goroutines. Workers only read
// the signal cache; it is written between levels by the calling goroutine.
// ctx is checked before every level.
func EvaluateParallel(ctx context.Context, o *Organism, input []float64, workers int) ([]float64, error) {
	if workers <= 1 {
		return Evaluate(o, input)
	}
	act, order, err := prepare(o)
	if err != nil {
		return nil, err
	}

	signals := make(Signals, len(order))
	for _, level := range Levels(o.Hidden, order) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		neurons := make([]*Neuron, len(level))
		for i, id := range level {
			neurons[i] = o.Hidden[id]
		}
		values := fireLevel(neurons, signals, input, act, workers)
		for i, id := range level {
			signals[id] = values[i]
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fireLevel(o.Outputs, signals, input, act, workers), nil
}

func fireLevel(neurons []*Neuron, signals Signals, input []float64, act ActivationFunc, workers int) []float64 {
	type result struct {
		idx   int
		value float64
	}

	values := make([]float64, len(neurons))
	workerCount := workers
	if workerCount > len(neurons) {
		workerCount = len(neurons)
	}
	if workerCount == 0 {
		return values
	}

	jobs := make(chan int)
	results := make(chan result, len(neurons))

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- result{idx: idx, value: Fire(neurons[idx], signals, input, act)}
			}
		}()
	}

	for idx := range neurons {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	close(results)

	for r := range results {
		values[r.idx] = r.value
	}
	return values
}
