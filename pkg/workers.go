package fadc

import (
	"fmt"
	"sync"
)

type workerJob struct {
	Index int
	Event EventRecord
}

type workerResult struct {
	Index    int
	Features EventFeatures
}

// ProcessEvents extracts the features of all events with numWorkers
// goroutines. The result has the same order as events.
func ProcessEvents(events []EventRecord, params AnalysisParams, numWorkers int) []EventFeatures {
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan workerJob, 100)
	results := make(chan workerResult, 100)

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id, params, jobs, results)
		}(w)
	}
	go func() {
		for i, event := range events {
			jobs <- workerJob{Index: i, Event: event}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	features := make([]EventFeatures, len(events))
	for result := range results {
		features[result.Index] = result.Features
	}
	return features
}

func worker(id int, params AnalysisParams, jobs <-chan workerJob, results chan<- workerResult) {
	for job := range jobs {
		results <- workerResult{Index: job.Index, Features: processEvent(id, job.Event, params)}
	}
}

func processEvent(id int, event EventRecord, params AnalysisParams) (features EventFeatures) {
	defer func() {
		if r := recover(); r != nil {
			errMessage := fmt.Errorf("worker %d recovered from panic on event %d: %v", id, event.LocalTNum, r)
			logger.Error(errMessage.Error())
			features = EventFeatures{LocalTNum: event.LocalTNum, TriggerNumber: event.TriggerNumber, Error: true}
		}
	}()
	return ExtractEventFeatures(event, params)
}
