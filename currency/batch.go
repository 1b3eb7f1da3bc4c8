package currency

import (
	"context"
	"sync"
)

// Converter prices a single conversion request. Satisfied by *Client.
type Converter interface {
	Convert(ctx context.Context, req Request) Result
}

// ConvertAll prices every request and returns one Result per request, in the
// same order as the input regardless of completion order.
//
// Each request's outcome is independent: a failing conversion becomes a
// Failure in its own slot and never prevents the others from being attempted.
// Lookups are fully independent, so batches of more than one request fan out
// concurrently; each goroutine writes only its own index.
func ConvertAll(ctx context.Context, c Converter, reqs []Request) []Result {
	if len(reqs) == 0 {
		return nil
	}

	results := make([]Result, len(reqs))

	if len(reqs) == 1 {
		results[0] = c.Convert(ctx, reqs[0])
		return results
	}

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = c.Convert(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return results
}
