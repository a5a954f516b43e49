// Package resilience groups the fault tolerance patterns used around the
// worker's outbound calls: circuit breakers for feeds, content fetches,
// article delivery and the database, and retry with exponential backoff
// and jitter.
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchFeed()
//	})
//
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	    return performOperation()
//	})
package resilience
