// Package testing provides an in-memory cache.Driver with injectable failures
// and call counters, plus assertions for tests of code built on cache.Cache.
//
//	mock := testing.NewMockDriver().WithGetFailure(cache.NewConnectionError("get", "mock", io.EOF))
//	c := cache.New(mock, cache.Options{Enabled: true})
//	// Fetch degrades to a miss
//	testing.AssertOperationCount(t, mock, "get", 1)
package testing
