/*
Package resilience provides a circuit breaker for the frame host's external
dependencies, currently the shared Redis bootstrap cache.

A breaker is closed while calls succeed, opens after ReadyToTrip says the
failures are too many, and rejects calls with ErrCircuitOpen until Timeout
passes. It then lets MaxRequests trial calls through (half-open) and closes
again once they all succeed.

# Usage

	breaker := resilience.New("redis", resilience.Settings{
		Timeout: 10 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})

	url, err := resilience.Do(breaker, func() (string, error) {
		return store.SetIfAbsent(ctx, wid, candidate)
	})
*/
package resilience
