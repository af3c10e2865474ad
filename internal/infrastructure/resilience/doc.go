/*
Package resilience provides the circuit breaker that guards calls to the
suggestion service.

# States

- Closed: calls pass through; counts are cleared every Interval
- Open: calls fail with ErrCircuitOpen until Timeout elapses
- Half-Open: up to MaxRequests trial calls; that many successes close the
  breaker, any failure opens it again

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                               Open

# Usage

	breaker := resilience.New("suggestions", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})

	resp, err := resilience.Call(breaker, func() (*resty.Response, error) {
		return req.Get(endpoint)
	})
*/
package resilience
