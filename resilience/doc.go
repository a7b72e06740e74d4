// Package resilience guards calls to remote segmentation services.
//
// A Breaker stops issuing frame requests once a service has failed
// Threshold times in a row and lets a few probes through after Cooldown.
// Retry repeats a health check with exponential backoff.
//
//	b := resilience.NewBreaker(resilience.BreakerConfig{Name: "segmenter"})
//	err := b.Do(func() error {
//	    return resilience.Retry(ctx, resilience.Backoff{Attempts: 3}, ping)
//	})
package resilience
