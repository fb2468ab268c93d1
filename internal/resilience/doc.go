// Package resilience groups the reliability building blocks used around
// every external call the bot makes: bounded retry with exponential backoff
// (retry) and circuit breakers (circuitbreaker). The trending fetchers, the
// AI composers, and the X API client all wrap their network calls with both.
package resilience
