// Package fetch retrieves suggestion batches from the suggestion service.
//
// A request is GET <endpoint>?website_id=<id>&page_id=<clean page url> with
// an X-Data-Source header naming the app version ("live" by default). Page
// URLs are cleaned of tracking parameters first.
//
// Built on:
//   - resty over a go-retryablehttp transport: retries on connection errors and 5xx
//   - x/time/rate: outgoing request limit
//   - resilience.Breaker: fails fast while the service is down
//   - x/sync/singleflight: concurrent fetches of one page share a request
package fetch
