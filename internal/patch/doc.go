// Package patch runs suggestion batches against whole documents: it picks
// the batch (posted, fetched or read from a file), applies it through the
// dispatcher under a fresh run id, times the run and renders the result.
// Both the HTTP service and the batch CLI go through it.
package patch
