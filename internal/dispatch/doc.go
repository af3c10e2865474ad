// Package dispatch applies a batch of suggestions to one document.
//
// Suggestions run in order and each completes before the next starts. Content
// suggestions go to the rewrite engine; image and link suggestions are handled
// here. A failing or panicking suggestion is logged with its kind and id and
// the batch continues. The Report lists the outcome of every suggestion.
//
// A Guard replaces a process-wide "already loaded" flag: callers own one per
// page view and pass it to Run.
package dispatch
