// Package suggestion models the page mutations delivered by the suggestion
// service.
//
// Records arrive on the wire as loosely typed objects. At the boundary they are
// validated and turned into one of three variants:
//   - Content: text, attribute and markup mutations (types keyword, metatag, content)
//   - Image: alt text mutations
//   - Link: href mutations (internal_link, external_link)
//
// A record that fails validation is rejected on its own; the rest of the batch
// is kept. A payload that is not a list (or an envelope holding one) rejects the
// whole batch with ErrMalformedPayload.
package suggestion
