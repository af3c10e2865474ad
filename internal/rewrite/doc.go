// Package rewrite applies content mutations to a parsed page.
//
// This package is organized into:
//   - matcher: keyword matching at complete word or phrase boundaries
//   - walker: lazy filtered traversal of candidate nodes
//   - replace: the node-level replacement routine
//   - engine: per-suggestion operation selection across matched elements
//   - relocate: structural replacement of an element under a new tag
//   - metatag: synthesis of head-scoped elements that do not exist yet
//   - policy: versioned exclusion and matching configuration
//
// Built on:
//   - regexp2: boundary patterns need lookbehind and lookahead
//   - bluemonday: optional sanitizing of whole-markup replacements
//   - zap: warnings for non-fatal synthesis failures
//
// Example Usage:
//
//	engine := rewrite.NewEngine(doc, rewrite.DefaultPolicy(), rewrite.WithLogger(logger))
//	res, err := engine.Apply(rewrite.ContentParams{Selector: "p", Match: "shoe", Replacement: "boot", IgnoreCase: true})
package rewrite
