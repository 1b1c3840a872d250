// Package schema provides the schema graph used to validate, complete and
// edit TOML documents.
//
// Schema documents are JSON Schema documents, in JSON or YAML, with a few
// extension keywords (x-tombi-*) for TOML specific preferences such as key
// order.
//
// # Graph
//
// Parse turns a document into a graph of ValueSchema nodes. Every edge of the
// graph is a Referable cell, which holds either a resolved node or a $ref.
// Nodes are never modified after parsing; cells move from unresolved to
// resolved exactly once, each under its own lock, so one graph can be shared
// by concurrent traversals.
//
// # Resolution
//
// Referable.Resolve follows a $ref: definitions and JSON pointers within the
// document first, then other documents through a Loader. The result is a
// Current, the resolved node together with the URI and Definitions that its
// own references must be resolved against.
//
//	doc, _ := schema.Parse(uri, data)
//	cur, err := doc.Root.Resolve(ctx, doc.URI, doc.Definitions, loader)
//
// A nil Current with a nil error means the schema is unavailable (offline);
// callers treat the location as unconstrained.
//
// # Satisfiability
//
// CheckDefinitions uses a SAT solver to find definitions no value can
// satisfy, such as required properties that refer back to their own
// definition with no way out.
package schema
