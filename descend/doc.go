// Package descend matches document paths against schema graphs.
//
// A Descent answers, for one schema context, which schema applies at a
// path: Descend matches a single accessor, checking the sub-schema map
// first, then table properties, pattern properties in declaration order
// and the additional properties schema, or array items. A key no schema
// speaks about is unconstrained, which differs from a key forbidden by
// additionalProperties = false.
//
// Compositions are not matched by Descend. A Walker expands them into their
// resolved members and hands them to its Visitor, and Evaluate turns the
// per-member outcomes into a Verdict:
//
//	oneOf   exactly one member is satisfied; more is a multiple match
//	anyOf   at least one member is satisfied
//	allOf   every member is satisfied
//
// Validation, completion, hover and edits are all Visitors of the same
// Walker, so they agree on which schema applies where.
package descend
