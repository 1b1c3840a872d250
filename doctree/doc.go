// Package doctree provides the document value model for TOML files.
//
// # Overview
//
// Load parses TOML source and lowers it into a tree of Value nodes rooted at
// a table. Unlike a decoder, the tree keeps what language tooling needs:
//
//   - the source range of every value and key
//   - how each table and array came to exist (header, dotted key, inline)
//   - values that failed to parse, as Incomplete
//   - comment directives attached to the values they annotate
//
// # Merge
//
// TOML allows one table to be written in several places: a [header], dotted
// keys under other tables, and [[array.of.tables]] elements extended by later
// headers. Lowering builds a small fragment for each header and dotted key and
// merges it into the tree. Merge reports conflicts (redefined tables, inline
// tables extended after the fact, arrays assigned twice) as Errors and keeps
// the first definition.
//
// # Sections
//
// Besides the merged tree, a Document records its Sections: the key/values
// written directly under each header or inline table, in source order. Edits
// that reorder keys work on sections since reordering across headers would
// change the document's meaning.
package doctree
