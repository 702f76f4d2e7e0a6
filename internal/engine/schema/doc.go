// Package schema defines the node and mark types a document may contain.
//
// A Spec lists node and mark specifications in order. New compiles it into
// an immutable Schema: every content expression becomes a finite-state
// ContentMatch, group references are resolved to concrete node types, and
// mark exclusion sets are computed once.
//
// # Content Expressions
//
// Content expressions describe the children a node accepts:
//
//	paragraph+                 one or more paragraphs
//	heading paragraph*         a heading followed by paragraphs
//	(text | image)*            any mix of text and images
//	block{1,3}                 one to three nodes of group "block"
//	header date? body          a sequence with an optional part
//
// A name refers to a node type or, failing that, to every type in that
// group. Inline and block types cannot be mixed in one expression.
//
// # Built-in Schemas
//
//   - Basic: paragraphs, headings, lists, tables and common marks
//   - Letter: a structured letter with insertion/deletion marks
//
// Schemas can also be loaded from YAML or TOML files with LoadSpecFile and
// kept in a Registry under a name.
package schema
