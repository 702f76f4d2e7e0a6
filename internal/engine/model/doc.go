// Package model implements the immutable document tree.
//
// A document is a tree of Nodes. Non-text nodes hold a Fragment of
// children; text nodes hold a string and a set of Marks. Nothing is ever
// mutated: every edit builds new nodes along the path from the root to
// the edited region and shares every other subtree.
//
// # Positions
//
// Positions are integer offsets into the flattened token stream of a
// document. Entering and leaving a non-leaf node each take one position,
// a leaf takes one and text takes one per code point:
//
//	doc(paragraph("Hi"))
//	0   1          3   4
//
// Resolve turns a position into a ResolvedPos describing its ancestors.
//
// # Replacing
//
// Node.Replace fits a Slice (a fragment with open depths) into a range,
// joining open nodes on either side. The parent of every rebuilt region is
// checked against its content expression and the edit fails with
// ErrInvalidContent if it would break the schema.
package model
