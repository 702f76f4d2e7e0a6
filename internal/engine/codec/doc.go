// Package codec converts documents to and from JSON and HTML.
//
// JSON is exact: every node type, attribute and mark survives a round
// trip, and unknown names are a *ParseError. Steps and slices have JSON
// forms too, used by change records.
//
// HTML is semantic. Each type renders with the tag its DOMSpec declares
// and is recognised by its ParseRules. Text outside code blocks follows
// the single whitespace rule of NormalizeSpace.
package codec
