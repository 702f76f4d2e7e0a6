package schema

import "sync"

var (
	letterOnce   sync.Once
	letterSchema *Schema
)

// Letter returns the structured correspondence schema. A document holds a
// single letter whose parts appear in a fixed order.
func Letter() *Schema {
	letterOnce.Do(func() {
		letterSchema = MustNew(LetterSpec())
	})
	return letterSchema
}

// letterPart builds a section of a letter rendered as tag with a marker
// data attribute.
func letterPart(name, content, tag, marker string) NodeSpec {
	return NodeSpec{
		Name:    name,
		Content: content,
		DOM:     DOMSpec{Tag: tag, Attrs: map[string]string{marker: "true"}},
		Parse:   []ParseRule{{Tag: tag, Match: map[string]string{marker: ""}}},
	}
}

// LetterSpec returns a fresh copy of the spec behind Letter.
func LetterSpec() Spec {
	letter := letterPart("letter",
		"header confidentiality? recipient accessibility_notice? date case_reference? salutation subject body signoff",
		"article", "data-letter")
	letter.Defining = true

	header := letterPart("header", "logo org_details", "header", "data-header")
	header.Isolating = true

	logo := letterPart("logo", "", "div", "data-logo")
	logo.Atom = true

	accessibility := letterPart("accessibility_notice", "paragraph+", "aside", "data-accessibility")
	accessibility.Isolating = true

	recipient := letterPart("recipient", "paragraph+", "address", "data-recipient")
	recipient.Isolating = true

	caseRef := letterPart("case_reference", "paragraph+", "section", "data-case-ref")
	caseRef.Isolating = true

	subject := letterPart("subject", "text*", "p", "data-subject")
	subject.Defining = true

	trackAttrs := func() map[string]AttrSpec {
		return map[string]AttrSpec{"user": Required(), "timestamp": Required()}
	}
	trackAttrMap := map[string]string{"user": "data-user", "timestamp": "data-ts"}

	return Spec{
		TopNode:      "doc",
		DefaultBlock: "paragraph",
		Nodes: []NodeSpec{
			{Name: "doc", Content: "letter"},
			{Name: "text", Group: "inline"},
			letter,
			header,
			logo,
			letterPart("org_details", "paragraph+", "div", "data-org-details"),
			letterPart("confidentiality", "text*", "p", "data-confidential"),
			accessibility,
			recipient,
			letterPart("date", "text*", "p", "data-date"),
			caseRef,
			letterPart("salutation", "text*", "p", "data-salutation"),
			subject,
			letterPart("body", "block+", "section", "data-body"),
			letterPart("signoff", "paragraph+", "section", "data-signoff"),
			{
				Name:    "paragraph",
				Content: "inline*",
				Group:   "block",
				DOM:     DOMSpec{Tag: "p"},
				Parse:   []ParseRule{{Tag: "p"}},
			},
		},
		Marks: []MarkSpec{
			{Name: "strong", DOM: DOMSpec{Tag: "strong"}, Parse: []ParseRule{{Tag: "strong"}, {Tag: "b"}}},
			{Name: "em", DOM: DOMSpec{Tag: "em"}, Parse: []ParseRule{{Tag: "em"}, {Tag: "i"}}},
			{
				Name:      "link",
				Attrs:     map[string]AttrSpec{"href": Required()},
				Inclusive: BoolPtr(false),
				DOM:       DOMSpec{Tag: "a", AttrMap: map[string]string{"href": "href"}},
				Parse:     []ParseRule{{Tag: "a", Match: map[string]string{"href": ""}}},
			},
			{
				Name:      "insertion",
				Attrs:     trackAttrs(),
				Inclusive: BoolPtr(true),
				DOM: DOMSpec{
					Tag:     "span",
					Attrs:   map[string]string{"data-inserted": "true"},
					AttrMap: trackAttrMap,
				},
				Parse: []ParseRule{{Tag: "span", Match: map[string]string{"data-inserted": ""}}},
			},
			{
				Name:      "deletion",
				Attrs:     trackAttrs(),
				Inclusive: BoolPtr(false),
				DOM: DOMSpec{
					Tag:     "span",
					Attrs:   map[string]string{"data-deleted": "true"},
					AttrMap: trackAttrMap,
				},
				Parse: []ParseRule{{Tag: "span", Match: map[string]string{"data-deleted": ""}}},
			},
		},
	}
}
