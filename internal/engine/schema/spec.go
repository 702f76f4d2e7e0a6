package schema

// AttrSpec declares one attribute of a node or mark type.
// An attribute without a default is required.
type AttrSpec struct {
	Default    any  `mapstructure:"default" yaml:"default" toml:"default"`
	HasDefault bool `mapstructure:"-" yaml:"-" toml:"-"`
}

// Attr returns an optional attribute with the given default value.
func Attr(def any) AttrSpec {
	return AttrSpec{Default: def, HasDefault: true}
}

// Required returns an attribute that must always be supplied.
func Required() AttrSpec {
	return AttrSpec{}
}

// DOMSpec maps a type to HTML output.
type DOMSpec struct {
	// Tag is the element name. When TagAttr is set the attribute value is
	// appended to it, so Tag "h" with level 2 renders <h2>.
	Tag     string `mapstructure:"tag"`
	TagAttr string `mapstructure:"tagAttr"`

	// Attrs are constant HTML attributes written on every element.
	Attrs map[string]string `mapstructure:"attrs"`

	// AttrMap maps type attribute names to HTML attribute names. It is used
	// for both rendering and parsing.
	AttrMap map[string]string `mapstructure:"attrMap"`
}

// ParseRule recognises an HTML element as an instance of a type.
type ParseRule struct {
	Tag string `mapstructure:"tag"`

	// Match lists HTML attributes the element must carry. An empty value
	// only requires presence.
	Match map[string]string `mapstructure:"match"`

	// Attrs are fixed type attributes assigned on a match, applied before
	// values read through DOMSpec.AttrMap.
	Attrs map[string]any `mapstructure:"attrs"`
}

// NodeSpec describes a node type before compilation.
type NodeSpec struct {
	Name string `mapstructure:"name"`

	// Content is the content expression, e.g. "paragraph+" or "(text | image)*".
	// Empty means the node is a leaf.
	Content string `mapstructure:"content"`

	// Marks lists the mark names or groups allowed on this node's children.
	// nil uses the default (all marks for inline content, none otherwise),
	// "_" allows all marks and "" allows none.
	Marks *string `mapstructure:"marks"`

	// Group is a space-separated list of groups this type belongs to.
	Group string `mapstructure:"group"`

	Inline    bool `mapstructure:"inline"`
	Atom      bool `mapstructure:"atom"`
	Isolating bool `mapstructure:"isolating"`
	Defining  bool `mapstructure:"defining"`
	Code      bool `mapstructure:"code"`

	Attrs map[string]AttrSpec `mapstructure:"-"`

	DOM   DOMSpec     `mapstructure:"dom"`
	Parse []ParseRule `mapstructure:"parse"`
}

// MarkSpec describes a mark type before compilation.
type MarkSpec struct {
	Name  string              `mapstructure:"name"`
	Attrs map[string]AttrSpec `mapstructure:"-"`

	// Inclusive controls whether text typed at the mark's end boundary
	// receives the mark. nil means true.
	Inclusive *bool `mapstructure:"inclusive"`

	// Excludes is a space-separated list of marks or groups that cannot
	// coexist with this one. nil means the mark only excludes itself;
	// "_" excludes all marks.
	Excludes *string `mapstructure:"excludes"`

	Group string `mapstructure:"group"`

	DOM   DOMSpec     `mapstructure:"dom"`
	Parse []ParseRule `mapstructure:"parse"`
}

// Spec is the full, ordered input to New. Order matters: the first node
// spec is the top node unless TopNode is set, and mark order decides the
// nesting order of marks in a set.
type Spec struct {
	Nodes []NodeSpec `mapstructure:"nodes"`
	Marks []MarkSpec `mapstructure:"marks"`

	// TopNode names the document root type. Defaults to "doc" when present,
	// else the first node spec.
	TopNode string `mapstructure:"topNode"`

	// DefaultBlock names the block used for unrecognised block-level HTML.
	// Defaults to the first textblock in the top node's content that needs
	// no attributes.
	DefaultBlock string `mapstructure:"defaultBlock"`
}

// StringPtr is a convenience for the optional string fields of a spec.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr is a convenience for the optional bool fields of a spec.
func BoolPtr(b bool) *bool {
	return &b
}
