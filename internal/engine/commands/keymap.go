package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/scribe/internal/engine/schema"
)

// ErrInvalidKey indicates a key specification that cannot be parsed.
var ErrInvalidKey = errors.New("invalid key specification")

// Modifier names in canonical order. Mod is the platform's primary
// modifier; hosts translate Cmd or Ctrl to it before lookup.
var modifierOrder = []string{"Alt", "Ctrl", "Mod", "Shift"}

var modifierAliases = map[string]string{
	"alt":     "Alt",
	"a":       "Alt",
	"option":  "Alt",
	"ctrl":    "Ctrl",
	"control": "Ctrl",
	"c":       "Ctrl",
	"mod":     "Mod",
	"cmd":     "Mod",
	"meta":    "Mod",
	"m":       "Mod",
	"shift":   "Shift",
	"s":       "Shift",
}

var keyAliases = map[string]string{
	"space":     "Space",
	" ":         "Space",
	"enter":     "Enter",
	"return":    "Enter",
	"cr":        "Enter",
	"backspace": "Backspace",
	"bs":        "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"tab":       "Tab",
	"escape":    "Escape",
	"esc":       "Escape",
}

// NormalizeKey canonicalizes a key specification. Parts may be separated
// by '-' or '+' ("Mod-b", "Shift+Ctrl+1"); modifiers are reordered to
// Alt-Ctrl-Mod-Shift and single letters are lowercased.
func NormalizeKey(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	parts := strings.FieldsFunc(spec, func(r rune) bool { return r < utf8.RuneSelf && isSeparator(byte(r)) })
	// A trailing separator is the key itself ("Mod--", "Ctrl++").
	if last := spec[len(spec)-1]; (last == '-' || last == '+') && (len(spec) == 1 || isSeparator(spec[len(spec)-2])) {
		parts = append(parts, string(last))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, spec)
	}

	mods := make(map[string]bool)
	for _, p := range parts[:len(parts)-1] {
		name, ok := modifierAliases[strings.ToLower(p)]
		if !ok {
			return "", fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidKey, p, spec)
		}
		mods[name] = true
	}

	key := parts[len(parts)-1]
	if alias, ok := keyAliases[strings.ToLower(key)]; ok {
		key = alias
	} else if utf8.RuneCountInString(key) == 1 {
		key = strings.ToLower(key)
	}

	var b strings.Builder
	for _, m := range modifierOrder {
		if mods[m] {
			b.WriteString(m)
			b.WriteByte('-')
		}
	}
	b.WriteString(key)
	return b.String(), nil
}

func isSeparator(c byte) bool { return c == '-' || c == '+' }

// Keymap binds normalized key specifications to commands.
type Keymap struct {
	bindings map[string]Command
}

// NewKeymap creates an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[string]Command)}
}

// Bind associates spec with cmd, replacing an earlier binding.
func (k *Keymap) Bind(spec string, cmd Command) error {
	key, err := NormalizeKey(spec)
	if err != nil {
		return err
	}
	k.bindings[key] = cmd
	return nil
}

// Lookup returns the command bound to spec.
func (k *Keymap) Lookup(spec string) (Command, bool) {
	key, err := NormalizeKey(spec)
	if err != nil {
		return nil, false
	}
	cmd, ok := k.bindings[key]
	return cmd, ok
}

// Keys returns the bound key specifications.
func (k *Keymap) Keys() []string {
	keys := make([]string, 0, len(k.bindings))
	for key := range k.bindings {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of bindings.
func (k *Keymap) Len() int { return len(k.bindings) }

// BuildKeymap binds the formatting commands s supports:
//
//	Mod-b, Mod-i, Mod-u, Mod-`   strong, em, underline, code
//	Shift-Ctrl-0                 paragraph
//	Shift-Ctrl-1 .. 6            heading levels
//	Shift-Ctrl-\                 code block
//
// Bindings for types missing from s are skipped.
func BuildKeymap(s *schema.Schema) *Keymap {
	k := NewKeymap()
	bind := func(spec string, cmd Command) {
		// The specs below are literals known to parse.
		_ = k.Bind(spec, cmd)
	}

	for spec, name := range map[string]string{
		"Mod-b": "strong",
		"Mod-i": "em",
		"Mod-u": "underline",
		"Mod-`": "code",
	} {
		if mt, ok := s.MarkType(name); ok {
			bind(spec, ToggleMark(mt, nil))
		}
	}

	if nt, ok := s.NodeType("paragraph"); ok && nt.IsTextblock() {
		bind("Shift-Ctrl-0", SetBlockType(nt, nil))
	}
	if nt, ok := s.NodeType("heading"); ok && nt.IsTextblock() {
		for level := 1; level <= 6; level++ {
			bind("Shift-Ctrl-"+strconv.Itoa(level), SetBlockType(nt, map[string]any{"level": level}))
		}
	}
	if nt, ok := s.NodeType("code_block"); ok && nt.IsTextblock() {
		bind(`Shift-Ctrl-\`, SetBlockType(nt, nil))
	}
	return k
}
