package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/scribe.toml", `
[history]
depth = 50
newGroupDelay = "250ms"

[tracking]
enabled = true
user = "alice"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/scribe.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if v, _ := GetByPath(config, "history.depth"); v != int64(50) {
		t.Errorf("history.depth = %v (%T), want 50", v, v)
	}
	if v, _ := GetByPath(config, "history.newGroupDelay"); v != "250ms" {
		t.Errorf("history.newGroupDelay = %v, want 250ms", v)
	}
	if v, _ := GetByPath(config, "tracking.user"); v != "alice" {
		t.Errorf("tracking.user = %v, want alice", v)
	}
}

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/scribe.yaml", `
log:
  level: debug
  format: json
store:
  backend: redis
  redis:
    addr: localhost:6380
    db: 2
`)

	config, err := NewYAMLLoaderWithFS(memfs, "/scribe.yaml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if v, _ := GetByPath(config, "log.level"); v != "debug" {
		t.Errorf("log.level = %v, want debug", v)
	}
	if v, _ := GetByPath(config, "store.redis.addr"); v != "localhost:6380" {
		t.Errorf("store.redis.addr = %v, want localhost:6380", v)
	}
	if v, _ := GetByPath(config, "store.redis.db"); v != 2 {
		t.Errorf("store.redis.db = %v (%T), want 2", v, v)
	}
}

func TestFileLoader_MissingFile(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/missing.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config != nil {
		t.Errorf("config = %v, want nil", config)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[history]\ndepth = = 3\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Path != "/bad.toml" {
		t.Errorf("Path = %q, want /bad.toml", perr.Path)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2", perr.Line)
	}
	if !strings.Contains(perr.Error(), "line 2") {
		t.Errorf("Error() = %q, want line number", perr.Error())
	}
}

func TestYAMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.yaml", "log: [unterminated\n")

	_, err := NewYAMLLoaderWithFS(memfs, "/bad.yaml").Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestLoadFromReader(t *testing.T) {
	l := NewYAMLLoader("")
	config, err := l.LoadFromReader(strings.NewReader("schema:\n  name: letter\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if v, _ := GetByPath(config, "schema.name"); v != "letter" {
		t.Errorf("schema.name = %v, want letter", v)
	}
}

func TestLoadWithIncludes(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/etc/scribe/base.toml", `
[history]
depth = 10

[log]
level = "warn"
`)
	memfs.AddFile("/etc/scribe/scribe.toml", `
include = "base.toml"

[history]
depth = 20
`)

	l := NewTOMLLoaderWithFS(memfs, "/etc/scribe/scribe.toml")
	config, err := l.LoadWithIncludes("/etc/scribe/scribe.toml", 3)
	if err != nil {
		t.Fatalf("LoadWithIncludes failed: %v", err)
	}

	if v, _ := GetByPath(config, "history.depth"); v != int64(20) {
		t.Errorf("history.depth = %v, want 20 (including file wins)", v)
	}
	if v, _ := GetByPath(config, "log.level"); v != "warn" {
		t.Errorf("log.level = %v, want warn from include", v)
	}
	if _, ok := config[IncludeKey]; ok {
		t.Error("include directive should be removed")
	}
}

func TestLoadWithIncludes_Cycle(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.yaml", "include: b.yaml\n")
	memfs.AddFile("/b.yaml", "include: a.yaml\n")

	l := NewYAMLLoaderWithFS(memfs, "/a.yaml")
	_, err := l.LoadWithIncludes("/a.yaml", 4)
	if !errors.Is(err, ErrIncludeDepth) {
		t.Fatalf("error = %v, want ErrIncludeDepth", err)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"scribe.toml", "*loader.TOMLLoader", false},
		{"scribe.yaml", "*loader.YAMLLoader", false},
		{"scribe.YML", "*loader.YAMLLoader", false},
		{"scribe.json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			l, err := ForFile(NewMemFS(), tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForFile(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch l.(type) {
			case *TOMLLoader:
				if tt.want != "*loader.TOMLLoader" {
					t.Errorf("got TOML loader, want %s", tt.want)
				}
			case *YAMLLoader:
				if tt.want != "*loader.YAMLLoader" {
					t.Errorf("got YAML loader, want %s", tt.want)
				}
			}
		})
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"history": map[string]any{"depth": 10, "newGroupDelay": "1s"},
		"log":     map[string]any{"level": "info"},
	}
	src := map[string]any{
		"history": map[string]any{"depth": 20},
		"log":     "off",
	}

	got := DeepMerge(dst, src)

	if v, _ := GetByPath(got, "history.depth"); v != 20 {
		t.Errorf("history.depth = %v, want 20", v)
	}
	if v, _ := GetByPath(got, "history.newGroupDelay"); v != "1s" {
		t.Errorf("history.newGroupDelay = %v, want 1s", v)
	}
	if got["log"] != "off" {
		t.Errorf("log = %v, want scalar to replace map", got["log"])
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{
		"store": map[string]any{"redis": map[string]any{"addr": "a"}},
		"list":  []any{map[string]any{"x": 1}},
	}
	c := Clone(src)
	SetByPath(c, "store.redis.addr", "b")

	if v, _ := GetByPath(src, "store.redis.addr"); v != "a" {
		t.Errorf("source mutated: store.redis.addr = %v", v)
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
