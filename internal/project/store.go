package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/foundryhq/foundry/internal/task"
)

const (
	manifestFile = "config.yaml"
	specsDir     = "specs"
)

// Store is the file-backed artifact store rooted at a .foundry directory.
type Store struct {
	root string
}

// NewStore returns a store rooted at root. The directory need not exist
// until Init or the first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's directory.
func (s *Store) Root() string { return s.root }

// Initialized reports whether a project manifest exists.
func (s *Store) Initialized() bool {
	_, err := os.Stat(filepath.Join(s.root, manifestFile))
	return err == nil
}

// Init creates the artifact directory and writes a fresh manifest.
// Initializing an already-initialized store is an error: overwriting the
// manifest would drop the spec-to-parent mappings.
func (s *Store) Init(name string) (*Project, error) {
	if s.Initialized() {
		return nil, fmt.Errorf("project already initialized at %s", s.root)
	}
	if err := os.MkdirAll(filepath.Join(s.root, specsDir), 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", s.root, err)
	}

	p := &Project{
		Name:    name,
		Created: time.Now().UTC().Truncate(time.Second),
		Parents: map[string]string{},
	}
	if err := s.saveManifest(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads the project manifest.
func (s *Store) Load() (*Project, error) {
	data, err := os.ReadFile(filepath.Join(s.root, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("reading project manifest: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project manifest: %w", err)
	}
	if p.Parents == nil {
		p.Parents = map[string]string{}
	}
	return &p, nil
}

// SetParent records the tracker parent issue for a spec and persists the
// manifest.
func (s *Store) SetParent(slug, externalRef string) error {
	p, err := s.Load()
	if err != nil {
		return err
	}
	p.Parents[slug] = externalRef
	return s.saveManifest(p)
}

func (s *Store) saveManifest(p *Project) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding project manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(s.root, manifestFile), data, 0644)
}

// CreateSpec writes a new specification skeleton and returns it. The slug
// is derived from the title with the same slugifier tasks use.
func (s *Store) CreateSpec(title string) (*Spec, error) {
	slug := task.Key(title)
	if slug == "" {
		return nil, fmt.Errorf("title %q produces an empty slug", title)
	}
	path := s.specPath(slug)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("spec %q already exists", slug)
	}

	sp := &Spec{
		Slug:    slug,
		Title:   title,
		Created: time.Now().UTC().Truncate(time.Second),
		Body:    fmt.Sprintf("# %s\n\n## Overview\n\n## Tasks\n\n- [ ] Define the first task\n", title),
	}
	if err := s.writeSpec(sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// GetSpec loads one specification by slug.
func (s *Store) GetSpec(slug string) (*Spec, error) {
	data, err := os.ReadFile(s.specPath(slug))
	if err != nil {
		return nil, fmt.Errorf("reading spec %q: %w", slug, err)
	}
	sp, err := decodeSpec(data)
	if err != nil {
		return nil, fmt.Errorf("parsing spec %q: %w", slug, err)
	}
	sp.Slug = slug
	return sp, nil
}

// ListSpecs returns all spec slugs, sorted.
func (s *Store) ListSpecs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, specsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing specs: %w", err)
	}
	var slugs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(slugs)
	return slugs, nil
}

// UpdateTasks replaces the "## Tasks" section of a spec with the given
// checklist Markdown and persists it.
func (s *Store) UpdateTasks(slug, checklist string) (*Spec, error) {
	sp, err := s.GetSpec(slug)
	if err != nil {
		return nil, err
	}
	sp.Body = ReplaceTasksSection(sp.Body, checklist)
	if err := s.writeSpec(sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// SaveSpec persists an in-memory spec (used after front matter changes
// such as recording the parent issue).
func (s *Store) SaveSpec(sp *Spec) error {
	return s.writeSpec(sp)
}

func (s *Store) specPath(slug string) string {
	return filepath.Join(s.root, specsDir, slug+".md")
}

func (s *Store) writeSpec(sp *Spec) error {
	if err := os.MkdirAll(filepath.Join(s.root, specsDir), 0755); err != nil {
		return fmt.Errorf("creating specs dir: %w", err)
	}
	data, err := encodeSpec(sp)
	if err != nil {
		return err
	}
	return os.WriteFile(s.specPath(sp.Slug), data, 0644)
}

const frontMatterDelim = "---\n"

func encodeSpec(sp *Spec) ([]byte, error) {
	meta, err := yaml.Marshal(sp)
	if err != nil {
		return nil, fmt.Errorf("encoding spec front matter: %w", err)
	}
	var b strings.Builder
	b.WriteString(frontMatterDelim)
	b.Write(meta)
	b.WriteString(frontMatterDelim)
	b.WriteString("\n")
	b.WriteString(strings.TrimLeft(sp.Body, "\n"))
	return []byte(b.String()), nil
}

func decodeSpec(data []byte) (*Spec, error) {
	text := string(data)
	var sp Spec
	if !strings.HasPrefix(text, frontMatterDelim) {
		// Legacy spec without front matter: the whole file is body.
		sp.Body = text
		return &sp, nil
	}
	rest := text[len(frontMatterDelim):]
	end := strings.Index(rest, frontMatterDelim)
	if end < 0 {
		return nil, fmt.Errorf("unterminated front matter")
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &sp); err != nil {
		return nil, err
	}
	sp.Body = strings.TrimLeft(rest[end+len(frontMatterDelim):], "\n")
	return &sp, nil
}
