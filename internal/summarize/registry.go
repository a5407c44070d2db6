package summarize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when no language is requested and as the label
// fallback for unknown languages.
const DefaultLanguage = "en"

// Mode selects the instruction body of a template.
type Mode int

const (
	Standard Mode = iota
	Podcast
)

func (m Mode) String() string {
	if m == Podcast {
		return "podcast"
	}
	return "standard"
}

// ParseMode accepts "standard" or "podcast" (case-insensitive, "" = standard).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return Standard, nil
	case "podcast":
		return Podcast, nil
	}
	return Standard, fmt.Errorf("unknown summary mode %q (want standard or podcast)", s)
}

// Labels are the localized section headings shared by both modes.
type Labels struct {
	Title     string `yaml:"title"`
	Overview  string `yaml:"overview"`
	KeyPoints string `yaml:"key_points"`
	Takeaways string `yaml:"takeaways"`
	Context   string `yaml:"context"`
}

// All returns the labels in section order.
func (l Labels) All() []string {
	return []string{l.Title, l.Overview, l.KeyPoints, l.Takeaways, l.Context}
}

func (l Labels) withDefaults(d Labels) Labels {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return Labels{
		Title:     pick(l.Title, d.Title),
		Overview:  pick(l.Overview, d.Overview),
		KeyPoints: pick(l.KeyPoints, d.KeyPoints),
		Takeaways: pick(l.Takeaways, d.Takeaways),
		Context:   pick(l.Context, d.Context),
	}
}

// Locale is one configured language.
type Locale struct {
	Name   string `yaml:"name"`
	Labels Labels `yaml:"labels"`
}

// Template is a resolved prompt set for one language and mode.
type Template struct {
	Language string // requested code, even when Labels fell back to English
	Name     string // display name used in instructions
	Mode     Mode
	Labels   Labels
	System   string

	// PartialSystem frames per-chunk notes in multi-chunk runs.
	PartialSystem string
}

// User builds the single-shot instruction for text.
func (t Template) User(text string) string {
	keys, takeaways, context, framing := standardKeyPoints, standardTakeaways, standardContext, standardFraming
	if t.Mode == Podcast {
		keys, takeaways, context, framing = podcastKeyPoints, podcastTakeaways, podcastContext, podcastFraming
	}
	return fmt.Sprintf(summaryPrompt, t.Name,
		t.Labels.Title,
		t.Labels.Overview,
		t.Labels.KeyPoints, keys,
		t.Labels.Takeaways, takeaways,
		t.Labels.Context, context,
		framing, text)
}

// Partial builds the map instruction for part i (1-based) of n.
func (t Template) Partial(text string, i, n int) string {
	return fmt.Sprintf(partialPrompt, i, n, text)
}

// Reduce builds the instruction that merges partial notes, in order.
func (t Template) Reduce(partials []string) string {
	return fmt.Sprintf(reducePrompt, len(partials), t.User(JoinParts(partials)))
}

// JoinParts concatenates partial notes with "=== PART i/N ===" separators.
func JoinParts(partials []string) string {
	var b strings.Builder
	for i, p := range partials {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== PART %d/%d ===\n%s", i+1, len(partials), strings.TrimSpace(p))
	}
	return b.String()
}

// Registry resolves prompt templates by language code.
type Registry struct {
	mu      sync.RWMutex
	locales map[string]Locale
}

// NewRegistry returns a registry holding the built-in locales.
func NewRegistry() *Registry {
	r := &Registry{locales: make(map[string]Locale, len(builtinLocales))}
	for code, loc := range builtinLocales {
		r.locales[code] = loc
	}
	return r
}

// Languages lists the configured language codes, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.locales))
	for code := range r.locales {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Resolve returns the template for lang and mode. Unknown languages get the
// English labels while the instructions still ask for lang.
func (r *Registry) Resolve(lang string, mode Mode) Template {
	code := normalizeCode(lang)
	if code == "" {
		code = DefaultLanguage
	}

	r.mu.RLock()
	en := r.locales[DefaultLanguage]
	loc, ok := r.locales[code]
	r.mu.RUnlock()

	name := loc.Name
	labels := loc.Labels.withDefaults(en.Labels)
	if !ok {
		name = "the language with code " + code
		labels = en.Labels
	}
	return Template{
		Language:      code,
		Name:          name,
		Mode:          mode,
		Labels:        labels,
		System:        fmt.Sprintf(systemPrompt, name, code),
		PartialSystem: fmt.Sprintf(partialSystemPrompt, name, code),
	}
}

// templateFile is the YAML layout accepted by Load:
//
//	locales:
//	  uk:
//	    name: Ukrainian
//	    labels: {title: НАЗВА, overview: ОГЛЯД, ...}
type templateFile struct {
	Locales map[string]Locale `yaml:"locales"`
}

// LoadFile merges the locales in a YAML file into the registry.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open templates: %w", err)
	}
	defer f.Close()
	if err := r.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Load merges locales from YAML. Entries replace built-ins with the same
// code; labels left empty keep the existing (or English) value.
func (r *Registry) Load(rd io.Reader) error {
	var tf templateFile
	if err := yaml.NewDecoder(rd).Decode(&tf); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode templates: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for raw, loc := range tf.Locales {
		code := normalizeCode(raw)
		if code == "" {
			return errors.New("locale with empty language code")
		}
		base, ok := r.locales[code]
		if !ok {
			base = r.locales[DefaultLanguage]
			base.Name = code
		}
		if loc.Name == "" {
			loc.Name = base.Name
		}
		loc.Labels = loc.Labels.withDefaults(base.Labels)
		r.locales[code] = loc
	}
	return nil
}

func normalizeCode(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
