// Package bank holds the static question catalog for the certification
// curriculum: four content modules plus the final assessment pool.
package bank

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

const (
	MinModuleID = 1
	MaxModuleID = 4

	// Every entry carries exactly this many answer options.
	OptionsPerQuestion = 4
)

// Entry is one catalog question. Entries are immutable after Load.
type Entry struct {
	ID            string   `json:"id"`
	ModuleID      int      `json:"module_id"`
	Prompt        string   `json:"prompt"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
}

// View is the learner-safe projection of an Entry (no correct answer).
type View struct {
	ID       string   `json:"id"`
	ModuleID int      `json:"module_id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
}

func (e Entry) View() View {
	return View{ID: e.ID, ModuleID: e.ModuleID, Prompt: e.Prompt, Options: append([]string(nil), e.Options...)}
}

// Catalog is the validated question bank.
type Catalog struct {
	entries []Entry
	byID    map[string]Entry
}

//go:embed questions.json
var embeddedCatalog []byte

// Load parses and validates a catalog from JSON.
func Load(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("bank: parse catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("bank: empty catalog")
	}
	byID := make(map[string]Entry, len(entries))
	for i, e := range entries {
		if err := validate(e); err != nil {
			return nil, fmt.Errorf("bank: entry %d (%s): %w", i, e.ID, err)
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("bank: duplicate id %s", e.ID)
		}
		byID[e.ID] = e
	}
	return &Catalog{entries: entries, byID: byID}, nil
}

// LoadEmbedded loads the catalog compiled into the binary.
func LoadEmbedded() (*Catalog, error) { return Load(embeddedCatalog) }

func validate(e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("missing id")
	}
	if e.ModuleID < MinModuleID || e.ModuleID > MaxModuleID {
		return fmt.Errorf("module_id %d out of range", e.ModuleID)
	}
	if e.Prompt == "" {
		return fmt.Errorf("missing prompt")
	}
	if len(e.Options) != OptionsPerQuestion {
		return fmt.Errorf("want %d options, got %d", OptionsPerQuestion, len(e.Options))
	}
	seen := map[string]bool{}
	found := false
	for _, o := range e.Options {
		if o == "" {
			return fmt.Errorf("empty option")
		}
		if seen[o] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = true
		if o == e.CorrectAnswer {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("correct answer not among options")
	}
	return nil
}

// All returns every entry in catalog order.
func (c *Catalog) All() []Entry { return append([]Entry(nil), c.entries...) }

// ForModule returns the entries belonging to one content module.
func (c *Catalog) ForModule(moduleID int) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.ModuleID == moduleID {
			out = append(out, e)
		}
	}
	return out
}

// Get looks up an entry by id.
func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

func (c *Catalog) Len() int { return len(c.entries) }
