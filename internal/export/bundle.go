package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/visloom/internal/utils"
	"github.com/KaramelBytes/visloom/internal/vis"
)

// Bundle is the on-disk form of an export: renderer specs grouped by tab.
type Bundle struct {
	ID        uuid.UUID             `json:"id"`
	Source    string                `json:"source"`
	CreatedAt time.Time             `json:"created_at"`
	Current   []vis.Spec            `json:"current,omitempty"`
	Tabs      map[string][]vis.Spec `json:"tabs,omitempty"`
	Warnings  []string              `json:"warnings,omitempty"`
}

// NewBundle renders res. Plot config failures become warnings and the
// affected specs fall back to their unconfigured form.
func NewBundle(source string, res *Result) *Bundle {
	b := &Bundle{
		ID:        uuid.New(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Tabs:      map[string][]vis.Spec{},
	}
	if res.Warning != "" {
		b.Warnings = append(b.Warnings, res.Warning)
	}
	if res.Collection != nil && res.Action != "" {
		b.add(res.Action, res.Collection)
	}
	tabs := make([]string, 0, len(res.Tabs))
	for tab := range res.Tabs {
		tabs = append(tabs, tab)
	}
	sort.Strings(tabs)
	for _, tab := range tabs {
		b.add(tab, res.Tabs[tab])
	}
	return b
}

func (b *Bundle) add(tab string, col *vis.Collection) {
	specs, err := col.Specs()
	if err != nil {
		b.Warnings = append(b.Warnings, fmt.Sprintf("%s: %v", tab, err))
	}
	if specs == nil {
		specs = []vis.Spec{}
	}
	if tab == CurrentVisLabel {
		b.Current = specs
		return
	}
	b.Tabs[tab] = specs
}

// Count returns the number of specs in the bundle.
func (b *Bundle) Count() int {
	n := len(b.Current)
	for _, s := range b.Tabs {
		n += len(s)
	}
	return n
}

// Write stores the bundle as indented JSON, replacing path atomically.
func (b *Bundle) Write(path string) error {
	data, err := utils.PrettyJSON(b)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// LoadBundle reads a bundle written by Write.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}
