package projection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cowboyai/genesis-issuer/internal/ids"
)

const manifestVersion = 1

// OrganizationEntry is the manifest's snapshot of the single organization a
// projection may ever hold.
type OrganizationEntry struct {
	ID          ids.ID `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Domain      string `json:"domain"`
}

// Entry is one manifest line item: an id, its creation time (derivable from
// the id itself), and its current lifecycle state where applicable.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	State     string    `json:"state,omitempty"`
}

// Manifest is the top-level index written to manifest.json: organization
// identity, per-section entity entries, and running counts. Schema changes
// bump Version rather than breaking the shape of an existing field.
type Manifest struct {
	Version       int              `json:"version"`
	Organization  *OrganizationEntry `json:"organization,omitempty"`
	Counts        map[string]int   `json:"counts"`
	People        map[string]Entry `json:"people,omitempty"`
	Locations     map[string]Entry `json:"locations,omitempty"`
	Keys          map[string]Entry `json:"keys,omitempty"`
	Certificates  map[string]Entry `json:"certificates,omitempty"`
	Smartcards    map[string]Entry `json:"smartcards,omitempty"`
	NatsOperators map[string]Entry `json:"nats_operators,omitempty"`
	NatsAccounts  map[string]Entry `json:"nats_accounts,omitempty"`
	NatsUsers     map[string]Entry `json:"nats_users,omitempty"`
	ServiceAccounts map[string]Entry `json:"service_accounts,omitempty"`
	Agents        map[string]Entry `json:"agents,omitempty"`
	Relationships map[string]Entry `json:"relationships,omitempty"`
	Policies      map[string]Entry `json:"policies,omitempty"`
}

func newManifest() *Manifest {
	return &Manifest{
		Version:         manifestVersion,
		Counts:          make(map[string]int),
		People:          make(map[string]Entry),
		Locations:       make(map[string]Entry),
		Keys:            make(map[string]Entry),
		Certificates:    make(map[string]Entry),
		Smartcards:      make(map[string]Entry),
		NatsOperators:   make(map[string]Entry),
		NatsAccounts:    make(map[string]Entry),
		NatsUsers:       make(map[string]Entry),
		ServiceAccounts: make(map[string]Entry),
		Agents:          make(map[string]Entry),
		Relationships:   make(map[string]Entry),
		Policies:        make(map[string]Entry),
	}
}

func manifestPath(root string) string {
	return filepath.Join(root, "manifest.json")
}

// loadManifest reads manifest.json if present; a missing file is an empty
// projection, not an error, so that Open can be called against a fresh root.
func loadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return newManifest(), nil
		}
		return nil, fmt.Errorf("projection: read manifest: %w", err)
	}
	m := newManifest()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("projection: decode manifest: %w", err)
	}
	return m, nil
}

func (m *Manifest) save(root string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("projection: encode manifest: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("projection: create root: %w", err)
	}
	if err := os.WriteFile(manifestPath(root), data, 0o644); err != nil {
		return fmt.Errorf("projection: write manifest: %w", err)
	}
	return nil
}
