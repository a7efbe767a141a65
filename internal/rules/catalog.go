package rules

import (
	"fmt"
	"sync/atomic"
)

// Catalog is an immutable, versioned rule set. It is built once (by the
// loader) and never mutated; hot reload replaces the whole catalog behind a
// Provider.
type Catalog struct {
	Version   string
	Languages []string
	Rules     []Rule

	// Policies maps a rule's policy_ref to its citation text.
	Policies map[string]string

	byID map[string]*Rule
}

// NewCatalog validates rules and builds the lookup index.
func NewCatalog(version string, languages []string, ruleSet []Rule, policies map[string]string) (*Catalog, error) {
	if version == "" {
		return nil, fmt.Errorf("catalog version is required")
	}
	if len(languages) == 0 {
		return nil, fmt.Errorf("catalog must declare at least one language")
	}

	byID := make(map[string]*Rule, len(ruleSet))
	for i := range ruleSet {
		rule := &ruleSet[i]
		if err := rule.Validate(languages); err != nil {
			return nil, err
		}
		if _, dup := byID[rule.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %s", rule.ID)
		}
		byID[rule.ID] = rule
	}

	return &Catalog{
		Version:   version,
		Languages: languages,
		Rules:     ruleSet,
		Policies:  policies,
		byID:      byID,
	}, nil
}

// RuleByID looks up a rule. The override adjudicator uses this to recover
// the severity of a decision's primary triggering rule.
func (c *Catalog) RuleByID(ruleID string) (*Rule, bool) {
	rule, ok := c.byID[ruleID]
	return rule, ok
}

// Provider hands out the current catalog and supports atomic hot reload.
// Readers never observe a partially-updated catalog: Swap replaces the whole
// pointer, and in-flight evaluations keep the catalog they started with.
type Provider struct {
	current atomic.Pointer[Catalog]
}

// NewProvider seeds a provider with the initial catalog.
func NewProvider(catalog *Catalog) (*Provider, error) {
	if catalog == nil {
		return nil, fmt.Errorf("initial catalog is required")
	}
	p := &Provider{}
	p.current.Store(catalog)
	return p, nil
}

// Current returns the catalog in effect right now.
func (p *Provider) Current() *Catalog {
	return p.current.Load()
}

// Swap atomically installs a new catalog and returns the previous version
// identifier. Rejects reloads that do not bump the version, since the
// what-if consistency check depends on version identity.
func (p *Provider) Swap(catalog *Catalog) (previousVersion string, err error) {
	if catalog == nil {
		return "", fmt.Errorf("catalog is required")
	}
	previous := p.current.Load()
	if previous.Version == catalog.Version {
		return "", fmt.Errorf("catalog reload must change the version (still %s)", catalog.Version)
	}
	p.current.Store(catalog)
	return previous.Version, nil
}
