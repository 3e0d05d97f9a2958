package registry

import (
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

// Registry is the static catalog of indexed data sources. It is built once at
// process start and never mutated.
type Registry struct {
	sources []models.Source
	byID    map[string]models.Source
}

// Default returns the registry of sources the pipeline knows how to query.
func Default() *Registry {
	return New([]models.Source{
		{
			ID:          "uniswap-v3-base",
			DisplayName: "Uniswap V3 (Base)",
			Protocol:    "uniswap-v3",
			Network:     "base",
			Domain:      models.DomainDex,
			SubgraphID:  "43Hwfi3dJSoGpyas9VwNoDAv55yjgGrPpNSmbQZArzMG",
		},
		{
			ID:          "aerodrome-base",
			DisplayName: "Aerodrome (Base)",
			Protocol:    "aerodrome",
			Network:     "base",
			Domain:      models.DomainDex,
			SubgraphID:  "GENunSHWLBXm59mBSgPzQ8metBEp9YDfdqwFr91Av1UM",
		},
		{
			ID:          "aave-v3-base",
			DisplayName: "Aave V3 (Base)",
			Protocol:    "aave-v3",
			Network:     "base",
			Domain:      models.DomainLending,
			SubgraphID:  "GQFbb95cE6d8mV989mL5figjaGaKCQB3xqYrr1bRyXqF",
		},
		{
			ID:          "moonwell-base",
			DisplayName: "Moonwell (Base)",
			Protocol:    "moonwell",
			Network:     "base",
			Domain:      models.DomainLending,
			SubgraphID:  "7qEJyoEXGtabr1b8uqYTecC8DFrbMrUfWWc2graxEuPH",
			// Moonwell's subgraph exposes flat borrow/deposit rows without
			// nested market/token relations.
			FlatSchema: true,
		},
		{
			ID:          "zora-base",
			DisplayName: "Zora (Base)",
			Protocol:    "zora",
			Network:     "base",
			Domain:      models.DomainNFT,
			SubgraphID:  "9q1PnhnqNcaDW6WQKE2MfFFxwLvheYYuZVkLnRKVskfs",
		},
		{
			ID:          "synfutures-base",
			DisplayName: "SynFutures (Base)",
			Protocol:    "synfutures",
			Network:     "base",
			Domain:      models.DomainDerivatives,
			SubgraphID:  "3Ny9coYUTVBKgdRfRFkbQZCsdY6ZTNSHsZvBHPBzMYL2",
		},
	})
}

// New builds a registry from an explicit source list. Duplicate IDs panic:
// the catalog is compiled in, so a duplicate is a programming error.
func New(sources []models.Source) *Registry {
	byID := make(map[string]models.Source, len(sources))
	for _, s := range sources {
		if _, exists := byID[s.ID]; exists {
			panic(fmt.Sprintf("registry: duplicate source id %q", s.ID))
		}
		byID[s.ID] = s
	}
	return &Registry{sources: sources, byID: byID}
}

// All returns every registered source.
func (r *Registry) All() []models.Source {
	out := make([]models.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// ByDomain returns all sources for one domain, in registration order.
func (r *Registry) ByDomain(domain models.DomainType) []models.Source {
	var out []models.Source
	for _, s := range r.sources {
		if s.Domain == domain {
			out = append(out, s)
		}
	}
	return out
}

// Get looks up a source by ID.
func (r *Registry) Get(id string) (models.Source, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Endpoint resolves a source to its query URL under the given gateway base.
func (r *Registry) Endpoint(s models.Source, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	return fmt.Sprintf("%s/subgraphs/id/%s", base, s.SubgraphID)
}
