// Package seed loads a domain/persona catalog from YAML into the store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ashureev/cleia/internal/domain"
	"github.com/ashureev/cleia/internal/store"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML document accepted by the seed command.
type Catalog struct {
	Domains []DomainEntry `yaml:"domains"`
}

// DomainEntry is one domain with its personas.
type DomainEntry struct {
	Name        string         `yaml:"name"`
	Description *string        `yaml:"description"`
	Personas    []PersonaEntry `yaml:"personas"`
}

// PersonaEntry is one persona. InitialPrompt is only settable through seeding.
type PersonaEntry struct {
	Name              string  `yaml:"name"`
	Role              string  `yaml:"role"`
	BackgroundStory   string  `yaml:"background_story"`
	PersonalityTraits *string `yaml:"personality_traits"`
	InitialPrompt     string  `yaml:"initial_prompt"`
}

// Result counts the rows written by Apply.
type Result struct {
	DomainsCreated  int
	DomainsExisting int
	PersonasCreated int
	PersonasSkipped int
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Debug("Failed to close catalog file", "path", path, "error", closeErr)
		}
	}()
	return Load(f)
}

// Load decodes and validates a catalog. Unknown keys are rejected.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks required fields and duplicate names.
func (c *Catalog) Validate() error {
	if len(c.Domains) == 0 {
		return errors.New("catalog has no domains")
	}
	seen := make(map[string]bool, len(c.Domains))
	for i, d := range c.Domains {
		if d.Name == "" {
			return fmt.Errorf("domain %d: name is required", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("domain %q: duplicate name", d.Name)
		}
		seen[d.Name] = true

		for j, p := range d.Personas {
			if p.Name == "" || p.Role == "" || p.BackgroundStory == "" {
				return fmt.Errorf("domain %q persona %d: name, role and background_story are required", d.Name, j)
			}
		}
	}
	return nil
}

// Apply writes the catalog. Domains are matched by name and personas by name
// within their domain, so re-running a seed only adds what is missing.
func Apply(ctx context.Context, repo store.Repository, c *Catalog) (Result, error) {
	var res Result

	existing, err := repo.ListDomains(ctx)
	if err != nil {
		return res, fmt.Errorf("list domains: %w", err)
	}
	domainIDs := make(map[string]int64, len(existing))
	for _, d := range existing {
		domainIDs[d.Name] = d.ID
	}

	for _, d := range c.Domains {
		id, ok := domainIDs[d.Name]
		if ok {
			res.DomainsExisting++
		} else {
			id, err = repo.CreateDomain(ctx, d.Name, d.Description)
			if err != nil {
				return res, fmt.Errorf("create domain %q: %w", d.Name, err)
			}
			domainIDs[d.Name] = id
			res.DomainsCreated++
		}

		personas, err := repo.ListPersonas(ctx, id)
		if err != nil {
			return res, fmt.Errorf("list personas of %q: %w", d.Name, err)
		}
		names := make(map[string]bool, len(personas))
		for _, p := range personas {
			names[p.Name] = true
		}

		for _, p := range d.Personas {
			if names[p.Name] {
				res.PersonasSkipped++
				continue
			}
			if _, err := repo.CreatePersona(ctx, domain.NewPersona{
				DomainID:          id,
				Name:              p.Name,
				Role:              p.Role,
				BackgroundStory:   p.BackgroundStory,
				PersonalityTraits: p.PersonalityTraits,
				InitialPrompt:     p.InitialPrompt,
			}); err != nil {
				return res, fmt.Errorf("create persona %q: %w", p.Name, err)
			}
			names[p.Name] = true
			res.PersonasCreated++
		}
	}

	slog.Info("Catalog seeded",
		"domains_created", res.DomainsCreated,
		"domains_existing", res.DomainsExisting,
		"personas_created", res.PersonasCreated,
		"personas_skipped", res.PersonasSkipped,
	)
	return res, nil
}
