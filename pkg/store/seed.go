package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chainwatch/chainwatch/pkg/models"
)

// Profile is the seed file shape: the monitored company and its supplier
// base. The pipeline is read-only against both; edits happen by reseeding.
type Profile struct {
	Company   *models.Company    `yaml:"company"`
	Suppliers []*models.Supplier `yaml:"suppliers"`
}

// LoadProfile reads and validates a YAML seed file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return &p, nil
}

// Validate rejects profiles the pipeline cannot run with.
func (p *Profile) Validate() error {
	if p.Company == nil {
		return errors.New("company section is required")
	}
	if p.Company.ID == "" || p.Company.Name == "" {
		return errors.New("company id and name are required")
	}

	seen := map[string]bool{}
	names := map[string]bool{}
	for i, s := range p.Suppliers {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("supplier %d: id and name are required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate supplier id %q", s.ID)
		}
		seen[s.ID] = true
		if names[s.Name] {
			return fmt.Errorf("duplicate supplier name %q", s.Name)
		}
		names[s.Name] = true

		if s.Tier != 1 && s.Tier != 2 {
			return fmt.Errorf("supplier %s: tier must be 1 or 2, got %d", s.ID, s.Tier)
		}
		if s.SupplyVolumePct < 0 || s.SupplyVolumePct > 100 {
			return fmt.Errorf("supplier %s: supply_volume_pct %v outside [0,100]", s.ID, s.SupplyVolumePct)
		}
		if s.Status == "" {
			s.Status = models.StatusActive
		} else if !s.Status.Valid() {
			return fmt.Errorf("supplier %s: unknown status %q", s.ID, s.Status)
		}
		for _, u := range s.Upstream {
			if u.Name == "" {
				return fmt.Errorf("supplier %s: upstream supplier without a name", s.ID)
			}
		}
	}
	return nil
}

// Seed writes the profile into the store. Upserts are idempotent, so
// reseeding with the same file is safe.
func Seed(ctx context.Context, st Store, p *Profile) error {
	if err := st.UpsertCompany(ctx, p.Company); err != nil {
		return fmt.Errorf("seeding company: %w", err)
	}
	for _, s := range p.Suppliers {
		if err := st.UpsertSupplier(ctx, s); err != nil {
			return fmt.Errorf("seeding supplier %s: %w", s.ID, err)
		}
	}
	slog.Info("Profile seeded", "company", p.Company.Name, "suppliers", len(p.Suppliers))
	return nil
}

// SeedFromFile loads and applies a seed file in one step.
func SeedFromFile(ctx context.Context, st Store, path string) error {
	p, err := LoadProfile(path)
	if err != nil {
		return err
	}
	return Seed(ctx, st, p)
}
