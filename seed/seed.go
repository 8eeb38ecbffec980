// Package seed loads the department routing plan and writes it to the store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"civicsetu-be/logger"
	"civicsetu-be/models"
	"civicsetu-be/stores"

	"gopkg.in/yaml.v3"
)

//go:embed departments.yaml
var defaultPlan []byte

// DepartmentPlan is one department entry of a seed file.
type DepartmentPlan struct {
	Code        string   `yaml:"code"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Categories  []string `yaml:"categories"`
}

// Plan is the full contents of a seed file.
type Plan struct {
	Departments []DepartmentPlan `yaml:"departments"`
}

// Upserter writes one department's category set.
type Upserter interface {
	UpsertCategories(ctx context.Context, d models.Department) error
	CategoryOwner(ctx context.Context, category string) (*models.Department, error)
}

// Result counts what Apply wrote.
type Result struct {
	Departments int
	Categories  int
}

// DefaultPlan returns the embedded plan.
func DefaultPlan() (*Plan, error) {
	return ParsePlan(defaultPlan)
}

// LoadPlan reads a plan from path, or the embedded plan when path is empty.
func LoadPlan(path string) (*Plan, error) {
	if path == "" {
		return DefaultPlan()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes and validates a YAML plan. Unknown fields are an error.
func ParsePlan(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i := range p.Departments {
		p.Departments[i].Code = strings.ToUpper(strings.TrimSpace(p.Departments[i].Code))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that codes are unique and that no category is routed to
// more than one department.
func (p *Plan) Validate() error {
	if len(p.Departments) == 0 {
		return errors.New("seed plan has no departments")
	}
	codes := make(map[string]bool, len(p.Departments))
	owner := make(map[string]string)
	var errs []error
	for _, d := range p.Departments {
		switch {
		case d.Code == "":
			errs = append(errs, errors.New("department without code"))
			continue
		case codes[d.Code]:
			errs = append(errs, fmt.Errorf("department %s listed twice", d.Code))
		case strings.TrimSpace(d.Name) == "":
			errs = append(errs, fmt.Errorf("department %s has no name", d.Code))
		}
		codes[d.Code] = true

		for _, c := range d.Categories {
			if !models.IsValidCategoryKey(c) {
				errs = append(errs, fmt.Errorf("department %s: invalid category key %q", d.Code, c))
				continue
			}
			if prev, ok := owner[c]; ok {
				errs = append(errs, fmt.Errorf("category %s is listed under both %s and %s", c, prev, d.Code))
				continue
			}
			owner[c] = d.Code
		}
	}
	return errors.Join(errs...)
}

// checkOwners rejects plan categories already held by a department the plan
// does not cover. Categories moving between planned departments are fine.
func checkOwners(ctx context.Context, store Upserter, p *Plan) error {
	planned := make(map[string]bool, len(p.Departments))
	for _, d := range p.Departments {
		planned[d.Code] = true
	}

	var errs []error
	for _, d := range p.Departments {
		for _, c := range d.Categories {
			owner, err := store.CategoryOwner(ctx, c)
			if errors.Is(err, stores.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("look up owner of %s: %w", c, err)
			}
			if !planned[owner.Code] {
				errs = append(errs, fmt.Errorf("category %s is held by %s, which is not in the plan", c, owner.Code))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply upserts every department in the plan, replacing its category set.
// Applying the same plan again leaves the store unchanged. Nothing is written
// when a category belongs to a department outside the plan.
func Apply(ctx context.Context, store Upserter, p *Plan) (Result, error) {
	log := logger.WithComponent("seed")
	var res Result
	if err := checkOwners(ctx, store, p); err != nil {
		return res, err
	}
	for _, d := range p.Departments {
		categories := append([]string{}, d.Categories...)
		err := store.UpsertCategories(ctx, models.Department{
			Code:        d.Code,
			Name:        d.Name,
			Description: d.Description,
			Categories:  categories,
			IsActive:    true,
		})
		if err != nil {
			return res, fmt.Errorf("seed department %s: %w", d.Code, err)
		}
		log.Info("department seeded", "code", d.Code, "categories", len(categories))
		res.Departments++
		res.Categories += len(categories)
	}
	return res, nil
}
