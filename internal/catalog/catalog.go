// Package catalog defines the document-requirement catalog: which document
// types each entity type must evidence. New cases are seeded with document
// links from here. The built-in defaults cover the standard entity types; a
// YAML file can replace them per deployment.
package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"caseflow/internal/cases/models"
	"caseflow/internal/workflow"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// Requirement is one catalog entry.
type Requirement struct {
	ID        id.RequirementID `yaml:"id"`
	Type      string           `yaml:"type"`
	Section   string           `yaml:"section"`
	Mandatory bool             `yaml:"mandatory"`
}

// Catalog maps entity types to their document requirements.
type Catalog struct {
	Requirements map[workflow.EntityType][]Requirement `yaml:"requirements"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{Requirements: map[workflow.EntityType][]Requirement{
		workflow.EntityIndividualAccount: {
			{ID: "passport", Type: "identity", Section: "identity", Mandatory: true},
			{ID: "proof-of-address", Type: "identity", Section: "identity", Mandatory: true},
			{ID: "source-of-funds", Type: "financial", Section: "financial", Mandatory: true},
			{ID: "account-opening-form", Type: "account", Section: workflow.SectionAccountForms, Mandatory: true},
		},
		workflow.EntityJointAccount: {
			{ID: "passport", Type: "identity", Section: "identity", Mandatory: true},
			{ID: "proof-of-address", Type: "identity", Section: "identity", Mandatory: true},
			{ID: "source-of-funds", Type: "financial", Section: "financial", Mandatory: true},
			{ID: "joint-holder-mandate", Type: "account", Section: workflow.SectionAccountForms, Mandatory: true},
			{ID: "account-opening-form", Type: "account", Section: workflow.SectionAccountForms, Mandatory: true},
		},
		workflow.EntityCorporate: {
			{ID: "certificate-of-incorporation", Type: "corporate", Section: "corporate", Mandatory: true},
			{ID: "memorandum-articles", Type: "corporate", Section: "corporate", Mandatory: true},
			{ID: "register-of-directors", Type: "corporate", Section: "corporate", Mandatory: true},
			{ID: "ubo-declaration", Type: "corporate", Section: "corporate", Mandatory: true},
			{ID: "audited-financials", Type: "financial", Section: "financial", Mandatory: false},
			{ID: "board-resolution", Type: "account", Section: workflow.SectionAccountForms, Mandatory: true},
			{ID: "account-opening-form", Type: "account", Section: workflow.SectionAccountForms, Mandatory: true},
		},
		workflow.EntityPartnership: {
			{ID: "partnership-agreement", Type: "corporate", Section: "corporate", Mandatory: true},
			{ID: "ubo-declaration", Type: "corporate", Section: "corporate", Mandatory: true},
			{ID: "source-of-funds", Type: "financial", Section: "financial", Mandatory: true},
			{ID: "account-opening-form", Type: "account", Section: workflow.SectionAccountForms, Mandatory: true},
		},
		workflow.EntityTrust: {
			{ID: "trust-deed", Type: "trust", Section: "trust", Mandatory: true},
			{ID: "settlor-identity", Type: "identity", Section: "trust", Mandatory: true},
			{ID: "beneficiary-schedule", Type: "trust", Section: "trust", Mandatory: true},
			{ID: "account-opening-form", Type: "account", Section: workflow.SectionAccountForms, Mandatory: true},
		},
	}}
}

// Parse decodes and validates a catalog payload.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("catalog: payload is empty")
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads a catalog from disk. An empty path returns the built-in
// defaults to simplify startup.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) validate() error {
	for entityType, reqs := range c.Requirements {
		if !workflow.ValidEntityType(entityType) {
			return fmt.Errorf("catalog: unknown entity type %q", entityType)
		}
		seen := make(map[id.RequirementID]bool)
		for _, r := range reqs {
			if r.ID == "" {
				return fmt.Errorf("catalog: %s: requirement with empty id", entityType)
			}
			if seen[r.ID] {
				return fmt.Errorf("catalog: %s: duplicate requirement %q", entityType, r.ID)
			}
			seen[r.ID] = true
			if r.Section == "" {
				return fmt.Errorf("catalog: %s: requirement %q has no section", entityType, r.ID)
			}
		}
	}
	return nil
}

// DocumentLinksFor seeds a new case's document links for its entity type.
func (c *Catalog) DocumentLinksFor(entityType workflow.EntityType) ([]models.DocumentLink, error) {
	reqs, ok := c.Requirements[entityType]
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "no requirement catalog for entity type").
			Add("entity_type", string(entityType))
	}
	links := make([]models.DocumentLink, 0, len(reqs))
	for _, r := range reqs {
		links = append(links, models.DocumentLink{
			RequirementID:   r.ID,
			RequirementType: r.Type,
			Section:         r.Section,
			IsMandatory:     r.Mandatory,
		})
	}
	return links, nil
}
