package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"herd-census/internal/domain"
	"herd-census/internal/locality"
	"herd-census/internal/normalize"
)

//go:embed default_tables.yaml
var defaultTables []byte

// Tables is the reference data the engine is built from. It is read once and
// turned into immutable components; nothing keeps a pointer to it.
type Tables struct {
	Sex            SexTokens           `yaml:"sex"`
	Breeds         map[string][]string `yaml:"breeds"`
	Series         map[string]string   `yaml:"series"`
	AgeDescriptors []DescriptorRow     `yaml:"age_descriptors"`
	Localities     []LocalityRow       `yaml:"localities"`
	Exceptions     []ExceptionRow      `yaml:"exceptions"`
	FuzzyRatio     float64             `yaml:"fuzzy_ratio"`
}

// SexTokens are the raw words read as male or female.
type SexTokens struct {
	Male   []string `yaml:"male"`
	Female []string `yaml:"female"`
}

// DescriptorRow maps an age descriptor token to months. Rows are matched in order.
type DescriptorRow struct {
	Token  string  `yaml:"token"`
	Months float64 `yaml:"months"`
}

// LocalityRow is a site with the identifiers used to resolve documents to it.
type LocalityRow struct {
	Name          string   `yaml:"name"`
	TaxIDs        []string `yaml:"tax_ids"`
	NameFragments []string `yaml:"name_fragments"`
}

// ExceptionRow pins one document to a locality.
type ExceptionRow struct {
	DocumentID string `yaml:"document_id"`
	Locality   string `yaml:"locality"`
}

// Components are the engine parts built from the tables.
type Components struct {
	Corrector   *normalize.BreedCorrector
	Sex         *normalize.SexNormalizer
	Resolver    *locality.Resolver
	Descriptors *normalize.AgeDescriptors
}

// DefaultTables returns the embedded tables.
func DefaultTables() (Tables, error) {
	return ParseTables(defaultTables)
}

// LoadTables reads the tables at path, or the embedded defaults when path is
// empty.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes one YAML document; unknown keys are rejected.
func ParseTables(data []byte) (Tables, error) {
	var t Tables
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tables{}, fmt.Errorf("%w: %v", domain.ErrInvalidTables, err)
	}
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Validate checks the tables for rows the engine could not use.
func (t Tables) Validate() error {
	if len(t.Sex.Male) == 0 || len(t.Sex.Female) == 0 {
		return fmt.Errorf("%w: both sex token sets must be non-empty", domain.ErrInvalidTables)
	}
	if t.FuzzyRatio < 0 || t.FuzzyRatio >= 1 {
		return fmt.Errorf("%w: fuzzy_ratio %.2f outside [0, 1)", domain.ErrInvalidTables, t.FuzzyRatio)
	}

	names := make(map[string]bool, len(t.Localities))
	for i, l := range t.Localities {
		key := normalize.Fold(l.Name)
		if key == "" {
			return fmt.Errorf("%w: locality %d has no name", domain.ErrInvalidTables, i)
		}
		if names[key] {
			return fmt.Errorf("%w: locality %q listed twice", domain.ErrInvalidTables, l.Name)
		}
		names[key] = true
	}

	docs := make(map[string]bool, len(t.Exceptions))
	for i, e := range t.Exceptions {
		key := strings.ToUpper(strings.TrimSpace(e.DocumentID))
		if key == "" || strings.TrimSpace(e.Locality) == "" {
			return fmt.Errorf("%w: exception %d needs a document id and a locality", domain.ErrInvalidTables, i)
		}
		if docs[key] {
			return fmt.Errorf("%w: exception for %q listed twice", domain.ErrInvalidTables, e.DocumentID)
		}
		docs[key] = true
	}
	return nil
}

// Build turns the tables into engine components.
func (t Tables) Build() (Components, error) {
	if err := t.Validate(); err != nil {
		return Components{}, err
	}

	rules := make([]normalize.DescriptorRule, 0, len(t.AgeDescriptors))
	for _, r := range t.AgeDescriptors {
		rules = append(rules, normalize.DescriptorRule{Token: r.Token, Months: r.Months})
	}
	descriptors, err := normalize.NewAgeDescriptors(rules)
	if err != nil {
		return Components{}, err
	}

	sites := make([]locality.Site, 0, len(t.Localities))
	for _, l := range t.Localities {
		sites = append(sites, locality.Site{
			Name:          strings.TrimSpace(l.Name),
			TaxIDs:        append([]string(nil), l.TaxIDs...),
			NameFragments: append([]string(nil), l.NameFragments...),
		})
	}
	exceptions := make([]locality.Exception, 0, len(t.Exceptions))
	for _, e := range t.Exceptions {
		exceptions = append(exceptions, locality.Exception{DocumentID: e.DocumentID, Locality: strings.TrimSpace(e.Locality)})
	}

	return Components{
		Corrector:   normalize.NewBreedCorrector(t.Series, normalize.NewBreedCatalog(t.Breeds)),
		Sex:         normalize.NewSexNormalizer(t.Sex.Male, t.Sex.Female),
		Resolver:    locality.NewDefaultResolver(sites, exceptions, t.FuzzyRatio),
		Descriptors: descriptors,
	}, nil
}
