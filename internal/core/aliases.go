package core

// aliases.go holds the header alias configuration.
//
// Each canonical field maps to an ordered list of accepted header spellings.
// Order defines priority when a spreadsheet happens to carry two synonymous
// columns. Matching is done on normalized text, so "Tipo de Mídia",
// "TIPO DE MIDIA" and "tipo_de_midia" are the same header.

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is a canonical post field fed from a spreadsheet column.
type Field string

const (
	FieldClient         Field = "client"
	FieldCompany        Field = "company"
	FieldDate           Field = "date"
	FieldChannel        Field = "channel"
	FieldMediaType      Field = "media_type"
	FieldTitle          Field = "title"
	FieldContent        Field = "content"
	FieldResponsibility Field = "responsibility"
	FieldTheme          Field = "theme"
	FieldInsights       Field = "insights"
)

// AllFields lists every canonical field in display order.
var AllFields = []Field{
	FieldClient, FieldCompany, FieldDate, FieldChannel, FieldMediaType,
	FieldTitle, FieldContent, FieldResponsibility, FieldTheme, FieldInsights,
}

// AliasConfig maps canonical fields to ordered header aliases.
type AliasConfig map[Field][]string

// DefaultAliases returns the built-in alias table.
func DefaultAliases() AliasConfig {
	return AliasConfig{
		FieldClient:         {"Cliente", "Client"},
		FieldCompany:        {"Empresa", "Company"},
		FieldDate:           {"Data", "Date"},
		FieldChannel:        {"Canal", "Rede Social", "Channel"},
		FieldMediaType:      {"Tipo de Mídia", "Media Type", "Tipo"},
		FieldTitle:          {"Assunto", "Subject", "Título", "Title"},
		FieldContent:        {"Conteúdo", "Content", "Texto"},
		FieldResponsibility: {"Responsabilidade", "Responsibility"},
		FieldTheme:          {"Linha Editorial", "Theme", "Tema"},
		FieldInsights:       {"Insight", "Insights"},
	}
}

// For returns the aliases of a field.
func (c AliasConfig) For(f Field) []string {
	return c[f]
}

// Label returns a human-readable name for a field, joining its aliases.
func (c AliasConfig) Label(f Field) string {
	aliases := c[f]
	if len(aliases) == 0 {
		return string(f)
	}
	return strings.Join(aliases, "/")
}

// FieldFor returns the canonical field a header maps to.
func (c AliasConfig) FieldFor(header string) (Field, bool) {
	key := NormalizeHeader(header)
	if key == "" {
		return "", false
	}
	for _, f := range AllFields {
		for _, a := range c[f] {
			if NormalizeHeader(a) == key {
				return f, true
			}
		}
	}
	return "", false
}

// Validate checks that every canonical field has at least one alias
// and that no normalized alias is claimed by two fields.
func (c AliasConfig) Validate() error {
	owner := make(map[string]Field)
	for _, f := range AllFields {
		aliases := c[f]
		if len(aliases) == 0 {
			return fmt.Errorf("alias config: field %q has no aliases", f)
		}
		for _, a := range aliases {
			key := NormalizeHeader(a)
			if key == "" {
				return fmt.Errorf("alias config: field %q has a blank alias", f)
			}
			if prev, ok := owner[key]; ok && prev != f {
				return fmt.Errorf("alias config: %q is used by both %q and %q", a, prev, f)
			}
			owner[key] = f
		}
	}
	for f := range c {
		if !isKnownField(f) {
			return fmt.Errorf("alias config: unknown field %q", f)
		}
	}
	return nil
}

// LoadAliases reads a YAML alias file and merges it over the defaults.
// Fields present in the file replace the default list for that field.
// An empty path returns the defaults.
//
//	client: [Cliente, Client, Customer]
//	channel: [Canal, Rede Social, Channel, Network]
func LoadAliases(path string) (AliasConfig, error) {
	cfg := DefaultAliases()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}

	var overrides map[Field][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", path, err)
	}
	for f, aliases := range overrides {
		cfg[f] = aliases
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MarshalYAML writes fields in canonical order so output is stable.
func (c AliasConfig) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	fields := make([]Field, 0, len(c))
	fields = append(fields, AllFields...)
	var extra []Field
	for f := range c {
		if !isKnownField(f) {
			extra = append(extra, f)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	fields = append(fields, extra...)

	for _, f := range fields {
		aliases, ok := c[f]
		if !ok {
			continue
		}
		var val yaml.Node
		if err := val.Encode(aliases); err != nil {
			return nil, err
		}
		val.Style = yaml.FlowStyle
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(f)},
			&val,
		)
	}
	return node, nil
}

func isKnownField(f Field) bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}
