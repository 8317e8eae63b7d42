package skillgraph

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

//go:embed catalog.schema.json
var catalogSchemaJSON []byte

const catalogSchemaURL = "schema://adaptiq/catalog.json"

// catalogSchema compiles the embedded schema once.
var catalogSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var parsed any
	if err := json.Unmarshal(catalogSchemaJSON, &parsed); err != nil {
		return nil, fmt.Errorf("parse catalog schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(catalogSchemaURL, parsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(catalogSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return compiled, nil
})

// CatalogFile is the JSON form of a skill catalog.
type CatalogFile struct {
	Version string        `json:"version,omitempty"`
	Skills  []CatalogSkill `json:"skills"`
}

// CatalogSkill is the JSON form of a Skill.
type CatalogSkill struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category,omitempty"`
	Topic          string   `json:"topic"`
	Difficulty     string   `json:"difficulty"`
	EstimatedHours float64  `json:"estimated_hours"`
	Prerequisites  []string `json:"prerequisites,omitempty"`
}

// ParseCatalog validates raw JSON against the catalog schema and decodes it.
func ParseCatalog(r io.Reader) ([]Skill, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	schema, err := catalogSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("catalog schema validation failed: %w", err)
	}

	var file CatalogFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	skills := make([]Skill, len(file.Skills))
	for i, cs := range file.Skills {
		skills[i] = Skill{
			ID:             cs.ID,
			Name:           cs.Name,
			Description:    cs.Description,
			Category:       cs.Category,
			Topic:          knowledge.Topic(cs.Topic),
			Difficulty:     Tier(cs.Difficulty),
			EstimatedHours: cs.EstimatedHours,
			Prerequisites:  cs.Prerequisites,
		}
	}
	return skills, nil
}

// LoadCatalog parses a JSON catalog and builds the graph.
func LoadCatalog(r io.Reader) (*Graph, error) {
	skills, err := ParseCatalog(r)
	if err != nil {
		return nil, err
	}
	return New(skills)
}

// WriteCatalog encodes skills in the catalog format.
func WriteCatalog(w io.Writer, skills []Skill) error {
	file := CatalogFile{Version: "1", Skills: make([]CatalogSkill, len(skills))}
	for i, s := range skills {
		file.Skills[i] = CatalogSkill{
			ID:             s.ID,
			Name:           s.Name,
			Description:    s.Description,
			Category:       s.Category,
			Topic:          string(s.Topic),
			Difficulty:     string(s.Difficulty),
			EstimatedHours: s.EstimatedHours,
			Prerequisites:  s.Prerequisites,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file)
}
