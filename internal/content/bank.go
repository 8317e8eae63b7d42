// Package content reads, writes and generates question banks: the metadata
// the tutor needs about each practice question.
package content

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/tutor"
)

//go:embed bank.schema.json
var bankSchemaJSON []byte

const bankSchemaURL = "schema://adaptiq/bank.json"

var bankSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var parsed any
	if err := json.Unmarshal(bankSchemaJSON, &parsed); err != nil {
		return nil, fmt.Errorf("parse bank schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(bankSchemaURL, parsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(bankSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return compiled, nil
})

// BankFile is the JSON form of a question bank.
type BankFile struct {
	Version string     `json:"version,omitempty"`
	Items   []BankItem `json:"items"`
}

// BankItem is the JSON form of tutor.ContentInfo.
type BankItem struct {
	ID            int64  `json:"id"`
	Topic         string `json:"topic"`
	Difficulty    int    `json:"difficulty"`
	CorrectAnswer string `json:"correct_answer"`
	Format        string `json:"format,omitempty"`
	SkillID       string `json:"skill_id,omitempty"`
	Prompt        string `json:"prompt,omitempty"`
}

// Parse validates a bank against the schema and decodes it. Duplicate ids
// are rejected.
func Parse(r io.Reader) ([]tutor.ContentInfo, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid bank JSON: %w", err)
	}
	schema, err := bankSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("bank schema validation failed: %w", err)
	}

	var file BankFile
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}

	seen := make(map[int64]bool, len(file.Items))
	items := make([]tutor.ContentInfo, len(file.Items))
	for i, it := range file.Items {
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate content id %d", it.ID)
		}
		seen[it.ID] = true
		items[i] = tutor.ContentInfo{
			ID:            it.ID,
			Topic:         knowledge.Topic(it.Topic),
			Difficulty:    it.Difficulty,
			CorrectAnswer: it.CorrectAnswer,
			Format:        it.Format,
			SkillID:       it.SkillID,
			Prompt:        it.Prompt,
		}
	}
	return items, nil
}

// Write encodes items in the bank format.
func Write(w io.Writer, items []tutor.ContentInfo) error {
	file := BankFile{Version: "1", Items: make([]BankItem, len(items))}
	for i, it := range items {
		file.Items[i] = BankItem{
			ID:            it.ID,
			Topic:         string(it.Topic),
			Difficulty:    it.Difficulty,
			CorrectAnswer: it.CorrectAnswer,
			Format:        it.Format,
			SkillID:       it.SkillID,
			Prompt:        it.Prompt,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file)
}
