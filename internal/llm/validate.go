package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is the JSON shape a structured answer must have. It is compiled
// on first use; declare schemas as package-level pointers.
type Schema struct {
	// Name is sent to providers that label structured output, in
	// kebab-case, e.g. "pronunciation-hint".
	Name        string
	Description string
	Definition  map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// Check validates raw against the schema.
func (s *Schema) Check(raw json.RawMessage) error {
	s.once.Do(s.compile)
	if s.err != nil {
		return fmt.Errorf("compile schema %q: %w", s.Name, s.err)
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("answer is not JSON: %w", err)
	}
	if err := s.compiled.Validate(v); err != nil {
		return fmt.Errorf("answer does not match %q: %w", s.Name, err)
	}
	return nil
}

func (s *Schema) compile() {
	def, err := json.Marshal(s.Definition)
	if err != nil {
		s.err = err
		return
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		s.err = err
		return
	}

	url := "mem://" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		s.err = err
		return
	}
	s.compiled, s.err = c.Compile(url)
}
