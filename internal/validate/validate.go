// Package validate checks request bodies against embedded JSON Schemas
// before they are decoded into handler request types.
package validate

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrMalformed is returned when the body is not a JSON object.
var ErrMalformed = errors.New("malformed JSON body")

// Error lists the schema violations of a request.
type Error struct {
	Schema   string
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s request: %s", e.Schema, strings.Join(e.Problems, "; "))
}

// Schema is a compiled request schema. String fields named in trim are
// checked with surrounding whitespace removed; the decoded value keeps
// whatever the caller sent.
type Schema struct {
	name   string
	trim   []string
	schema *jsonschema.Schema
}

var (
	SignUp         = mustLoad("sign-up", "username", "email")
	VerifyCode     = mustLoad("verify-code", "username")
	Username       = mustLoad("username", "username")
	SignIn         = mustLoad("sign-in", "identifier")
	SendMessage    = mustLoad("send-message", "username", "content")
	AcceptMessages = mustLoad("accept-messages")
)

func mustLoad(name string, trim ...string) *Schema {
	s, err := Load(name, trim...)
	if err != nil {
		panic(err)
	}
	return s
}

// Load compiles schemas/<name>.json.
func Load(name string, trim ...string) (*Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	return &Schema{name: name, trim: trim, schema: schema}, nil
}

// Check validates doc without modifying it.
func (s *Schema) Check(doc map[string]interface{}) error {
	candidate := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		candidate[k] = v
	}
	for _, field := range s.trim {
		if v, ok := candidate[field].(string); ok {
			candidate[field] = strings.TrimSpace(v)
		}
	}

	result := s.schema.Validate(candidate)
	if result.IsValid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors))
	for field, evalErr := range result.Errors {
		problems = append(problems, fmt.Sprintf("%s: %s", field, evalErr.Error()))
	}
	sort.Strings(problems)
	return &Error{Schema: s.name, Problems: problems}
}

// Decode reads one JSON object from r, validates it and decodes it into dst.
func (s *Schema) Decode(r io.Reader, dst interface{}) error {
	var doc map[string]interface{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return ErrMalformed
	}

	if err := s.Check(doc); err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return json.Unmarshal(raw, dst)
}
