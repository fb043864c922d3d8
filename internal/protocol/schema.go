package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemaErr  error
	schemas    map[string]*jsonschema.Schema
)

func loadSchemas() {
	schemas = map[string]*jsonschema.Schema{}
	c := jsonschema.NewCompiler()
	for _, name := range []string{"command.schema.json", "hello.schema.json"} {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			schemaErr = err
			return
		}
		if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("%s: %w", name, err)
			return
		}
	}
	for _, name := range []string{"command.schema.json", "hello.schema.json"} {
		s, err := c.Compile(name)
		if err != nil {
			schemaErr = fmt.Errorf("compile %s: %w", name, err)
			return
		}
		schemas[name] = s
	}
}

func validate(name string, raw []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schemas[name].Validate(v)
}

// ValidateCommandJSON checks a raw COMMAND frame against the embedded schema.
func ValidateCommandJSON(raw []byte) error { return validate("command.schema.json", raw) }

func ValidateHelloJSON(raw []byte) error { return validate("hello.schema.json", raw) }

// ValidateCommand validates an already decoded message, e.g. one that arrived as msgpack.
func ValidateCommand(m CommandMsg) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return ValidateCommandJSON(raw)
}
