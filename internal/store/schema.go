package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed tasks.schema.json
var tasksSchemaJSON string

const tasksSchemaURL = "https://github.com/go-ports/todo/tasks.schema.json"

var tasksSchema = jsonschema.MustCompileString(tasksSchemaURL, tasksSchemaJSON)

// validateDocument checks raw file contents against the task list schema.
// The returned error is a single line suitable for a user diagnostic.
func validateDocument(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after task list")
	}
	if err := tasksSchema.Validate(doc); err != nil {
		return schemaDetail(err)
	}
	return nil
}

// schemaDetail reduces a jsonschema validation error tree to its first leaf.
func schemaDetail(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Errorf("%s: %s", loc, ve.Message)
}
