// Package schema renders JSON schemas for the configuration structs of the module.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToJSONSchema reflects t into an inlined JSON schema.
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.ExpandedStruct = true
	s := r.Reflect(t)

	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Properties returns the top-level property names of the schema of t.
func Properties[T any](t T) []string {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.ExpandedStruct = true
	s := r.Reflect(t)

	names := make([]string, 0)
	if s.Properties == nil {
		return names
	}

	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}

	return names
}
