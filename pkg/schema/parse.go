package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var errEmptyDocument = errors.New("schema: document is empty")

// Parse decodes a schema document from JSON or YAML, sanitizes authored
// markup, and runs structural validation. Unknown keys are ignored. The
// returned error is a ConfigProblems when the document parses but violates a
// structural invariant.
func Parse(raw []byte) (Form, error) {
	form, err := Decode(raw)
	if err != nil {
		return Form{}, err
	}
	Sanitize(&form)
	if err := Validate(form); err != nil {
		return Form{}, err
	}
	return form, nil
}

// Decode unmarshals a schema document without validating it. JSON is tried
// first, then YAML, matching how schema files are accepted on disk.
func Decode(raw []byte) (Form, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return Form{}, errEmptyDocument
	}

	var form Form
	if err := json.Unmarshal(raw, &form); err == nil {
		return form, nil
	}
	if err := yaml.Unmarshal(raw, &form); err == nil {
		return form, nil
	}
	return Form{}, fmt.Errorf("schema: document is not valid JSON or YAML")
}
