package graph

import (
	"fmt"
	"strings"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

// NodeBase holds the fields every entity shares plus any attributes the
// entity type does not declare. Extra is stored and returned unchanged.
type NodeBase struct {
	ID          string
	Name        string
	Description *string
	Extra       map[string]any
}

var baseFields = []string{"id", "name", "description"}

// DecodeBase reads the shared fields from props and keeps every key that is
// neither shared nor listed in declared as an extra attribute.
func DecodeBase(props map[string]any, declared ...string) (NodeBase, error) {
	var b NodeBase
	var err error

	if b.ID, _, err = StringProp(props, "id"); err != nil {
		return NodeBase{}, err
	}
	if b.Name, _, err = StringProp(props, "name"); err != nil {
		return NodeBase{}, err
	}
	if desc, ok, err := StringProp(props, "description"); err != nil {
		return NodeBase{}, err
	} else if ok {
		b.Description = &desc
	}

	known := map[string]bool{}
	for _, k := range baseFields {
		known[k] = true
	}
	for _, k := range declared {
		known[k] = true
	}
	for k, v := range props {
		if known[k] {
			continue
		}
		if b.Extra == nil {
			b.Extra = map[string]any{}
		}
		b.Extra[k] = v
	}
	return b, nil
}

// Properties flattens the base back into a property map. Declared fields
// written afterwards by the caller take precedence over extras.
func (b NodeBase) Properties() map[string]any {
	props := make(map[string]any, len(b.Extra)+3)
	for k, v := range b.Extra {
		props[k] = v
	}
	props["id"] = b.ID
	props["name"] = b.Name
	if b.Description != nil {
		props["description"] = *b.Description
	}
	return props
}

// ValidateName fails when the name is empty or blank.
func (b NodeBase) ValidateName() error {
	if strings.TrimSpace(b.Name) == "" {
		return apperror.NewValidation("name is required")
	}
	return nil
}

// StringProp returns props[key] as a string. A missing or nil value reports
// false; any other non-string is invalid input.
func StringProp(props map[string]any, key string) (string, bool, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, apperror.NewInvalidInput(fmt.Sprintf("%s must be a string", key))
	}
	return s, true, nil
}

// StringListProp returns props[key] as a list of strings. A single string
// is treated as a one-element list.
func StringListProp(props map[string]any, key string) ([]string, error) {
	switch v := props[key].(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, apperror.NewInvalidInput(fmt.Sprintf("%s must be a list of strings", key))
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, apperror.NewInvalidInput(fmt.Sprintf("%s must be a list of strings", key))
}
