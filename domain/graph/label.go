package graph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emergent-company/primary-api/pkg/apperror"
)

// Label is a node type tag. Only the values below ever reach query text.
type Label string

const (
	LabelTask       Label = "Task"
	LabelAgent      Label = "Agent"
	LabelCapability Label = "Capability"
)

// Labels lists every known label.
var Labels = []Label{LabelTask, LabelAgent, LabelCapability}

// Relationship types used by the entity services.
const (
	RelAssignedTo = "ASSIGNED_TO"
	RelCanExecute = "CAN_EXECUTE"
	RelUses       = "USES"
)

var (
	relTypePattern  = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	propertyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ParseLabel resolves s case-insensitively against Labels.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown label %q", s))
}

// ParseOptionalLabel is ParseLabel, except that an empty string means all labels.
func ParseOptionalLabel(s string) (Label, error) {
	if s == "" {
		return "", nil
	}
	return ParseLabel(s)
}

// Valid reports whether l is one of Labels.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// Name is used in messages; the empty label reads as "Node".
func (l Label) Name() string {
	if l == "" {
		return "Node"
	}
	return string(l)
}

// ParseRelationshipType upper-cases s and checks it is a usable type name.
func ParseRelationshipType(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if !relTypePattern.MatchString(t) {
		return "", apperror.NewInvalidInput(fmt.Sprintf("invalid relationship type %q", s))
	}
	return t, nil
}

// ValidPropertyName reports whether name can be used as a property key.
func ValidPropertyName(name string) bool {
	return propertyPattern.MatchString(name)
}

func checkPropertyName(name string) error {
	if !ValidPropertyName(name) {
		return apperror.NewInvalidInput(fmt.Sprintf("invalid property name %q", name))
	}
	return nil
}
