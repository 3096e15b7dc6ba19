package capabilities

import (
	"encoding/json"

	"github.com/emergent-company/primary-api/domain/graph"
)

// Capability is something an agent can execute
type Capability struct {
	graph.NodeBase
	ValidRelationships []string
}

// FromProps builds a Capability from a property map; unknown keys land in Extra
func FromProps(props map[string]any) (*Capability, error) {
	base, err := graph.DecodeBase(props, "valid_relationships")
	if err != nil {
		return nil, err
	}
	c := &Capability{NodeBase: base}
	if c.ValidRelationships, err = graph.StringListProp(props, "valid_relationships"); err != nil {
		return nil, err
	}
	return c, nil
}

// Properties returns the node property map
func (c *Capability) Properties() map[string]any {
	props := c.NodeBase.Properties()
	rels := make([]any, 0, len(c.ValidRelationships))
	for _, r := range c.ValidRelationships {
		rels = append(rels, r)
	}
	props["valid_relationships"] = rels
	return props
}

// MarshalJSON renders the node properties; valid_relationships is never null
func (c *Capability) MarshalJSON() ([]byte, error) {
	props := c.NodeBase.Properties()
	rels := c.ValidRelationships
	if rels == nil {
		rels = []string{}
	}
	props["valid_relationships"] = rels
	return json.Marshal(props)
}

// Normalize upper-cases relationship type names. Entries that are not valid
// type names are left as given for Validate to report.
func (c *Capability) Normalize() {
	for i, r := range c.ValidRelationships {
		if rel, err := graph.ParseRelationshipType(r); err == nil {
			c.ValidRelationships[i] = rel
		}
	}
}

// Validate checks the name and every relationship type name
func (c *Capability) Validate() error {
	if err := c.ValidateName(); err != nil {
		return err
	}
	for _, r := range c.ValidRelationships {
		if _, err := graph.ParseRelationshipType(r); err != nil {
			return err
		}
	}
	return nil
}
