package agents

import (
	"encoding/json"

	"github.com/emergent-company/primary-api/domain/graph"
)

// DefaultBasePrompt is used when an agent is created without one
const DefaultBasePrompt = "You are an agent"

// Agent is an actor that can execute capabilities.
// Capabilities live as CAN_EXECUTE edges, never as a node property.
type Agent struct {
	graph.NodeBase
	Capabilities []string
	BasePrompt   string
}

// FromProps builds an Agent from a property map; unknown keys land in Extra
func FromProps(props map[string]any) (*Agent, error) {
	base, err := graph.DecodeBase(props, "capabilities", "base_prompt")
	if err != nil {
		return nil, err
	}
	a := &Agent{NodeBase: base}

	if a.Capabilities, err = graph.StringListProp(props, "capabilities"); err != nil {
		return nil, err
	}
	if a.BasePrompt, _, err = graph.StringProp(props, "base_prompt"); err != nil {
		return nil, err
	}
	return a, nil
}

// Properties returns what is stored on the agent node
func (a *Agent) Properties() map[string]any {
	props := a.NodeBase.Properties()
	props["base_prompt"] = a.BasePrompt
	return props
}

// MarshalJSON renders the node properties plus the capability names
func (a *Agent) MarshalJSON() ([]byte, error) {
	props := a.Properties()
	caps := a.Capabilities
	if caps == nil {
		caps = []string{}
	}
	props["capabilities"] = caps
	return json.Marshal(props)
}

// Normalize fills in the default base prompt
func (a *Agent) Normalize() {
	if a.BasePrompt == "" {
		a.BasePrompt = DefaultBasePrompt
	}
}

// Validate checks the name
func (a *Agent) Validate() error {
	return a.ValidateName()
}
