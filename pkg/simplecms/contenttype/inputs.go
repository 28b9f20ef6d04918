package contenttype

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Inputs maps input ids to inputs, keeping declaration order.
type Inputs struct {
	m *orderedmap.OrderedMap[string, Input]
}

// NewInputs builds Inputs from id/input pairs in the given order.
func NewInputs(pairs ...InputPair) Inputs {
	in := Inputs{m: orderedmap.New[string, Input]()}
	for _, p := range pairs {
		in.m.Set(p.ID, p.Input)
	}
	return in
}

// InputPair is an input together with its id.
type InputPair struct {
	ID    string
	Input Input
}

// Set adds or replaces an input. New ids are appended.
func (in *Inputs) Set(id string, input Input) {
	if in.m == nil {
		in.m = orderedmap.New[string, Input]()
	}
	in.m.Set(id, input)
}

// Get returns the input with the given id.
func (in Inputs) Get(id string) (Input, bool) {
	if in.m == nil {
		return Input{}, false
	}
	return in.m.Get(id)
}

// Len returns the number of inputs.
func (in Inputs) Len() int {
	if in.m == nil {
		return 0
	}
	return in.m.Len()
}

// Pairs returns the inputs in declaration order.
func (in Inputs) Pairs() []InputPair {
	if in.m == nil {
		return nil
	}
	pairs := make([]InputPair, 0, in.m.Len())
	for pair := in.m.Oldest(); pair != nil; pair = pair.Next() {
		pairs = append(pairs, InputPair{ID: pair.Key, Input: pair.Value})
	}
	return pairs
}

func (in Inputs) MarshalJSON() ([]byte, error) {
	if in.m == nil {
		return []byte("{}"), nil
	}
	return in.m.MarshalJSON()
}

func (in *Inputs) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, Input]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	in.m = m
	return nil
}

func (in Inputs) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range in.Pairs() {
		var value yaml.Node
		if err := value.Encode(p.Input); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p.ID}, &value)
	}
	return node, nil
}

func (in *Inputs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: inputs must be a mapping", node.Line)
	}
	m := orderedmap.New[string, Input]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		var input Input
		if err := node.Content[i+1].Decode(&input); err != nil {
			return err
		}
		m.Set(node.Content[i].Value, input)
	}
	in.m = m
	return nil
}
