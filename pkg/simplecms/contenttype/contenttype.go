package contenttype

import (
	"errors"
	"fmt"

	"github.com/gosimple/slug"
)

// InputTypeFile marks an input whose value references an uploaded file.
const InputTypeFile = "file"

// ContentType describes one kind of content item and its attributes.
type ContentType struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	ID          string      `json:"id" yaml:"id"`
	Identifier  string      `json:"identifier,omitempty" yaml:"identifier,omitempty"` // attribute used as the record key
	Workflow    []string    `json:"workflow,omitempty" yaml:"workflow,omitempty"`     // approval steps
	Attributes  []Attribute `json:"attributes" yaml:"attributes"`
}

// Attribute is a single field of a content type, rendered by an input plugin.
type Attribute struct {
	Type        string `json:"type" yaml:"type"`
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Repeatable  bool   `json:"repeatable,omitempty" yaml:"repeatable,omitempty"`
	Inputs      Inputs `json:"inputs" yaml:"inputs"`
}

// Input is one input widget of an attribute.
type Input struct {
	Type        string         `json:"type" yaml:"type"`
	Label       string         `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string         `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Settings    map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Slug returns the URL safe form of s.
func Slug(s string) string {
	return slug.Make(s)
}

// Slug returns the URL safe form of the type name.
func (ct ContentType) Slug() string {
	return Slug(ct.Name)
}

// Attribute returns the attribute with the given id.
func (ct ContentType) Attribute(id string) (Attribute, bool) {
	for _, attr := range ct.Attributes {
		if attr.ID == id {
			return attr, true
		}
	}
	return Attribute{}, false
}

// Approvals returns the number of approvals a revision needs before it is publishable.
func (ct ContentType) Approvals() int {
	if len(ct.Workflow) == 0 {
		return 1
	}
	return len(ct.Workflow)
}

// Normalize fills derived defaults: a missing id is the slug of the name and
// a missing identifier is the first attribute.
func (ct *ContentType) Normalize() {
	if ct.ID == "" {
		ct.ID = Slug(ct.Name)
	}
	if ct.Identifier == "" && len(ct.Attributes) > 0 {
		ct.Identifier = ct.Attributes[0].ID
	}
}

// Validate checks the type definition.
func (ct ContentType) Validate() error {
	if ct.Name == "" {
		return errors.New("content type name is required")
	}
	if ct.ID == "" {
		return fmt.Errorf("content type %s: id is required", ct.Name)
	}
	if len(ct.Attributes) == 0 {
		return fmt.Errorf("content type %s: at least one attribute is required", ct.ID)
	}
	seen := make(map[string]bool, len(ct.Attributes))
	for _, attr := range ct.Attributes {
		if attr.ID == "" {
			return fmt.Errorf("content type %s: attribute %q has no id", ct.ID, attr.Name)
		}
		if seen[attr.ID] {
			return fmt.Errorf("content type %s: duplicate attribute %s", ct.ID, attr.ID)
		}
		seen[attr.ID] = true
		if attr.Inputs.Len() == 0 {
			return fmt.Errorf("content type %s: attribute %s has no inputs", ct.ID, attr.ID)
		}
	}
	if ct.Identifier != "" && !seen[ct.Identifier] {
		return fmt.Errorf("content type %s: identifier %s is not an attribute", ct.ID, ct.Identifier)
	}
	return nil
}
