package content

import (
	"encoding/json"

	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

// FileInput identifies one file input of a content type.
type FileInput struct {
	Attr  string `json:"attr"`
	Input string `json:"input"`
	Type  string `json:"type"`
}

// FileInputs lists the file inputs of the given attributes: one per file
// input, in attribute order and then input order. Repeatable attributes
// contribute one descriptor per input, not one per repetition.
func FileInputs(attrs []contenttype.Attribute) []FileInput {
	inputs := []FileInput{}
	for _, attr := range attrs {
		for _, p := range attr.Inputs.Pairs() {
			if p.Input.Type != contenttype.InputTypeFile {
				continue
			}
			inputs = append(inputs, FileInput{
				Attr:  attr.ID,
				Input: p.ID,
				Type:  contenttype.InputTypeFile,
			})
		}
	}
	return inputs
}

// AbsolutePath joins the public storage root and a relative reference.
func AbsolutePath(publicRoot, relative string) string {
	return publicRoot + relative
}

// FilePaths returns values in which every file value named by inputs carries
// an absolute path built from publicRoot. Without inputs, values is returned
// as is. Otherwise values is not modified and a rewritten copy is returned.
func FilePaths(inputs []FileInput, values Values, publicRoot string) Values {
	if len(inputs) == 0 {
		return values
	}

	out := values.Clone()
	for _, fi := range inputs {
		attr, ok := out[fi.Attr]
		if !ok {
			continue
		}
		v, ok := attr[fi.Input]
		if !ok {
			continue
		}
		if v.Single != nil {
			e := withAbsolute(*v.Single, publicRoot)
			v.Single = &e
		}
		for i := range v.Repeating {
			v.Repeating[i] = withAbsolute(v.Repeating[i], publicRoot)
		}
		attr[fi.Input] = v
	}
	return out
}

func withAbsolute(e Entry, publicRoot string) Entry {
	fv, ok := e.File()
	if !ok {
		return e
	}

	// keep fields this package does not know about
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(e.Value, &raw); err != nil {
		return e
	}
	abs, err := json.Marshal(AbsolutePath(publicRoot, fv.Relative))
	if err != nil {
		return e
	}
	raw["absolute"] = abs

	data, err := json.Marshal(raw)
	if err != nil {
		return e
	}
	return Entry{Value: data}
}
