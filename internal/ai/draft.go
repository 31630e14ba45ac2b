package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
)

// Draft is the parsed model output before it becomes a stored form.
type Draft struct {
	Title       string
	Description string
	Questions   []form.Question // FormID and IDs unset; Order assigned
}

type draftField struct {
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Min      int      `json:"min,omitempty"`
	Max      int      `json:"max,omitempty"`
}

type draftForm struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Fields      []draftField `json:"fields"`
}

// fieldKinds maps the generation vocabulary onto the closed kind table.
var fieldKinds = map[string]form.Kind{
	"text":     form.KindShortText,
	"textarea": form.KindLongText,
	"email":    form.KindEmail,
	"number":   form.KindNumber,
	"date":     form.KindDate,
	"mcq":      form.KindMCQ,
	"checkbox": form.KindCheckbox,
	"dropdown": form.KindDropdown,
	"slider":   form.KindLinearScale,
}

// ParseDraft turns the model's reply into a draft. It tolerates a reply
// wrapped in a markdown fence but is otherwise strict: unknown field types
// and schema violations are rejected.
func ParseDraft(reply string) (Draft, error) {
	raw := stripFence(reply)
	var df draftForm
	if err := json.Unmarshal([]byte(raw), &df); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrBadModelOutput, err)
	}
	if strings.TrimSpace(df.Title) == "" || len(df.Fields) == 0 {
		return Draft{}, fmt.Errorf("%w: missing title or fields", ErrBadModelOutput)
	}

	d := Draft{Title: df.Title, Description: df.Description}
	for i, f := range df.Fields {
		kind, ok := fieldKinds[strings.ToLower(strings.TrimSpace(f.Type))]
		if !ok {
			return Draft{}, fmt.Errorf("%w: unsupported field type %q", ErrBadModelOutput, f.Type)
		}
		q := form.Question{
			Kind:        kind,
			Text:        f.Label,
			Required:    f.Required,
			Order:       i,
			AIGenerated: true,
		}
		spec := form.Kinds[kind]
		if spec.NeedsOptions {
			for _, opt := range f.Options {
				q.Options = append(q.Options, form.Option{Label: opt, Value: slug(opt)})
			}
		}
		if spec.NeedsRange {
			// slider min is always 1 in the canonical model; max carries the range
			q.Range = f.Max
			if q.Range < 2 {
				q.Range = 5
			}
		}
		if err := form.ValidateDefinition(q); err != nil {
			return Draft{}, fmt.Errorf("%w: field %q: %v", ErrBadModelOutput, f.Label, err)
		}
		d.Questions = append(d.Questions, q)
	}
	return d, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
