package form

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EncodeAnswer converts one raw submitted value into the canonical answer for
// the question's kind, or rejects it with a *ValidationError. It is a pure
// function: no I/O, no state. answered is false when the value is absent or
// empty and the question is optional; such questions get no Response entry.
func EncodeAnswer(q Question, raw json.RawMessage) (ans Answer, answered bool, err error) {
	spec, ok := Kinds[q.Kind]
	if !ok {
		return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "unknown kind " + string(q.Kind)}
	}
	if emptyRaw(raw) {
		if q.Required {
			return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeMissingRequired, Msg: "answer required"}
		}
		return Answer{}, false, nil
	}

	ans = Answer{QuestionID: q.ID, Kind: q.Kind}
	switch spec.Shape {
	case ShapeText:
		s, err := decodeString(q, raw)
		if err != nil {
			return Answer{}, false, err
		}
		s, err = validateTextFormat(q, s)
		if err != nil {
			return Answer{}, false, err
		}
		if s == "" {
			if q.Required {
				return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeMissingRequired, Msg: "answer required"}
			}
			return Answer{}, false, nil
		}
		ans.Text = s

	case ShapeNumber:
		n, err := decodeNumber(q, raw)
		if err != nil {
			return Answer{}, false, err
		}
		ans.Number = &n

	case ShapeChoice:
		s, err := decodeString(q, raw)
		if err != nil {
			return Answer{}, false, err
		}
		if !optionValue(q.Options, s) {
			return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeUnknownOption, Msg: fmt.Sprintf("%q is not an option", s)}
		}
		ans.Text = s

	case ShapeChoiceSet:
		vals, err := decodeStringSlice(q, raw)
		if err != nil {
			return Answer{}, false, err
		}
		seen := map[string]bool{}
		set := make([]string, 0, len(vals))
		for _, v := range vals {
			if !optionValue(q.Options, v) {
				return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeUnknownOption, Msg: fmt.Sprintf("%q is not an option", v)}
			}
			if !seen[v] {
				seen[v] = true
				set = append(set, v)
			}
		}
		if len(set) == 0 {
			if q.Required {
				return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeMissingRequired, Msg: "at least one option required"}
			}
			return Answer{}, false, nil
		}
		sort.Strings(set)
		ans.Values = set

	case ShapeScale:
		n, err := decodeInt(q, raw)
		if err != nil {
			return Answer{}, false, err
		}
		if n < 1 || n > q.Range {
			return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeOutOfRange, Msg: fmt.Sprintf("%d outside [1,%d]", n, q.Range)}
		}
		ans.Scale = &n

	case ShapeYesNo:
		s, err := decodeYesNo(q, raw)
		if err != nil {
			return Answer{}, false, err
		}
		ans.Text = s

	case ShapeGrid:
		grid, err := decodeGrid(q, raw)
		if err != nil {
			return Answer{}, false, err
		}
		if len(grid) == 0 {
			if q.Required {
				return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeMissingRequired, Msg: "answer required"}
			}
			return Answer{}, false, nil
		}
		if q.Required && len(grid) != len(q.Rows) {
			return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeMissingRequired, Msg: "every row requires a selection"}
		}
		ans.Grid = grid

	case ShapeFileRef:
		s, err := decodeString(q, raw)
		if err != nil {
			return Answer{}, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if q.Required {
				return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeMissingRequired, Msg: "file reference required"}
			}
			return Answer{}, false, nil
		}
		if len(q.Accept) > 0 && !acceptedExt(q.Accept, s) {
			return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: "file type not accepted"}
		}
		ans.Text = s

	default:
		return Answer{}, false, &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "unhandled shape"}
	}
	return ans, true, nil
}

// EncodeCanonical re-encodes an already-canonical answer through its raw JSON
// form. Used by audits to verify encode is stable under re-encoding.
func EncodeCanonical(q Question, a Answer) (Answer, bool, error) {
	var raw json.RawMessage
	var err error
	switch {
	case a.Grid != nil:
		raw, err = json.Marshal(a.Grid)
	case a.Values != nil:
		raw, err = json.Marshal(a.Values)
	case a.Scale != nil:
		raw, err = json.Marshal(*a.Scale)
	case a.Number != nil:
		raw, err = json.Marshal(*a.Number)
	default:
		raw, err = json.Marshal(a.Text)
	}
	if err != nil {
		return Answer{}, false, err
	}
	return EncodeAnswer(q, raw)
}

func emptyRaw(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	return false
}

func decodeString(q Question, raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "expected a string"}
	}
	return s, nil
}

func decodeStringSlice(q Question, raw json.RawMessage) ([]string, error) {
	var vals []string
	if err := json.Unmarshal(raw, &vals); err == nil {
		return vals, nil
	}
	// single string tolerated as a one-element set
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}, nil
	}
	return nil, &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "expected a string array"}
}

func decodeNumber(q Question, raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, nil
		}
		return 0, &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: fmt.Sprintf("%q is not a number", s)}
	}
	return 0, &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "expected a number"}
}

func decodeInt(q Question, raw json.RawMessage) (int, error) {
	f, err := decodeNumber(q, raw)
	if err != nil {
		return 0, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: "expected an integer"}
	}
	return n, nil
}

func decodeYesNo(q Question, raw json.RawMessage) (string, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "yes", nil
		}
		return "no", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "expected yes/no"}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true":
		return "yes", nil
	case "no", "false":
		return "no", nil
	}
	return "", &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: fmt.Sprintf("%q is not yes/no", s)}
}

func decodeGrid(q Question, raw json.RawMessage) (map[string]string, error) {
	// Each row maps to exactly one column. An array value for a row means
	// multiple columns were selected, which is malformed.
	var loose map[string]json.RawMessage
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "expected a row-to-column object"}
	}
	grid := make(map[string]string, len(loose))
	for row, cell := range loose {
		if !optionValue(q.Rows, row) {
			return nil, &ValidationError{QuestionID: q.ID, Code: CodeMalformedGrid, Msg: fmt.Sprintf("unknown row %q", row)}
		}
		var col string
		if err := json.Unmarshal(cell, &col); err != nil {
			return nil, &ValidationError{QuestionID: q.ID, Code: CodeMalformedGrid, Msg: fmt.Sprintf("row %q must select exactly one column", row)}
		}
		if !optionValue(q.Cols, col) {
			return nil, &ValidationError{QuestionID: q.ID, Code: CodeMalformedGrid, Msg: fmt.Sprintf("unknown column %q", col)}
		}
		grid[row] = col
	}
	return grid, nil
}

var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{5,19}$`)

func validateTextFormat(q Question, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	switch q.Kind {
	case KindEmail:
		if _, err := mail.ParseAddress(s); err != nil {
			return "", &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: fmt.Sprintf("%q is not an email address", s)}
		}
		return strings.ToLower(s), nil
	case KindURL:
		u, err := url.Parse(s)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return "", &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: fmt.Sprintf("%q is not an http(s) URL", s)}
		}
		return s, nil
	case KindPhone:
		if !phoneRe.MatchString(s) {
			return "", &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: fmt.Sprintf("%q is not a phone number", s)}
		}
		return s, nil
	case KindDate:
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return "", &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
		}
		return t.Format("2006-01-02"), nil
	case KindTime:
		for _, layout := range []string{"15:04", "15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("15:04"), nil
			}
		}
		return "", &ValidationError{QuestionID: q.ID, Code: CodeBadFormat, Msg: fmt.Sprintf("%q is not an HH:MM time", s)}
	}
	return s, nil
}

func optionValue(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func acceptedExt(accept []string, ref string) bool {
	ext := strings.ToLower(path.Ext(ref))
	for _, a := range accept {
		a = strings.ToLower(strings.TrimSpace(a))
		if !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		if a == ext {
			return true
		}
	}
	return false
}
