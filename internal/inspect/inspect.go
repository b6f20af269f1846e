package inspect

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned for input that is not a JSON document.
var ErrInvalidJSON = errors.New("invalid json document")

// Summary counts the parts of an exported table document.
type Summary struct {
	ID          string   `json:"id"`
	Grammar     string   `json:"grammar,omitempty"`
	Digest      string   `json:"digest,omitempty"`
	Classes     []string `json:"classes"`
	Ranges      int      `json:"ranges"`
	States      int      `json:"states"`
	Accepting   int      `json:"accepting"`
	Transitions int      `json:"transitions"`
}

// Query evaluates a gjson path against a table document. The second result
// reports whether the path matched anything.
func Query(doc []byte, path string) (interface{}, bool, error) {
	if !gjson.ValidBytes(doc) {
		return nil, false, ErrInvalidJSON
	}
	result := gjson.GetBytes(doc, path)
	if !result.Exists() {
		return nil, false, nil
	}
	return toValue(result), true, nil
}

// Summarize reads the headline numbers of a table document without
// decoding it fully.
func Summarize(doc []byte) (Summary, error) {
	if !gjson.ValidBytes(doc) {
		return Summary{}, ErrInvalidJSON
	}

	fields := gjson.GetManyBytes(doc,
		"id", "grammar", "digest", "classes", "ranges.#", "states.#",
		`states.#(accept!="")#.id`, "transitions.#")

	summary := Summary{
		ID:          fields[0].String(),
		Grammar:     fields[1].String(),
		Digest:      fields[2].String(),
		Classes:     make([]string, 0),
		Ranges:      int(fields[4].Int()),
		States:      int(fields[5].Int()),
		Accepting:   len(fields[6].Array()),
		Transitions: int(fields[7].Int()),
	}
	for _, class := range fields[3].Array() {
		summary.Classes = append(summary.Classes, class.String())
	}
	return summary, nil
}

func toValue(result gjson.Result) interface{} {
	switch result.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if result.Float() == float64(result.Int()) {
			return result.Int()
		}
		return result.Float()
	case gjson.String:
		return result.String()
	case gjson.JSON:
		if result.IsArray() {
			items := result.Array()
			values := make([]interface{}, len(items))
			for i, item := range items {
				values[i] = toValue(item)
			}
			return values
		}
		fields := make(map[string]interface{})
		for k, v := range result.Map() {
			fields[k] = toValue(v)
		}
		return fields
	default:
		return nil
	}
}
