package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Field is one labelled value of a text report.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// Fields is an ordered report. Text renders it as aligned "Key: value"
// lines; JSON and YAML render it as an object in the same order.
type Fields []Field

// Add appends a field and returns the extended list.
func (f Fields) Add(key string, value any) Fields {
	return append(f, Field{Key: key, Value: value})
}

// MarshalJSON renders the fields as an ordered object.
func (f Fields) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// MarshalYAML renders the fields as an ordered mapping.
func (f Fields) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, field := range f {
		var val yaml.Node
		if err := val.Encode(field.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: field.Key},
			&val,
		)
	}
	return node, nil
}

// TextFormatter renders human-readable output.
type TextFormatter struct{}

// Format implements Formatter. Fields are aligned, strings, errors and
// Stringers are printed as is, anything else falls back to YAML.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case Fields:
		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
		for _, field := range v {
			fmt.Fprintf(tw, "%s:\t%v\n", field.Key, display(field.Value))
		}
		return tw.Flush()
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	case error:
		_, err := fmt.Fprintln(w, v.Error())
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, v.String())
		return err
	default:
		return (&YAMLFormatter{}).Format(w, data)
	}
}

func display(v any) any {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
	case bool:
		if x {
			return "yes"
		}
		return "no"
	}
	return v
}
