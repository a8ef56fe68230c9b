package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// repoRoot is where the schema paths carried in envelopes are rooted.
var repoRoot = filepath.Join("..", "..")

// validateAgainstSchema checks v against the JSON schema found at
// schemaPath. It understands the subset of keywords our contracts use.
func validateAgainstSchema(schemaPath string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	schema, dir, err := loadSchema(filepath.Join(repoRoot, schemaPath))
	if err != nil {
		return err
	}
	return (&schemaNode{schema: schema, dir: dir}).validate(doc, nil)
}

type schemaNode struct {
	schema map[string]any
	dir    string
}

func loadSchema(path string) (map[string]any, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, "", fmt.Errorf("parse schema %s: %w", path, err)
	}
	return schema, filepath.Dir(path), nil
}

func (n *schemaNode) child(raw any) (*schemaNode, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unsupported schema node %T", raw)
	}
	if ref, ok := m["$ref"].(string); ok {
		schema, dir, err := loadSchema(filepath.Clean(filepath.Join(n.dir, ref)))
		if err != nil {
			return nil, err
		}
		return &schemaNode{schema: schema, dir: dir}, nil
	}
	return &schemaNode{schema: m, dir: n.dir}, nil
}

// properties collects the property names this node declares, following
// allOf branches.
func (n *schemaNode) properties() (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if props, ok := n.schema["properties"].(map[string]any); ok {
		for k := range props {
			out[k] = struct{}{}
		}
	}
	all, _ := n.schema["allOf"].([]any)
	for _, sub := range all {
		c, err := n.child(sub)
		if err != nil {
			return nil, err
		}
		nested, err := c.properties()
		if err != nil {
			return nil, err
		}
		for k := range nested {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

func (n *schemaNode) validate(value any, inherited map[string]struct{}) error {
	if ref, ok := n.schema["$ref"].(string); ok {
		c, err := n.child(map[string]any{"$ref": ref})
		if err != nil {
			return err
		}
		return c.validate(value, inherited)
	}

	allowed, err := n.properties()
	if err != nil {
		return err
	}
	for k := range inherited {
		allowed[k] = struct{}{}
	}

	all, _ := n.schema["allOf"].([]any)
	for _, sub := range all {
		c, err := n.child(sub)
		if err != nil {
			return err
		}
		if err := c.validate(value, allowed); err != nil {
			return err
		}
	}

	if want, ok := n.schema["const"]; ok && !reflect.DeepEqual(value, want) {
		return fmt.Errorf("value %v does not equal const %v", value, want)
	}
	if enum, ok := n.schema["enum"].([]any); ok {
		found := false
		for _, e := range enum {
			found = found || reflect.DeepEqual(e, value)
		}
		if !found {
			return fmt.Errorf("value %v not in enum %v", value, enum)
		}
	}

	typ, _ := n.schema["type"].(string)
	switch typ {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
		req, _ := n.schema["required"].([]any)
		for _, f := range req {
			if _, ok := obj[f.(string)]; !ok {
				return fmt.Errorf("missing required field %s", f)
			}
		}
		if addl, ok := n.schema["additionalProperties"].(bool); ok && !addl {
			for k := range obj {
				if _, ok := allowed[k]; !ok {
					return fmt.Errorf("unexpected property %s", k)
				}
			}
		}
		props, _ := n.schema["properties"].(map[string]any)
		for k, ps := range props {
			v, ok := obj[k]
			if !ok {
				continue
			}
			c, err := n.child(ps)
			if err != nil {
				return err
			}
			if err := c.validate(v, nil); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	case "array":
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
		if min, ok := n.schema["minItems"].(float64); ok && len(arr) < int(min) {
			return fmt.Errorf("expected at least %d items, got %d", int(min), len(arr))
		}
		if items, ok := n.schema["items"]; ok {
			c, err := n.child(items)
			if err != nil {
				return err
			}
			for i, it := range arr {
				if err := c.validate(it, nil); err != nil {
					return fmt.Errorf("items[%d]: %w", i, err)
				}
			}
		}
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if min, ok := n.schema["minLength"].(float64); ok && len(s) < int(min) {
			return fmt.Errorf("string too short (min %d)", int(min))
		}
		switch n.schema["format"] {
		case "uuid":
			if _, err := uuid.Parse(s); err != nil {
				return fmt.Errorf("invalid uuid: %w", err)
			}
		case "date-time":
			if _, err := time.Parse(time.RFC3339, s); err != nil {
				return fmt.Errorf("invalid date-time: %w", err)
			}
		}
	case "number", "integer":
		num, ok := value.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", value)
		}
		if typ == "integer" && math.Mod(num, 1) != 0 {
			return fmt.Errorf("expected integer, got %v", num)
		}
		if min, ok := n.schema["minimum"].(float64); ok && num < min {
			return fmt.Errorf("expected number >= %v", min)
		}
	}
	return nil
}
