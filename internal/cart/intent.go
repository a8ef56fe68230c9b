package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Intent is a raw (label, quantity) pair as produced by the interpreter.
// Quantity holds whatever the interpreter sent: a number, a string, a bool,
// nil, or something else entirely.
type Intent struct {
	Label    string
	Quantity any
}

// Intents keeps interpreter intents in the order they were emitted.
type Intents []Intent

// UnmarshalJSON reads a JSON object of label -> quantity. Any other JSON
// value (null, an array, a scalar) decodes to no intents.
func (in *Intents) UnmarshalJSON(data []byte) error {
	*in = nil
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var out Intents
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var v any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return err
		}
		out = append(out, Intent{Label: key, Quantity: v})
		return nil
	})
	if err != nil {
		return err
	}
	*in = out
	return nil
}

func (in Intents) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, it := range in {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(it.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(it.Quantity)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ItemValidator reports whether an identifier names a purchasable item.
type ItemValidator interface {
	IsValidItem(id string) bool
}

// Filter lower-cases labels and keeps only entries that name a valid item
// with a quantity that coerces to a positive number. Everything else is
// dropped without a report. Labels that collapse to the same item keep the
// first position and the last quantity.
//
// TODO: surface dropped entries once product decides how typos should be reported.
func Filter(v ItemValidator, raw Intents) []Line {
	var out []Line
	index := make(map[string]int, len(raw))

	for _, it := range raw {
		item := strings.ToLower(it.Label)
		if !v.IsValidItem(item) {
			continue
		}
		f, ok := Coerce(it.Quantity)
		if !ok || f <= 0 {
			continue
		}
		qty := toQuantity(f)
		if qty < 1 {
			continue
		}

		if i, seen := index[item]; seen {
			out[i].Quantity = qty
			continue
		}
		index[item] = len(out)
		out = append(out, Line{Item: item, Quantity: qty})
	}
	return out
}

// Coerce converts a raw quantity into a number. The second result is false
// when v has no numeric reading.
func Coerce(v any) (float64, bool) {
	var f float64
	switch q := v.(type) {
	case nil:
		return 0, true
	case bool:
		if q {
			return 1, true
		}
		return 0, true
	case json.Number:
		p, err := q.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		s := strings.TrimSpace(q)
		if s == "" {
			return 0, true
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	case float64:
		f = q
	case float32:
		f = float64(q)
	case int:
		f = float64(q)
	case int8:
		f = float64(q)
	case int16:
		f = float64(q)
	case int32:
		f = float64(q)
	case int64:
		f = float64(q)
	case uint:
		f = float64(q)
	case uint8:
		f = float64(q)
	case uint16:
		f = float64(q)
	case uint32:
		f = float64(q)
	case uint64:
		f = float64(q)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// maxIntentQty is the largest quantity Filter emits. Any request above
// MaxItemQty reconciles the same way, whatever its size.
const maxIntentQty = MaxItemQty + 1

func toQuantity(f float64) int {
	if f >= maxIntentQty {
		return maxIntentQty
	}
	return int(math.Trunc(f))
}
