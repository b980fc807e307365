package trainer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params carries backend hyperparameters as a loose key/value map, the way
// boosting libraries accept them. Typed accessors fall back to a default when
// a key is absent or has an unexpected type.
type Params map[string]any

// ParamsFromYAML parses hyperparameters from YAML bytes.
func ParamsFromYAML(data []byte) (Params, error) {
	p := Params{}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse params yaml: %w", err)
	}
	return p, nil
}

// ParamsFromYAMLFile parses hyperparameters from a YAML file.
func ParamsFromYAMLFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params file: %w", err)
	}
	return ParamsFromYAML(data)
}

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Strings renders every entry as a string, the form tracking servers accept
// for run parameters.
func (p Params) Strings() map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

// WithSeed returns a copy with the random seed set; backends read it under
// the "seed" key.
func (p Params) WithSeed(seed int64) Params {
	out := p.Clone()
	out["seed"] = seed
	return out
}

// Seed returns the configured random seed, 0 when unset.
func (p Params) Seed() int64 { return int64(p.Int("seed", 0)) }

// Float returns the float64 value for key, accepting ints, or def.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Int returns the int value for key, accepting whole floats, or def.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
		return def
	default:
		return def
	}
}

// String returns the string value for key or def.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the bool value for key or def.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}
