// Package params converts task parameter sets into a strictly
// JSON-serializable form and injects them into notebook documents. Two keys
// get special handling: "product" (an artifact descriptor) and "upstream"
// (a mapping of dependency name to artifact descriptor); both are converted
// through the JSONSerializable hook before injection.
package params

import (
	"fmt"
)

// ProductKey and UpstreamKey are the reserved parameter names.
const (
	ProductKey  = "product"
	UpstreamKey = "upstream"
)

// JSONSerializable is the caller-supplied serialization hook for artifact
// descriptors. Values stored under the reserved keys are converted through
// it; everything else must already be JSON-serializable (a caller contract,
// not validated here).
type JSONSerializable interface {
	ToJSONSerializable() any
}

// Serialize returns a copy of params with the reserved keys converted to
// JSON-serializable form. Values under "upstream" must be a map of
// dependency name to descriptor.
func Serialize(params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}

	if product, ok := out[ProductKey]; ok {
		if s, ok := product.(JSONSerializable); ok {
			out[ProductKey] = s.ToJSONSerializable()
		}
	}

	upstream, ok := out[UpstreamKey]
	if !ok || upstream == nil {
		return out, nil
	}
	switch m := upstream.(type) {
	case map[string]any:
		converted := make(map[string]any, len(m))
		for name, v := range m {
			if s, ok := v.(JSONSerializable); ok {
				converted[name] = s.ToJSONSerializable()
			} else {
				converted[name] = v
			}
		}
		out[UpstreamKey] = converted
	default:
		return nil, fmt.Errorf("%q must be a map of dependency name to artifact, got %T",
			UpstreamKey, upstream)
	}
	return out, nil
}
