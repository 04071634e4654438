// Package operators is the reference operator library: a small set of
// filters, transformers, and annotators grounded on
// original_source/crates/fdf-operators and original_source/crates/fdf-ops-text,
// enough to run the end-to-end scenarios in spec.md §8 without a custom
// operator package.
package operators

import "gopkg.in/yaml.v2"

// decodeConfig re-encodes the arbitrary YAML-decoded config value (usually
// a map[interface{}]interface{} from gopkg.in/yaml.v2) and decodes it into
// out, so each operator factory can declare a small typed config struct
// instead of hand-walking a generic map.
func decodeConfig(config interface{}, out interface{}) error {
	raw, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, out)
}
