package codec

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

type yamlCodec struct{}

// YAML returns a YAML 1.2 codec. Content-Type: application/yaml
func YAML() Codec { return yamlCodec{} }

func (yamlCodec) ContentType() string           { return "application/yaml" }
func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (yamlCodec) Unmarshal(data []byte, v any) error {
	switch string(bytes.TrimSpace(data)) {
	case "", "~", "null", "Null", "NULL":
		if err := rejectNull(v); err != nil {
			return err
		}
	}
	return yaml.Unmarshal(data, v)
}
