package output

import (
	"encoding/json"
	"fmt"
)

// envelope carries the kind discriminant alongside a variant's fields.
type envelope struct {
	Kind Kind `json:"kind"`
}

// MarshalOutput encodes an output as JSON with a kind discriminant, the
// form used on the binding bridge and the node API.
func MarshalOutput(o Output) ([]byte, error) {
	switch v := o.(type) {
	case *BasicOutput:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			*BasicOutput
		}{KindBasic, v})
	case *AliasOutput:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			*AliasOutput
		}{KindAlias, v})
	case *FoundryOutput:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			*FoundryOutput
		}{KindFoundry, v})
	case *NftOutput:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			*NftOutput
		}{KindNFT, v})
	default:
		return nil, fmt.Errorf("unknown output type %T", o)
	}
}

// UnmarshalOutput decodes a kind-discriminated JSON output into the
// matching variant and validates it.
func UnmarshalOutput(data []byte) (Output, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode output envelope: %w", err)
	}
	var o Output
	switch env.Kind {
	case KindBasic:
		o = &BasicOutput{}
	case KindAlias:
		o = &AliasOutput{}
	case KindFoundry:
		o = &FoundryOutput{}
	case KindNFT:
		o = &NftOutput{}
	default:
		return nil, fmt.Errorf("unknown output kind %d", env.Kind)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("decode %s output: %w", env.Kind, err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}
