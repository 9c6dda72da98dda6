package output

import (
	"encoding/binary"

	"github.com/anyong/tangleclient/pkg/types"
)

// FeatureType tags a feature block.
type FeatureType uint8

// Feature block types.
const (
	FeatureSender   FeatureType = 0
	FeatureIssuer   FeatureType = 1
	FeatureMetadata FeatureType = 2
	FeatureTag      FeatureType = 3
)

// Feature is an opaque typed metadata block attached to an output.
// Sender and Issuer carry Address; Metadata and Tag carry Data.
type Feature struct {
	Type    FeatureType   `json:"type"`
	Address types.Address `json:"address"`
	Data    types.HexBytes `json:"data,omitempty"`
}

// NewSenderFeature marks the output as sent by the given address.
func NewSenderFeature(addr types.Address) Feature {
	return Feature{Type: FeatureSender, Address: addr}
}

// NewIssuerFeature marks an alias or NFT as issued by the given address.
// Only valid in immutable feature sets.
func NewIssuerFeature(addr types.Address) Feature {
	return Feature{Type: FeatureIssuer, Address: addr}
}

// NewMetadataFeature attaches arbitrary metadata bytes.
func NewMetadataFeature(data []byte) Feature {
	return Feature{Type: FeatureMetadata, Data: types.HexBytes(data)}
}

// NewTagFeature attaches an indexable tag.
func NewTagFeature(tag []byte) Feature {
	return Feature{Type: FeatureTag, Data: types.HexBytes(tag)}
}

// serialize appends the canonical byte form of the feature.
func (f Feature) serialize(buf []byte) []byte {
	buf = append(buf, byte(f.Type))
	switch f.Type {
	case FeatureSender, FeatureIssuer:
		buf = append(buf, f.Address.Bytes()...)
	case FeatureMetadata, FeatureTag:
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Data)))
		buf = append(buf, f.Data...)
	}
	return buf
}
