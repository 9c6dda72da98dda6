// Package tx defines transaction essences, unlock blocks and payloads,
// and implements transaction assembly and signing.
package tx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/anyong/tangleclient/pkg/crypto"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/types"
)

// TaggedData is an optional auxiliary payload carried by an essence,
// indexable by its tag.
type TaggedData struct {
	Tag  types.HexBytes `json:"tag"`
	Data types.HexBytes `json:"data,omitempty"`
}

// Essence is the signed content of a transaction: the consumed output ids,
// the outputs to create and an optional tagged data payload.
type Essence struct {
	Inputs  []types.OutputID
	Outputs []output.Output
	Payload *TaggedData
}

// SigningBytes returns the canonical byte representation covered by input
// signatures. Format: input_count(2) | [output_id(34)]... | output_count(2) |
// [output_len(4) + output_bytes]... | payload_flag(1) [+ tagged data].
func (e *Essence) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.Inputs)))
	for _, in := range e.Inputs {
		buf = append(buf, in.Bytes()...)
	}

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.Outputs)))
	for _, out := range e.Outputs {
		ser := out.Serialize()
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ser)))
		buf = append(buf, ser...)
	}

	if e.Payload != nil {
		buf = append(buf, 1)
		buf = append(buf, byte(len(e.Payload.Tag)))
		buf = append(buf, e.Payload.Tag...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Payload.Data)))
		buf = append(buf, e.Payload.Data...)
	} else {
		buf = append(buf, 0)
	}

	return buf
}

// Hash computes the essence hash signed by unlock blocks.
func (e *Essence) Hash() types.Hash {
	return crypto.Blake2b256(e.SigningBytes())
}

// essenceJSON is the JSON form of Essence; outputs need the
// kind-discriminated encoding.
type essenceJSON struct {
	Inputs  []types.OutputID  `json:"inputs"`
	Outputs []json.RawMessage `json:"outputs"`
	Payload *TaggedData       `json:"payload,omitempty"`
}

// MarshalJSON encodes the essence with kind-discriminated outputs.
func (e *Essence) MarshalJSON() ([]byte, error) {
	j := essenceJSON{Inputs: e.Inputs, Payload: e.Payload}
	for _, out := range e.Outputs {
		raw, err := output.MarshalOutput(out)
		if err != nil {
			return nil, err
		}
		j.Outputs = append(j.Outputs, raw)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes an essence with kind-discriminated outputs.
func (e *Essence) UnmarshalJSON(data []byte) error {
	var j essenceJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.Inputs = j.Inputs
	e.Payload = j.Payload
	e.Outputs = nil
	for i, raw := range j.Outputs {
		out, err := output.UnmarshalOutput(raw)
		if err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		e.Outputs = append(e.Outputs, out)
	}
	return nil
}

// UnlockBlockType tags an unlock block.
type UnlockBlockType uint8

// Unlock block types.
const (
	UnlockSignature UnlockBlockType = 0
	UnlockReference UnlockBlockType = 1
)

// UnlockBlock authorizes the consumption of one input. A Signature block
// carries a public key and a signature over the essence hash; a Reference
// block points at the Signature block of an earlier input controlled by
// the same address.
type UnlockBlock struct {
	Type      UnlockBlockType `json:"type"`
	PublicKey types.HexBytes  `json:"publicKey,omitempty"`
	Signature types.HexBytes  `json:"signature,omitempty"`
	Reference uint16          `json:"reference,omitempty"`
}

// serialize appends the canonical byte form of the unlock block.
func (u UnlockBlock) serialize(buf []byte) []byte {
	buf = append(buf, byte(u.Type))
	switch u.Type {
	case UnlockSignature:
		buf = append(buf, u.PublicKey...)
		buf = append(buf, u.Signature...)
	case UnlockReference:
		buf = binary.LittleEndian.AppendUint16(buf, u.Reference)
	}
	return buf
}

// Payload is a signed transaction: the essence plus one unlock block per
// input, in input order. Immutable once signed.
type Payload struct {
	Essence      *Essence      `json:"essence"`
	UnlockBlocks []UnlockBlock `json:"unlockBlocks"`
}

// Serialize returns the canonical byte form of the whole payload.
func (p *Payload) Serialize() []byte {
	buf := p.Essence.SigningBytes()
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p.UnlockBlocks)))
	for _, u := range p.UnlockBlocks {
		buf = u.serialize(buf)
	}
	return buf
}

// ID computes the transaction id: the BLAKE2b-256 hash of the serialized
// payload. Output ids of the created outputs derive from it.
func (p *Payload) ID() types.TransactionID {
	return types.TransactionID(crypto.Blake2b256(p.Serialize()))
}
