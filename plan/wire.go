package plan

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrMalformed reports a decoded tree that no writer could have produced.
var ErrMalformed = errors.New("plan: malformed element")

// cborEncMode uses canonical options so equal trees encode to equal bytes.
var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("plan: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	// Each element level costs two CBOR levels (map + children array).
	dm, err := cbor.DecOptions{MaxNestedLevels: 2*DefaultMaxDepth + 2}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("plan: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// EncodeCBOR serializes an element tree to canonical CBOR.
func EncodeCBOR(el *Element) ([]byte, error) {
	data, err := cborEncMode.Marshal(el)
	if err != nil {
		return nil, fmt.Errorf("plan: marshal: %w", err)
	}
	return data, nil
}

// DecodeCBOR deserializes an element tree from CBOR.
func DecodeCBOR(data []byte) (*Element, error) {
	var el Element
	if err := cborDecMode.Unmarshal(data, &el); err != nil {
		return nil, fmt.Errorf("plan: unmarshal: %w", err)
	}
	if el.Tag == "" {
		return nil, ErrEmptyDocument
	}
	if err := checkDecoded(&el); err != nil {
		return nil, err
	}
	return &el, nil
}

// checkDecoded rejects null children and untagged elements below the root.
func checkDecoded(el *Element) error {
	for i, c := range el.Children {
		if c == nil {
			return fmt.Errorf("%w: child %d of <%s> is null", ErrMalformed, i, el.Tag)
		}
		if c.Tag == "" {
			return fmt.Errorf("%w: child %d of <%s> has no tag", ErrMalformed, i, el.Tag)
		}
		if err := checkDecoded(c); err != nil {
			return err
		}
	}
	return nil
}
