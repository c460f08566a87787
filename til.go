package idb

import (
	"fmt"

	"github.com/pkg/errors"
)

const tilSignature = "IDATIL"

// TIL is a signature-validated, opaque placeholder for the type library
// section; an upper analysis layer is expected to interpret its bytes.
type TIL struct {
	payload Range
}

// parseTIL validates the section signature and retains the whole
// payload verbatim.
func parseTIL(data Range) (*TIL, error) {
	sig, err := data.Sub(0, len(tilSignature))
	if err != nil {
		return nil, errors.Wrap(err, "til: truncated signature")
	}
	if string(sig) != tilSignature {
		return nil, &FormatError{Section: "til", Detail: fmt.Sprintf("bad signature %q", sig)}
	}
	return &TIL{payload: data}, nil
}

// Validate re-checks the signature.
func (t *TIL) Validate() error {
	if t.payload.Len() < len(tilSignature) || string(t.payload[:len(tilSignature)]) != tilSignature {
		return &FormatError{Section: "til", Detail: "bad signature"}
	}
	return nil
}

// Bytes returns the section's payload verbatim, signature included.
func (t *TIL) Bytes() Range { return t.payload }
