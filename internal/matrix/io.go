package matrix

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// csrFile is the on-disk CBOR layout for a float64 CSR matrix. The format is
// deliberately dumb: one self-describing map, no framing, no compression.
type csrFile struct {
	Rows   int       `cbor:"rows"`
	Cols   int       `cbor:"cols"`
	Base   int       `cbor:"base"`
	RowPtr []int     `cbor:"row_ptr"`
	ColInd []int     `cbor:"col_ind"`
	Val    []float64 `cbor:"val"`
}

// WriteCSR encodes a float64 CSR matrix as CBOR.
func WriteCSR(w io.Writer, a *CSR[float64]) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid matrix: %w", err)
	}
	enc := cbor.NewEncoder(w)
	return enc.Encode(csrFile{
		Rows:   a.Rows,
		Cols:   a.Cols,
		Base:   a.Base,
		RowPtr: a.RowPtr,
		ColInd: a.ColInd,
		Val:    a.Val,
	})
}

// ReadCSR decodes a CBOR-encoded CSR matrix and validates it before
// returning, so nothing malformed ever reaches a kernel.
func ReadCSR(r io.Reader) (*CSR[float64], error) {
	var f csrFile
	dec := cbor.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode CSR: %w", err)
	}
	a := &CSR[float64]{
		Rows:   f.Rows,
		Cols:   f.Cols,
		Base:   f.Base,
		RowPtr: f.RowPtr,
		ColInd: f.ColInd,
		Val:    f.Val,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// LoadCSRFile reads a CBOR matrix file from disk.
func LoadCSRFile(path string) (*CSR[float64], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSR(f)
}
