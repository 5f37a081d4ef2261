package main

import (
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-bodkin/internal/matrix"
)

// writeArrowResult dumps C as an Arrow IPC file with one record: a row index
// column and a fixed-size-list column holding each output row.
func writeArrowResult(path string, c *matrix.Dense[float64], m, n int) error {
	mem := memory.NewGoAllocator()

	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "row", Type: arrow.PrimitiveTypes.Int64},
			{Name: "values", Type: arrow.FixedSizeListOf(int32(n), arrow.PrimitiveTypes.Float64)},
		},
		nil,
	)

	rowBuilder := array.NewInt64Builder(mem)
	defer rowBuilder.Release()
	listBuilder := array.NewFixedSizeListBuilder(mem, int32(n), arrow.PrimitiveTypes.Float64)
	defer listBuilder.Release()
	valueBuilder := listBuilder.ValueBuilder().(*array.Float64Builder)

	for i := 0; i < m; i++ {
		rowBuilder.Append(int64(i))
		listBuilder.Append(true)
		for j := 0; j < n; j++ {
			valueBuilder.Append(c.At(i, j))
		}
	}

	cols := []arrow.Array{rowBuilder.NewArray(), listBuilder.NewArray()}
	defer cols[0].Release()
	defer cols[1].Release()

	rec := array.NewRecord(schema, cols, int64(m))
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
