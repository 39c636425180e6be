// Copyright (c) 2026 Vacaplan. All rights reserved.

package export

import (
	"encoding/csv"
	"io"
)

// writeCSV serializes the stream as RFC 4180 CSV with a header row.
func writeCSV(writer io.Writer, stream func(yield func(*Row) error) error) (int, error) {
	encoder := csv.NewWriter(writer)

	if err := encoder.Write(header); err != nil {
		return 0, err
	}

	count := 0
	err := stream(func(row *Row) error {
		count++
		return encoder.Write(row.cells())
	})
	if err != nil {
		return count, err
	}

	encoder.Flush()
	return count, encoder.Error()
}
