package export

import (
	"encoding/csv"
	"io"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a UTF-8 BOM, the header line and every row.
func WriteCSV(w io.Writer, cols []string, rows [][]string) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
