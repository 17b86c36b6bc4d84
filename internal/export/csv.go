package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// RenderCSV writes rows as CSV. The header is taken from the first row and
// lines are CRLF separated without a trailing newline.
func RenderCSV(rows []Row, loc *time.Location) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoTickets
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(rows[0].Columns()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Values(loc)); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", row.Serial, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\r\n")), nil
}
