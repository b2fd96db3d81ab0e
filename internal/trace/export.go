package trace

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// arrowBatchRows caps the number of rows per Arrow record batch.
const arrowBatchRows = 4096

// PositionsSchema is the Arrow schema of exported positions.
var PositionsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "tick", Type: arrow.PrimitiveTypes.Int64},
	{Name: "agent", Type: arrow.PrimitiveTypes.Int64},
	{Name: "x", Type: arrow.PrimitiveTypes.Int64},
	{Name: "y", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// Row is one agent position at one tick.
type Row struct {
	RunID string `json:"run_id"`
	Tick  int64  `json:"tick"`
	Agent int64  `json:"agent"`
	X     int64  `json:"x"`
	Y     int64  `json:"y"`
}

// eachRow streams the positions of a run ordered by tick and agent.
func (s *Store) eachRow(ctx context.Context, runID string, fn func(Row) error) error {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, agent, x, y FROM positions WHERE run_id = ? ORDER BY tick, agent`, runID)
	if err != nil {
		return fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := Row{RunID: runID}
		if err := rows.Scan(&r.Tick, &r.Agent, &r.X, &r.Y); err != nil {
			return fmt.Errorf("failed to scan position: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ExportArrow writes the positions of a run to w as an Arrow IPC stream with
// int64 columns tick, agent, x and y.
func (s *Store) ExportArrow(ctx context.Context, runID string, w io.Writer) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, PositionsSchema)
	defer b.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(PositionsSchema), ipc.WithAllocator(mem))

	flush := func() error {
		rec := b.NewRecord()
		defer rec.Release()
		if rec.NumRows() == 0 {
			return nil
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write arrow batch: %w", err)
		}
		return nil
	}

	pending := 0
	err = s.eachRow(ctx, run.ID, func(r Row) error {
		b.Field(0).(*array.Int64Builder).Append(r.Tick)
		b.Field(1).(*array.Int64Builder).Append(r.Agent)
		b.Field(2).(*array.Int64Builder).Append(r.X)
		b.Field(3).(*array.Int64Builder).Append(r.Y)
		pending++
		if pending == arrowBatchRows {
			pending = 0
			return flush()
		}
		return nil
	})
	if err != nil {
		writer.Close()
		return err
	}
	if err := flush(); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close arrow stream: %w", err)
	}
	return nil
}

// ExportJSONL writes one JSON object per position to w.
func (s *Store) ExportJSONL(ctx context.Context, runID string, w io.Writer) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	if err := s.eachRow(ctx, run.ID, func(r Row) error {
		return enc.Encode(r)
	}); err != nil {
		return fmt.Errorf("failed to export run %s: %w", run.ID, err)
	}
	return bw.Flush()
}
