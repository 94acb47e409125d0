package triage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// DefaultSessionID is used for transcript rows that do not name a session.
const DefaultSessionID = "default"

// TranscriptRow is one user utterance and the reply it received.
type TranscriptRow struct {
	Session    string
	Utterance  string
	Reply      string
	Department string
}

var transcriptHeader = []string{"session", "utterance", "reply", "department"}

// ReadUtterances reads a script of utterances to replay. The utterance
// column is required; a missing session column puts every row in
// DefaultSessionID. A file with a single column and no recognised header is
// read as one utterance per line.
func ReadUtterances(r io.Reader, comma rune) ([]TranscriptRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read utterances: %v", ErrInvalidInput, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no utterances", ErrInvalidInput)
	}
	header := make([]string, len(records[0]))
	for i, cell := range records[0] {
		header[i] = cleanCell(cell)
	}
	uttCol := findColumn(header, []string{"utterance", "text", "message"})
	sessCol := findColumn(header, []string{"session", "session_id", "conversation"})
	body := records[1:]
	if uttCol < 0 {
		if len(header) > 1 {
			return nil, fmt.Errorf("%w: missing utterance column", ErrInvalidInput)
		}
		uttCol = 0
		body = records
	}

	rows := make([]TranscriptRow, 0, len(body))
	for _, rec := range body {
		if isBlankRow(rec) {
			continue
		}
		session := cellAt(rec, sessCol)
		if session == "" {
			session = DefaultSessionID
		}
		rows = append(rows, TranscriptRow{Session: session, Utterance: cellAt(rec, uttCol)})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no utterances", ErrInvalidInput)
	}
	return rows, nil
}

// WriteTranscript writes rows as CSV with a header line.
func WriteTranscript(w io.Writer, rows []TranscriptRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(transcriptHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write([]string{row.Session, row.Utterance, row.Reply, row.Department}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush transcript: %w", err)
	}
	return nil
}

// HistoryRows pairs each user turn of history with the assistant turn that
// follows it. Assistant turns without a preceding user turn, such as the
// opening message, are skipped.
func HistoryRows(sessionID string, history []Turn) []TranscriptRow {
	var rows []TranscriptRow
	for i := 0; i < len(history); i++ {
		if history[i].Role != RoleUser {
			continue
		}
		row := TranscriptRow{Session: sessionID, Utterance: history[i].Text}
		if i+1 < len(history) && history[i+1].Role == RoleAssistant {
			row.Reply = history[i+1].Text
			row.Department = history[i+1].Department
			i++
		}
		rows = append(rows, row)
	}
	return rows
}

// Replay feeds rows through store in order, one session per distinct
// Session value, and fills in Reply and Department. A resolver failure is
// recorded in the row and replay continues; other errors stop it.
func Replay(ctx context.Context, store *Sessions, rows []TranscriptRow) ([]TranscriptRow, error) {
	out := make([]TranscriptRow, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return out[:i], err
		}
		sess := store.GetOrCreate(row.Session)
		turn, reply, err := sess.SubmitUtterance(ctx, row.Utterance)
		if err != nil && !errors.Is(err, ErrResolve) {
			return out[:i], err
		}
		row.Reply = turn.Text
		row.Department = reply.Department
		out[i] = row
	}
	return out, nil
}
