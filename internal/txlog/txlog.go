// Package txlog implements the append-only CSV transaction log, the single
// source of truth the aggregate snapshot is derived from.
package txlog

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"finpulse/internal/core"
)

// Header is the fixed column order of the log. External writers are
// expected to honor it; rows that do not are skipped at scan time.
var Header = []string{"date", "type", "merchant", "category", "amount", "account", "payment_method", "notes"}

type (
	Log struct {
		mu   sync.Mutex
		path string
	}

	// SkippedRow records one malformed row encountered during a scan.
	// Skips are counted and reported, never silently discarded.
	SkippedRow struct {
		Line   int
		Reason string
	}

	// ScanReport summarizes a full log scan.
	ScanReport struct {
		Rows    int
		Skipped []SkippedRow
	}
)

func (r ScanReport) SkippedCount() int { return len(r.Skipped) }

func New(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string { return l.path }

// Append writes one whole row to the log, creating the file with its
// header on first use. The row is flushed and synced before Append
// returns; partial rows are never visible to readers.
func (l *Log) Append(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open transaction log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat transaction log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("write log header: %w", err)
		}
	}

	category := tx.Category
	if category == "" {
		category = core.DefaultCategory
	}

	record := []string{
		tx.Date.String(),
		string(tx.Type),
		tx.Merchant,
		category,
		tx.Amount.String(),
		tx.Account,
		tx.PaymentMethod,
		tx.Notes,
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush log row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync transaction log: %w", err)
	}

	slog.InfoContext(ctx, "Transaction appended to log",
		"type", tx.Type,
		"category", category,
		"amount", tx.Amount,
		"date", tx.Date.String())

	return nil
}

// ReadAll scans the entire log. Malformed rows are skipped individually
// and reported through the ScanReport; a single bad row never aborts the
// scan. A missing file is an empty log, not an error.
func (l *Log) ReadAll(ctx context.Context) ([]core.Transaction, ScanReport, error) {
	var report ScanReport

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, report, nil
		}
		return nil, report, fmt.Errorf("open transaction log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var txs []core.Transaction
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "unparsable row"})
				continue
			}
			return nil, report, fmt.Errorf("read transaction log: %w", err)
		}
		if line == 1 && isHeader(record) {
			continue
		}

		tx, reason := parseRecord(record)
		if reason != "" {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: reason})
			continue
		}
		txs = append(txs, tx)
		report.Rows++
	}

	return txs, report, nil
}

// RowCount returns the number of data rows without parsing them. It is the
// cheap change-detection signal for the reconciliation loop.
func (l *Log) RowCount(ctx context.Context) (int, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open transaction log: %w", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("count log rows: %w", err)
	}
	if count > 0 {
		count-- // header
	}
	return count, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "date")
}

// parseRecord maps one CSV row to a transaction, returning a skip reason
// for anything malformed. A type other than income is read as expense,
// matching what the legacy writers put in the log.
func parseRecord(record []string) (core.Transaction, string) {
	if len(record) < len(Header) {
		return core.Transaction{}, "missing fields"
	}

	date, err := core.ParseDate(record[0])
	if err != nil {
		return core.Transaction{}, "unparsable date"
	}

	amount, err := core.ParseAmount(record[4])
	if err != nil {
		return core.Transaction{}, "non-numeric amount"
	}

	txType := core.Expense
	if strings.EqualFold(strings.TrimSpace(record[1]), string(core.Income)) {
		txType = core.Income
	}

	category := strings.TrimSpace(record[3])
	if category == "" {
		category = core.DefaultCategory
	}

	return core.Transaction{
		Date:          date,
		Type:          txType,
		Merchant:      record[2],
		Category:      category,
		Amount:        amount,
		Account:       record[5],
		PaymentMethod: record[6],
		Notes:         record[7],
	}, ""
}
