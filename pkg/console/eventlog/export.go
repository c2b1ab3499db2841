// Cerberus Console
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Cerberus Console.
//
// Cerberus Console is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Cerberus Console is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Cerberus Console.  If not, see <http://www.gnu.org/licenses/>.

package eventlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
)

type csvRow struct {
	Time     string `csv:"time"`
	Source   string `csv:"source"`
	Severity string `csv:"severity"`
	Message  string `csv:"message"`
	ID       uint64 `csv:"id"`
}

func toRows(entries []models.LogEntry) []*csvRow {
	rows := make([]*csvRow, 0, len(entries))
	for i := range entries {
		rows = append(rows, &csvRow{
			ID:       entries[i].ID,
			Time:     entries[i].Time.UTC().Format(time.RFC3339Nano),
			Source:   string(entries[i].Source),
			Severity: string(entries[i].Severity),
			Message:  entries[i].Message,
		})
	}
	return rows
}

// WriteCSV writes entries as CSV with a header row.
func WriteCSV(w io.Writer, entries []models.LogEntry) error {
	if err := gocsv.Marshal(toRows(entries), w); err != nil {
		return fmt.Errorf("failed to marshal log entries: %w", err)
	}
	return nil
}

// maxExportNames caps the numbered variants tried when exports made in the
// same second collide.
const maxExportNames = 100

// ExportFileName returns the name used for a log export created at t.
func ExportFileName(t time.Time) string {
	return exportName(t, 0)
}

func exportName(t time.Time, n int) string {
	stamp := t.UTC().Format("20060102-150405")
	if n == 0 {
		return "cerberus-log-" + stamp + ".csv"
	}
	return "cerberus-log-" + stamp + "-" + strconv.Itoa(n) + ".csv"
}

// createExportFile opens a new file for an export made at t. An existing
// export is never overwritten: the name gets a numeric suffix instead.
func createExportFile(fs afero.Fs, dir string, t time.Time) (afero.File, string, error) {
	for n := range maxExportNames {
		path := filepath.Join(dir, exportName(t, n))
		f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create export file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("failed to create export file: %d exports already exist for %s",
		maxExportNames, ExportFileName(t))
}

// Export writes entries to a new CSV file in dir and returns its path.
func Export(fs afero.Fs, dir string, at time.Time, entries []models.LogEntry) (string, error) {
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	f, path, err := createExportFile(fs, dir, at)
	if err != nil {
		return "", err
	}

	if err := WriteCSV(f, entries); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	return path, nil
}
