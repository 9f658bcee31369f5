package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Format names accepted by Dump.
const (
	FormatStdout = "STDOUT"
	FormatCSV    = "CSV"
	FormatJSON   = "JSON"
	FormatHTML   = "HTML"
	FormatOrg    = "ORG"
	FormatSQLite = "SQLITE"
)

var ErrUnknownFormat = errors.New("unknown journal format")

// Dumper writes a Report in each configured format.
type Dumper struct {
	Formats []string
	Dir     string
	DBPath  string
	Stdout  io.Writer
	Style   HTMLStyle
	Logger  *zap.Logger
}

// Base is the file name stem shared by every file written for a run.
func (r *Report) Base() string {
	return fmt.Sprintf("%s-%s-%s", r.Run.Symbol, strings.ToLower(r.Run.Strategy), r.RunID)
}

// Dump writes rep in every format. It keeps going after a failure and
// returns all errors joined.
func (d *Dumper) Dump(ctx context.Context, rep *Report) error {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	out := d.Stdout
	if out == nil {
		out = os.Stdout
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}

	var errs []error
	for _, f := range d.Formats {
		var (
			path string
			err  error
		)
		switch strings.ToUpper(f) {
		case FormatStdout:
			err = rep.WriteText(out)
		case FormatCSV:
			path = filepath.Join(dir, rep.Base()+".trades.csv")
			err = rep.writeCSV(path, filepath.Join(dir, rep.Base()+".equity.csv"))
		case FormatJSON:
			path = filepath.Join(dir, rep.Base()+".json")
			err = writeFile(path, rep.WriteJSON)
		case FormatHTML:
			path = filepath.Join(dir, rep.Base()+".html")
			err = writeFile(path, func(w io.Writer) error { return rep.WriteHTML(w, d.Style) })
		case FormatOrg:
			path = filepath.Join(dir, rep.Base()+".org")
			run := rep.Run
			run.OrgPath = path
			err = run.WriteBacktestOrg(rep.Trades)
		case FormatSQLite:
			path = d.DBPath
			err = rep.saveSQLite(ctx, path)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
		if err != nil {
			log.Error("journal write failed", zap.String("format", f), zap.String("path", path), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		if path != "" {
			log.Info("journal written", zap.String("format", f), zap.String("path", path))
		}
	}
	return errors.Join(errs...)
}

func (r *Report) writeCSV(tradesPath, equityPath string) error {
	j, err := NewCSV(tradesPath, equityPath)
	if err != nil {
		return err
	}
	for _, t := range r.Trades {
		if err := j.RecordTrade(t); err != nil {
			_ = j.Close()
			return err
		}
	}
	for _, e := range r.Series {
		if err := j.RecordEquity(e); err != nil {
			_ = j.Close()
			return err
		}
	}
	return j.Close()
}

func (r *Report) saveSQLite(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("db path not set")
	}
	if r.result == nil {
		return errors.New("report has no result to save")
	}
	j, err := NewSQLite(path)
	if err != nil {
		return err
	}
	defer j.Close()
	return j.SaveRun(ctx, r.Run, r.result)
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
