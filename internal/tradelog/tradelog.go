package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var mu sync.Mutex

// Entry is one executed trade, one JSON line per entry in the day file
// named after the simulated date.
type Entry struct {
	Time, Agent, Date, Symbol, Side, Reason string
	Shares                                  int
	Price                                   float64
	Amount                                  float64
	Commission                              float64
	Extra                                   map[string]any `json:"extra,omitempty"`
}

// DecisionEntry is one agent decision, executed or not.
type DecisionEntry struct {
	Time, Agent, Date, Symbol, Action, Reason string
	Shares                                    int
	Executed                                  bool
	Extra                                     map[string]any `json:"extra,omitempty"`
}

func logDir() string {
	if v := os.Getenv("SIM_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(simDate string) string {
	return filepath.Join(logDir(), simDate+".txt")
}

func decisionsFilepath(simDate string) string {
	return filepath.Join(logDir(), "decisions", simDate+".txt")
}

func appendLine(path string, v any) error {
	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

func Append(e Entry) error {
	e.Time = time.Now().Format("2006-01-02 15:04:05")
	return appendLine(dailyFilepath(e.Date), e)
}

func AppendDecision(e DecisionEntry) error {
	e.Time = time.Now().Format("2006-01-02 15:04:05")
	return appendLine(decisionsFilepath(e.Date), e)
}

// CompressOlder gzips day files older than retentionDays and removes the
// originals. Best effort: unreadable files are skipped, not fatal.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}

		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()

		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
