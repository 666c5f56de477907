package ledger

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/types"
)

var (
	journalMu  sync.Mutex
	journalDir = "logs"
)

// JournalEntry is one executed trade in the process-level journal.
type JournalEntry struct {
	Time      string         `json:"time"`
	UserID    string         `json:"user_id"`
	Kind      types.TxKind   `json:"kind"`
	Amount    float64        `json:"amount"`
	Price     float64        `json:"price"`
	USDValue  float64        `json:"usd_value"`
	Reference string         `json:"reference"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// SetJournalDir changes where daily journal files are written.
func SetJournalDir(dir string) {
	journalMu.Lock()
	defer journalMu.Unlock()
	if dir != "" {
		journalDir = dir
	}
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(journalDir, t.UTC().Format("2006-01-02")+".txt")
}

// Journal appends one executed trade to today's journal file.
func Journal(e JournalEntry) error {
	journalMu.Lock()
	defer journalMu.Unlock()

	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files older than retentionDays.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	journalMu.Lock()
	root := journalDir
	journalMu.Unlock()

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
