package dataset

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hyperjump/qsim/internal/config"
	"github.com/hyperjump/qsim/internal/models"
	"go.uber.org/zap"
)

// Scanner yields records from the configured dataset folders.
type Scanner struct {
	folders     []string
	extensions  []string
	recursive   bool
	topicCol    string
	questionCol string
	extractor   *Extractor
	logger      *zap.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithLogger sets a logger for skipped folders and files.
func WithLogger(l *zap.Logger) ScannerOption {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner creates a scanner over cfg's folders. cfg should have defaults applied.
func NewScanner(cfg *config.DatasetsConfig, opts ...ScannerOption) *Scanner {
	exts := make([]string, 0, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	s := &Scanner{
		folders:     cfg.FolderPaths(),
		extensions:  exts,
		recursive:   cfg.Recursive,
		topicCol:    cfg.TopicColumn,
		questionCol: cfg.QuestionColumn,
		extractor:   NewExtractor(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FolderStatus describes one dataset folder.
type FolderStatus struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Files  int    `json:"files"`
}

// Folders reports each configured folder and how many matching files it holds.
func (s *Scanner) Folders() []FolderStatus {
	out := make([]FolderStatus, len(s.folders))
	for i, dir := range s.folders {
		files, err := s.listFiles(dir)
		out[i] = FolderStatus{
			Name:   filepath.Base(dir),
			Path:   dir,
			Exists: err == nil,
			Files:  len(files),
		}
	}
	return out
}

// FileCount returns the number of matching files across all folders.
func (s *Scanner) FileCount() int {
	n := 0
	for _, f := range s.Folders() {
		n += f.Files
	}
	return n
}

// Paths returns the absolute folder paths being scanned.
func (s *Scanner) Paths() []string {
	return slices.Clone(s.folders)
}

// Extensions returns the normalized file extensions the scanner accepts.
func (s *Scanner) Extensions() []string {
	return slices.Clone(s.extensions)
}

// Matches reports whether path has an accepted extension and is not hidden.
func (s *Scanner) Matches(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	if len(s.extensions) == 0 {
		return true
	}
	return slices.Contains(s.extensions, strings.ToLower(filepath.Ext(name)))
}

// Records returns a lazy sequence of records. Folders are visited in configured
// order and files in lexical order. Missing folders and unreadable files are
// logged and skipped, as are files without both a topic and a question.
// Iteration stops early when ctx is cancelled. Each call rescans the folders.
func (s *Scanner) Records(ctx context.Context) iter.Seq[models.Record] {
	return func(yield func(models.Record) bool) {
		for _, dir := range s.folders {
			group := filepath.Base(dir)
			files, err := s.listFiles(dir)
			if err != nil {
				s.logger.Warn("dataset folder not found, skipping", zap.String("folder", dir), zap.Error(err))
				continue
			}
			if len(files) == 0 {
				s.logger.Warn("dataset folder has no matching files", zap.String("folder", dir))
				continue
			}
			for _, path := range files {
				if ctx.Err() != nil {
					return
				}
				for _, rec := range s.readFile(dir, group, path) {
					if !yield(rec) {
						return
					}
				}
			}
		}
	}
}

// listFiles returns matching files under dir in lexical order.
func (s *Scanner) listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			s.logger.Debug("dataset walk error", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if path != dir && (!s.recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && s.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// readFile turns one file into zero or more records.
func (s *Scanner) readFile(dir, group, path string) []models.Record {
	id, err := filepath.Rel(dir, path)
	if err != nil {
		id = filepath.Base(path)
	}
	id = filepath.ToSlash(id)

	if isSpreadsheet(strings.ToLower(filepath.Ext(path))) {
		rows, err := readSheetRows(path, s.topicCol, s.questionCol)
		if err != nil {
			s.logger.Warn("skipping unreadable workbook", zap.String("path", path), zap.Error(err))
			return nil
		}
		recs := make([]models.Record, 0, len(rows))
		for _, r := range rows {
			rowID := id + "#row" + strconv.Itoa(r.Row)
			if !r.First {
				rowID = id + "#" + r.Sheet + "!row" + strconv.Itoa(r.Row)
			}
			recs = append(recs, models.Record{
				ID:       rowID,
				Group:    group,
				Topic:    r.Topic,
				Question: r.Question,
				Path:     path,
			})
		}
		return recs
	}

	text, err := s.extractor.Extract(path)
	if err != nil {
		s.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
		return nil
	}
	fields, ok := ExtractFields(text)
	if !ok {
		s.logger.Debug("skipping file without topic and question", zap.String("path", path))
		return nil
	}
	return []models.Record{{
		ID:       id,
		Group:    group,
		Topic:    fields.Topic,
		Question: fields.Question,
		Path:     path,
	}}
}
