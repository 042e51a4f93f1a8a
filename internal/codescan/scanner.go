package codescan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"steer/internal/logging"
	"steer/internal/types"
)

// DefaultMaxFileBytes skips generated or vendored giants.
const DefaultMaxFileBytes = 512 * 1024

// Scanner runs the per-language rules. It is safe for concurrent use; each
// scan gets its own tree-sitter parser.
type Scanner struct {
	maxFileBytes int64
	workers      int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxFileBytes sets the size above which files are skipped.
func WithMaxFileBytes(n int64) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxFileBytes = n
		}
	}
}

// WithWorkers bounds concurrent file scans.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewScanner creates a scanner.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{maxFileBytes: DefaultMaxFileBytes, workers: 4}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanSource scans src as the language implied by path. Unknown languages
// yield no warnings.
func (s *Scanner) ScanSource(ctx context.Context, path string, src []byte) ([]types.CodeWarning, error) {
	lang := DetectLanguage(path)
	if lang == LangUnknown {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	visit := lang.visitor()
	var warnings []types.CodeWarning

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if f := visit(n, src); f != nil {
			warnings = append(warnings, types.CodeWarning{
				File:     path,
				Line:     int(n.StartPoint().Row) + 1,
				Rule:     f.rule,
				Message:  f.message,
				Severity: f.severity,
			})
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())

	logging.Get(logging.CategoryScan).Debug("Scanned %s (%s): %d warnings", filepath.Base(path), lang, len(warnings))
	return warnings, nil
}

// ScanFiles reads and scans paths concurrently. Unsupported, missing and
// oversized files are skipped with a log line. Results are ordered by file
// then line.
func (s *Scanner) ScanFiles(ctx context.Context, paths []string) ([]types.CodeWarning, error) {
	timer := logging.StartTimer(logging.CategoryScan, "ScanFiles")
	defer timer.Stop()

	var (
		mu  sync.Mutex
		all []types.CodeWarning
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, path := range paths {
		if !Supported(path) {
			logging.Get(logging.CategoryScan).Debug("Skipping unsupported file %s", path)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, ok := s.read(path)
			if !ok {
				return nil
			}
			warnings, err := s.ScanSource(gctx, path, src)
			if err != nil {
				logging.Get(logging.CategoryScan).Warn("Scan failed for %s: %v", path, err)
				return nil
			}
			mu.Lock()
			all = append(all, warnings...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		return all[i].Line < all[j].Line
	})
	logging.Get(logging.CategoryScan).Info("Scanned %d files: %d warnings", len(paths), len(all))
	return all, nil
}

func (s *Scanner) read(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil {
		logging.Get(logging.CategoryScan).Warn("Cannot stat %s: %v", path, err)
		return nil, false
	}
	if info.IsDir() {
		return nil, false
	}
	if info.Size() > s.maxFileBytes {
		logging.Get(logging.CategoryScan).Warn("Skipping %s: %d bytes exceeds limit %d", path, info.Size(), s.maxFileBytes)
		return nil, false
	}
	src, err := os.ReadFile(path)
	if err != nil {
		logging.Get(logging.CategoryScan).Warn("Cannot read %s: %v", path, err)
		return nil, false
	}
	return src, true
}
