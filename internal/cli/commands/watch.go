package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqleibniz/internal/cli/output"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// watchDebounce is how long the watcher waits for writes to settle.
const watchDebounce = 100 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Re-analyse SQL files whenever they change",
		Long: `Analyse the given files and directories, then watch them and
re-analyse every .sql file that is written. Directories are watched
recursively. Editing the configuration script reloads it and re-analyses
everything.

Without paths the current directory is watched. Stop with Ctrl+C.`,
		Example: `  # Watch the current directory
  sqleibniz watch

  # Watch a migrations folder and a single file
  sqleibniz watch migrations schema.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			w, err := newSQLWatcher(NewCommandContext(cmd), args)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
		Annotations: analysisAnnotations(),
	}

	return cmd
}

// sqlWatcher re-analyses SQL files on change.
type sqlWatcher struct {
	cmdCtx   *CommandContext
	logger   *slog.Logger
	debounce time.Duration
	script   string

	files map[string]bool // explicitly named files
	dirs  []string        // watched directory trees

	// onRun receives every batch of results; it renders them by default.
	onRun func([]*lint.Result)

	mu       sync.Mutex
	analyzer *lint.Analyzer
	pending  map[string]bool
	reload   bool
	timer    *time.Timer
	closed   bool
	flushes  sync.WaitGroup

	runMu sync.Mutex
}

func newSQLWatcher(cmdCtx *CommandContext, paths []string) (*sqlWatcher, error) {
	analyzer, err := cmdCtx.NewAnalyzer()
	if err != nil {
		return nil, err
	}

	w := &sqlWatcher{
		cmdCtx:   cmdCtx,
		logger:   cmdCtx.Logger,
		debounce: watchDebounce,
		files:    make(map[string]bool),
		analyzer: analyzer,
		pending:  make(map[string]bool),
	}
	w.onRun = w.render

	if !cmdCtx.Cfg.IgnoreConfig && cmdCtx.Cfg.Script != "" {
		if abs, err := filepath.Abs(cmdCtx.Cfg.Script); err == nil {
			w.script = abs
		}
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
		if info.IsDir() {
			w.dirs = append(w.dirs, abs)
		} else {
			w.files[abs] = true
		}
	}
	return w, nil
}

// Run analyses every watched file once, then re-analyses changed files
// until ctx is done.
func (w *sqlWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := w.addWatches(watcher); err != nil {
		return err
	}

	all, err := w.collectFiles()
	if err != nil {
		return err
	}
	w.analyze(ctx, all)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.closed = true
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			// a batch already past its timer finishes rendering first
			w.flushes.Wait()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && w.underDirs(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// addWatches registers directory trees, the parent directories of named
// files and the directory of the configuration script. Editors often
// replace files on save, so files are watched through their directory.
func (w *sqlWatcher) addWatches(watcher *fsnotify.Watcher) error {
	for _, dir := range w.dirs {
		if err := watchDirRecursive(watcher, dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	parents := make(map[string]bool)
	for file := range w.files {
		parents[filepath.Dir(file)] = true
	}
	if w.script != "" {
		if _, err := os.Stat(w.script); err == nil {
			parents[filepath.Dir(w.script)] = true
		}
	}
	for dir := range parents {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return nil
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// collectFiles returns every watched SQL file, sorted.
func (w *sqlWatcher) collectFiles() ([]string, error) {
	seen := make(map[string]bool)
	for file := range w.files {
		seen[file] = true
	}
	for _, dir := range w.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSQLFile(path) {
				seen[path] = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
	}

	files := make([]string, 0, len(seen))
	for file := range seen {
		files = append(files, file)
	}
	slices.Sort(files)
	return files, nil
}

func isSQLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

func (w *sqlWatcher) underDirs(path string) bool {
	for _, dir := range w.dirs {
		if rel, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// watched reports whether a change to path should trigger analysis.
func (w *sqlWatcher) watched(path string) bool {
	if w.files[path] {
		return true
	}
	return isSQLFile(path) && w.underDirs(path)
}

// schedule queues path and restarts the debounce timer.
func (w *sqlWatcher) schedule(ctx context.Context, path string) {
	isScript := w.script != "" && path == w.script
	if !isScript && !w.watched(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if isScript {
		w.reload = true
	} else {
		w.pending[path] = true
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.flushes.Add(1)
		w.mu.Unlock()
		defer w.flushes.Done()
		w.flush(ctx)
	})
}

// flush analyses the queued files, reloading the script first if it changed.
// When the script fails to load, the queued files are analysed with the
// previous configuration.
func (w *sqlWatcher) flush(ctx context.Context) {
	w.mu.Lock()
	pending := w.pending
	reload := w.reload
	w.pending = make(map[string]bool)
	w.reload = false
	w.mu.Unlock()

	files := make([]string, 0, len(pending))
	for file := range pending {
		files = append(files, file)
	}
	slices.Sort(files)

	if reload {
		analyzer, err := w.cmdCtx.NewAnalyzer()
		if err != nil {
			w.cmdCtx.Renderer.Error(err.Error())
			w.analyze(ctx, files)
			return
		}
		w.mu.Lock()
		w.analyzer = analyzer
		w.mu.Unlock()
		w.logger.Debug("reloaded configuration script", "path", w.script)

		all, err := w.collectFiles()
		if err != nil {
			w.cmdCtx.Renderer.Error(err.Error())
			w.analyze(ctx, files)
			return
		}
		files = all
	}

	w.analyze(ctx, files)
}

// analyze runs the current analyzer over files, one batch at a time.
func (w *sqlWatcher) analyze(ctx context.Context, files []string) {
	if len(files) == 0 {
		return
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.mu.Lock()
	analyzer := w.analyzer
	w.mu.Unlock()

	results := make([]*lint.Result, 0, len(files))
	for _, file := range files {
		res, err := analyzer.AnalyzeFile(ctx, file)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Files may vanish between the event and the analysis.
			w.logger.Warn("analysis failed", "file", file, "error", err)
			continue
		}
		results = append(results, res)
	}
	w.onRun(results)
}

func (w *sqlWatcher) render(results []*lint.Result) {
	r := w.cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		w.mu.Lock()
		disabled := w.analyzer.Config().Disabled()
		w.mu.Unlock()
		_ = r.JSON(output.NewReport(results, disabled))
		return
	}
	r.Muted(time.Now().Format(time.TimeOnly) + " analysed " + pluralFiles(len(results)))
	renderLintResults(r, results, w.cmdCtx.Cfg.AST)
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
