// Package dataset walks a DSTC5 corpus: dataset file lists name sessions,
// and each session directory holds a log, its translations and its labels.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
	"github.com/FocuswithJustin/dstckit/internal/archive"
)

// TranslationsFile is the per-session machine translation file.
const TranslationsFile = "translations.json"

// Options select what a Walker loads.
type Options struct {
	// Root is the corpus directory holding the session directories.
	Root string
	// ConfigDir holds the <dataset>.flist files.
	ConfigDir string
	Task      Task
	// Role is required for the SAP and SLG tasks.
	Role         Role
	Labels       bool
	Translations bool
	Logger       *slog.Logger
}

// Walker iterates the sessions of one or more datasets.
type Walker struct {
	opts      Options
	datasets  []string
	sessions  []string
	logFile   string
	labelFile string
}

// ParseDatasets accepts a single dataset name or a JSON list of names.
func ParseDatasets(s string) ([]string, error) {
	if !strings.Contains(s, "[") {
		return []string{s}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, cerrors.NewParse("dataset list", "", err)
	}
	return names, nil
}

// New reads the file list of every dataset. A session listed twice is an
// error.
func New(datasets []string, opts Options) (*Walker, error) {
	if opts.Task == "" {
		opts.Task = TaskMain
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logFile, labelFile, err := Files(opts.Task, opts.Role)
	if err != nil {
		return nil, err
	}

	w := &Walker{
		opts:      opts,
		datasets:  datasets,
		logFile:   logFile,
		labelFile: labelFile,
	}

	seen := make(map[string]bool)
	for _, name := range datasets {
		ids, err := w.readFlist(filepath.Join(opts.ConfigDir, name+".flist"))
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if seen[id] {
				return nil, cerrors.NewDuplicate("session", id)
			}
			seen[id] = true
			w.sessions = append(w.sessions, id)
		}
	}

	opts.Logger.Debug("dataset file lists read",
		"datasets", datasets,
		"sessions", len(w.sessions),
		"task", string(opts.Task),
	)
	return w, nil
}

// readFlist returns the session ids of one file list. Entries containing
// glob meta characters are expanded against the corpus root, matching
// directories only, in lexical order.
func (w *Walker) readFlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &cerrors.NotFoundError{Resource: "dataset file list", ID: path, Err: err}
		}
		return nil, cerrors.NewIO("open", path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.ContainsAny(line, "*?[{") {
			ids = append(ids, line)
			continue
		}
		matches, err := w.expand(line)
		if err != nil {
			return nil, cerrors.NewParse("flist", path, err)
		}
		ids = append(ids, matches...)
	}
	if err := scanner.Err(); err != nil {
		return nil, cerrors.NewIO("read", path, err)
	}
	return ids, nil
}

func (w *Walker) expand(pattern string) ([]string, error) {
	fsys := os.DirFS(w.opts.Root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, m := range matches {
		if info, err := fs.Stat(fsys, m); err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Datasets returns the dataset names the walker was created with.
func (w *Walker) Datasets() []string {
	return w.datasets
}

// Task returns the task the walker loads files for.
func (w *Walker) Task() Task {
	return w.opts.Task
}

// Role returns the pilot-task role, empty for MAIN and SLU.
func (w *Walker) Role() Role {
	return w.opts.Role
}

// Len returns the number of sessions.
func (w *Walker) Len() int {
	return len(w.sessions)
}

// SessionIDs returns the file-list entries in order.
func (w *Walker) SessionIDs() []string {
	return w.sessions
}

// SessionDir returns the directory of session i.
func (w *Walker) SessionDir(i int) string {
	parts := append([]string{w.opts.Root}, strings.Split(w.sessions[i], "/")...)
	return filepath.Join(parts...)
}

// Load reads the files of session i.
func (w *Walker) Load(i int) (*Session, error) {
	dir := w.SessionDir(i)
	s := &Session{ID: w.sessions[i], Dir: dir}

	if err := archive.ReadJSON(filepath.Join(dir, w.logFile), &s.Log); err != nil {
		return nil, err
	}

	if w.opts.Translations {
		path := filepath.Join(dir, TranslationsFile)
		if !archive.Exists(path) {
			return nil, cerrors.NewNotFound("translations file", path)
		}
		s.Translations = &Translations{}
		if err := archive.ReadJSON(path, s.Translations); err != nil {
			return nil, err
		}
	}

	if w.opts.Labels {
		path := filepath.Join(dir, w.labelFile)
		if !archive.Exists(path) {
			return nil, cerrors.NewNotFound("labels file", path)
		}
		s.Labels = &Labels{}
		if err := archive.ReadJSON(path, s.Labels); err != nil {
			return nil, err
		}
		s.Labels.normalize()
	}

	return s, nil
}

// Walk loads every session in order and calls fn with it. It stops at the
// first error, or between sessions when ctx is cancelled.
func (w *Walker) Walk(ctx context.Context, fn func(*Session) error) error {
	for i := range w.sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := w.Load(i)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// Session is one loaded dialogue session.
type Session struct {
	ID           string
	Dir          string
	Log          Log
	Translations *Translations
	Labels       *Labels
}

// Len returns the number of logged utterances.
func (s *Session) Len() int {
	return len(s.Log.Utterances)
}

// Turns pairs every logged utterance with the translation and label of the
// same utter_index. Pilot-task label files list only one role's
// utterances, so a turn may have a nil Label even when labels are loaded.
func (s *Session) Turns() []Turn {
	var translations map[int]*TranslationUtterance
	if s.Translations != nil {
		translations = make(map[int]*TranslationUtterance, len(s.Translations.Utterances))
		for i := range s.Translations.Utterances {
			u := &s.Translations.Utterances[i]
			translations[u.UtterIndex] = u
		}
	}
	var labels map[int]*LabelUtterance
	if s.Labels != nil {
		labels = make(map[int]*LabelUtterance, len(s.Labels.Utterances))
		for i := range s.Labels.Utterances {
			u := &s.Labels.Utterances[i]
			labels[u.UtterIndex] = u
		}
	}

	turns := make([]Turn, len(s.Log.Utterances))
	for i := range turns {
		log := &s.Log.Utterances[i]
		turns[i] = Turn{
			Log:         log,
			Translation: translations[log.UtterIndex],
			Label:       labels[log.UtterIndex],
		}
	}
	return turns
}

// RoleTurns returns the turns spoken by role.
func (s *Session) RoleTurns(role Role) []Turn {
	var out []Turn
	for _, t := range s.Turns() {
		if role.Speaks(t.Log.Speaker) {
			out = append(out, t)
		}
	}
	return out
}

func (l *Labels) normalize() {
	for i := range l.Utterances {
		acts := l.Utterances[i].SpeechAct
		for j := range acts {
			acts[j] = acts[j].Normalize()
		}
	}
}
