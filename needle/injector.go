package needle

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/simonhull/firebird-suite/plume/filesystem"
	"github.com/simonhull/firebird-suite/plume/logger"
)

// Injector applies requests to files on an FS.
type Injector struct {
	fs  filesystem.FS
	log logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewInjector creates an injector writing through fsys.
func NewInjector(fsys filesystem.FS, log logger.Logger) *Injector {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Injector{
		fs:    fsys,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding path.
func (i *Injector) lockFor(path string) *sync.Mutex {
	i.mu.Lock()
	defer i.mu.Unlock()

	l, ok := i.locks[path]
	if !ok {
		l = &sync.Mutex{}
		i.locks[path] = l
	}
	return l
}

// Inject reads req.File, inserts the content and writes the file back when
// it changed. Calls targeting the same path run one at a time.
func (i *Injector) Inject(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	path := filepath.Clean(req.File)
	l := i.lockFor(path)
	l.Lock()
	defer l.Unlock()

	ok, err := i.fs.Exists(path)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		if req.IgnoreNonExisting {
			i.log.Debug("injection target missing, skipped",
				logger.F("file", path),
				logger.F("needle", Sentinel(req.Needle)))
			return Result{}, nil
		}
		return Result{}, &FileNotFoundError{File: path, Needle: Sentinel(req.Needle)}
	}

	data, err := i.fs.ReadFile(path)
	if err != nil {
		return Result{}, err
	}

	req.File = path
	res, err := Insert(string(data), req)
	if err != nil {
		return Result{}, err
	}

	if res.Warning != "" {
		i.log.Warn(res.Warning, logger.F("file", path))
	}
	if !res.Changed {
		i.log.Debug("needle content already present", logger.F("file", path), logger.F("needle", Sentinel(req.Needle)))
		return res, nil
	}

	if err := i.fs.WriteFile(path, []byte(res.Content), 0644); err != nil {
		return Result{}, err
	}
	i.log.Debug("needle content inserted",
		logger.F("file", path),
		logger.F("needle", Sentinel(req.Needle)),
		logger.F("occurrences", res.Occurrences))

	return res, nil
}

// Transform adapts req into a content transform. The transform only edits
// files whose path matches req.File; an empty File matches every file.
func Transform(req Request, log logger.Logger) func(ctx context.Context, path string, content []byte) ([]byte, error) {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return func(ctx context.Context, path string, content []byte) ([]byte, error) {
		if req.File != "" && filepath.Clean(req.File) != filepath.Clean(path) {
			return content, nil
		}
		r := req
		r.File = path
		res, err := Insert(string(content), r)
		if err != nil {
			return nil, err
		}
		if res.Warning != "" {
			log.Warn(res.Warning, logger.F("file", path))
		}
		return []byte(res.Content), nil
	}
}
