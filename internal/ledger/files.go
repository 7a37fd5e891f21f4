package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JonMunkholm/salaryreview/internal/core"
)

// DefaultArchiveSheet is the sheet the archive workbook is written to.
const DefaultArchiveSheet = "Sent Payroll Info"

// codec reads and writes one on-disk table format.
type codec interface {
	read(path, sheet string) (core.Dataset, error)
	write(path, sheet string, ds core.Dataset) error
	// sheetFor names the sheet a write to path should target: want when
	// the file has it, else the sheet a read would fall back to.
	sheetFor(path, want string) string
}

// FileStore is a core.Gateway over spreadsheet files in one directory.
// Table names are file names; the extension picks the format (.csv for
// comma-separated text, anything else is treated as an .xlsx workbook).
type FileStore struct {
	dir          string
	archiveSheet string
	logger       *slog.Logger

	mu sync.Mutex
}

// NewFileStore creates a FileStore rooted at dir. archiveSheet names the
// sheet Append writes to; empty means DefaultArchiveSheet.
func NewFileStore(dir, archiveSheet string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage dir %s is not a directory", dir)
	}
	if archiveSheet == "" {
		archiveSheet = DefaultArchiveSheet
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		dir:          dir,
		archiveSheet: archiveSheet,
		logger:       logger.With("component", "ledger", "driver", "file"),
	}, nil
}

// Dir returns the directory tables are resolved against.
func (s *FileStore) Dir() string { return s.dir }

// Load reads the first sheet of a table. It returns an error wrapping
// core.ErrSourceNotFound when the file does not exist.
func (s *FileStore) Load(_ context.Context, name string) (core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(name, "")
}

// LoadArchive reads the archive sheet of a table, falling back to the first
// sheet when the workbook has none by that name.
func (s *FileStore) LoadArchive(_ context.Context, name string) (core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(name, s.archiveSheet)
}

// Save overwrites the first sheet of the table with ds. Other sheets of an
// existing workbook are kept.
func (s *FileStore) Save(_ context.Context, name string, ds core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, c, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := c.write(path, c.sheetFor(path, ""), ds); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	s.logger.Debug("table saved", "table", name, "rows", ds.Len())
	return nil
}

// Append adds rows after the existing rows of the archive sheet. A missing
// table is created with header. Existing rows and header are kept verbatim.
func (s *FileStore) Append(_ context.Context, name string, header core.Header, rows []core.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, c, err := s.resolve(name)
	if err != nil {
		return err
	}

	existing, err := s.load(name, s.archiveSheet)
	switch {
	case errors.Is(err, core.ErrSourceNotFound):
		existing = core.Dataset{Header: header}
	case err != nil:
		return fmt.Errorf("append %s: %w", name, err)
	}
	if len(existing.Header) == 0 {
		existing.Header = header
	}

	merged := core.Dataset{
		Header: existing.Header,
		Rows:   make([]core.Row, 0, len(existing.Rows)+len(rows)),
	}
	merged.Rows = append(merged.Rows, existing.Rows...)
	merged.Rows = append(merged.Rows, rows...)

	if err := c.write(path, c.sheetFor(path, s.archiveSheet), merged); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}

	s.logger.Debug("rows appended", "table", name, "added", len(rows), "total", merged.Len())
	return nil
}

func (s *FileStore) load(name, sheet string) (core.Dataset, error) {
	path, c, err := s.resolve(name)
	if err != nil {
		return core.Dataset{}, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Dataset{}, fmt.Errorf("%s: %w", name, core.ErrSourceNotFound)
		}
		return core.Dataset{}, fmt.Errorf("stat %s: %w", name, err)
	}

	return c.read(path, sheet)
}

// resolve maps a table name to a path inside the store directory and the
// codec for its extension. Names must be plain file names.
func (s *FileStore) resolve(name string) (string, codec, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", nil, fmt.Errorf("invalid table name %q", name)
	}
	path := filepath.Join(s.dir, name)
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return path, csvCodec{}, nil
	}
	return path, workbookCodec{}, nil
}

// replaceFile writes path through a temp file in the same directory and
// renames it into place once fill succeeds.
func replaceFile(path string, fill func(*os.File) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ledger-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := fill(tmp); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
