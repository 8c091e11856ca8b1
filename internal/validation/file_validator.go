package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apierrors "github.com/Imdraks/faxcloud-analyzer/internal/errors"
)

// Extensions of fax log exports the analyzer can read
var exportExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// ErrTemporaryFile marks office lock files such as "~$march.xlsx"
var ErrTemporaryFile = errors.New("temporary office file")

// FileValidator checks command line inputs before a batch run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateExport checks that path is a readable CSV or XLSX export
func (v *FileValidator) ValidateExport(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("skipping temporary file", slog.String("file", path))
		return fmt.Errorf("%s: %w", path, ErrTemporaryFile)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !exportExtensions[ext] {
		v.logger.Error("file is not a fax log export",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("%s (extension %q): %w", path, ext, apierrors.ErrUnsupportedFormat)
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("file does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ExpandInputs turns the command line arguments into a sorted, de-duplicated
// list of export files. Directories contribute the exports they contain;
// temporary files inside them are skipped silently.
func (v *FileValidator) ExpandInputs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			entries, err := os.ReadDir(arg)
			if err != nil {
				return nil, fmt.Errorf("read directory %s: %w", arg, err)
			}
			found := 0
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() || strings.HasPrefix(name, "~$") || !exportExtensions[strings.ToLower(filepath.Ext(name))] {
					continue
				}
				add(filepath.Join(arg, name))
				found++
			}
			if found == 0 {
				v.logger.Warn("no exports found in directory", slog.String("directory", arg))
			}
			continue
		}

		if err := v.ValidateExport(arg); err != nil {
			return nil, err
		}
		add(arg)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no fax log exports to analyze", apierrors.ErrInvalidInput)
	}
	sort.Strings(files)

	v.logger.Info("inputs validated", slog.Int("files", len(files)))
	return files, nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Probe writability with a throwaway file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}
