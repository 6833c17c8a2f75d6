package writer

import (
	"errors"
	"strings"
)

var (
	// ErrReadOnlyFile is returned when an output file exists and cannot be
	// written.
	ErrReadOnlyFile = errors.New("dbscaffold: output file is read-only")

	// ErrFileExists is returned when an output file exists and overwriting
	// was not requested.
	ErrFileExists = errors.New("dbscaffold: output file already exists")
)

// ReadOnlyFileConflictError lists the read-only files that block a write
type ReadOnlyFileConflictError struct {
	Paths []string
}

func (e *ReadOnlyFileConflictError) Error() string {
	return "dbscaffold: the following files are read-only: " + strings.Join(e.Paths, ", ")
}

// Is reports whether target is ErrReadOnlyFile.
func (e *ReadOnlyFileConflictError) Is(target error) bool {
	return target == ErrReadOnlyFile
}

// ExistingFileConflictError lists the files that would be overwritten
type ExistingFileConflictError struct {
	Paths []string
}

func (e *ExistingFileConflictError) Error() string {
	return "dbscaffold: the following files already exist, use --force to overwrite them: " + strings.Join(e.Paths, ", ")
}

// Is reports whether target is ErrFileExists.
func (e *ExistingFileConflictError) Is(target error) bool {
	return target == ErrFileExists
}
