package upload

import "errors"

var (
	ErrNoFilesProvided = errors.New("no files provided")
	ErrTooManyFiles    = errors.New("too many files in one request")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
)
