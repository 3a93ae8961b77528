package voicelog

import "errors"

var (
	ErrNotFound       = errors.New("voice log not found")
	ErrFileTooLarge   = errors.New("clip exceeds maximum size")
	ErrInvalidArchive = errors.New("clip must be an audio file")
)
