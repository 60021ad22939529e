package storage

import "errors"

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrWorkspaceExists   = errors.New("workspace already exists")
	ErrInvalidData       = errors.New("invalid data")
	ErrStorageInit       = errors.New("storage initialization failed")
	ErrFileOperation     = errors.New("file operation failed")
	ErrStaleWrite        = errors.New("workspace version is older than stored")
)
