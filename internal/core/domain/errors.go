package domain

import "go.trai.ch/zerr"

var (
	// ErrUnsupportedFormat is returned when a package container or one of its members cannot be decoded.
	ErrUnsupportedFormat = zerr.New("unsupported package format")

	// ErrMetadataNotFound is returned when a package carries no control block.
	ErrMetadataNotFound = zerr.New("control metadata not found")

	// ErrSizeUnknown is returned when the object store reports no usable length for a binary.
	ErrSizeUnknown = zerr.New("binary size unknown")

	// ErrStorageFailed is returned when an object store operation fails.
	ErrStorageFailed = zerr.New("storage operation failed")

	// ErrKeyNotFound is returned when a requested key does not exist in the object store.
	ErrKeyNotFound = zerr.New("key not found")

	// ErrSigningFailed is returned when the manifest could not be signed.
	ErrSigningFailed = zerr.New("signing failed")

	// ErrMalformedRecord is returned when a control paragraph cannot be parsed.
	ErrMalformedRecord = zerr.New("malformed control record")

	// ErrMissingIdentity is returned when a new record lacks a Package or Version field.
	ErrMissingIdentity = zerr.New("record has no package identity")

	// ErrNoMatchingArchitecture is returned when a package targets none of the configured architectures.
	ErrNoMatchingArchitecture = zerr.New("package architecture is not served by the repository")

	// ErrUnknownComponent is returned when an operation names a component the repository does not serve.
	ErrUnknownComponent = zerr.New("unknown component")

	// ErrNoRecords is returned when an update is requested without any records.
	ErrNoRecords = zerr.New("no records to add")

	// ErrInvalidIndexKey is returned when a storage key does not address an index store.
	ErrInvalidIndexKey = zerr.New("invalid index key")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = zerr.New("configuration file not found")

	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrUnknownStorageType is returned when the configuration names an unsupported storage backend.
	ErrUnknownStorageType = zerr.New("unknown storage type")
)
