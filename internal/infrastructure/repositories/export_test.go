package repositories

// InternalDirNames exports internalDirNames for testing.
var InternalDirNames = internalDirNames //nolint:gochecknoglobals // test export
