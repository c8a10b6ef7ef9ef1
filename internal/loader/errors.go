package loader

// unknownFamilyError signals a family name absent from the catalog, for 404
// mapping at the HTTP layer.
type unknownFamilyError struct{ name string }

func (e unknownFamilyError) Error() string { return "unknown family: " + e.name }

// ErrUnknownFamily constructs an unknownFamilyError.
func ErrUnknownFamily(name string) error { return unknownFamilyError{name: name} }

// IsUnknownFamily reports whether err names a family the catalog lacks.
func IsUnknownFamily(err error) bool {
	_, ok := err.(unknownFamilyError)
	return ok
}
