package catalog

import "fmt"

// Kind enumerates the precondition failures the wire shape must
// distinguish (spec.md §6) so a UI-facing caller can prompt instead of
// just reporting failure.
type Kind int

const (
	Other Kind = iota
	DatabaseNotFound
	DatabaseAlreadyExists
	DatabaseNotOpen
	TagAlreadyExists
	TagAlreadyExistsForEntry
	FileAlreadyExists
	FolderAlreadyExists
)

func (k Kind) String() string {
	switch k {
	case DatabaseNotFound:
		return "databaseNotFound"
	case DatabaseAlreadyExists:
		return "databaseAlreadyExists"
	case DatabaseNotOpen:
		return "databaseNotOpen"
	case TagAlreadyExists:
		return "tagAlreadyExists"
	case TagAlreadyExistsForEntry:
		return "tagAlreadyExistsForEntry"
	case FileAlreadyExists:
		return "fileAlreadyExists"
	case FolderAlreadyExists:
		return "folderAlreadyExists"
	default:
		return "other"
	}
}

// Error is the catalog's typed error, the Go shape of the wire error
// {kind, message} from spec.md §6.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsKind extracts the Kind of err if it is a *Error, defaulting to Other
// for anything else — the translation request handlers perform before
// putting an error on the wire.
func AsKind(err error) Kind {
	if ke, ok := err.(*Error); ok {
		return ke.Kind
	}
	return Other
}
