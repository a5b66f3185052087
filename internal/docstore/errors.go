package docstore

import "errors"

var (
	// ErrUnknownFlavour indicates a block flavour with no registered schema.
	ErrUnknownFlavour = errors.New("unknown block flavour")

	// ErrDuplicateSchema indicates a flavour was registered twice.
	ErrDuplicateSchema = errors.New("schema already registered")

	// ErrInvalidProps indicates block props failed schema validation.
	ErrInvalidProps = errors.New("invalid block props")

	// ErrInvalidParent indicates the parent block cannot hold the new block.
	ErrInvalidParent = errors.New("invalid parent block")

	// ErrNoRoot indicates a non-root block was added to a page without a root.
	ErrNoRoot = errors.New("page has no root block")

	// ErrRootExists indicates a second root block was added to a page.
	ErrRootExists = errors.New("page already has a root block")

	// ErrBlockNotFound indicates a block id is not present in the page.
	ErrBlockNotFound = errors.New("block not found")

	// ErrPageExists indicates a page id is already taken.
	ErrPageExists = errors.New("page already exists")

	// ErrNothingToUndo indicates the undo history is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
)
