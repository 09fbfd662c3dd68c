package publish

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	TextCodeInvalidParent = "INVALID_PARENT"
	TextCodeCreatePage    = "CREATE_PAGE_FAILED"
	TextCodePageMissing   = "PAGE_NOT_FOUND"
)

func invalidParentError(title, parent string, err error) *goerrors.Error {
	var out *goerrors.Error
	if err == nil {
		out = goerrors.New("parent page does not exist", goerrors.CategoryNotFound)
	} else {
		out = goerrors.Wrap(err, goerrors.CategoryNotFound, "parent page could not be retrieved")
	}
	return out.WithTextCode(TextCodeInvalidParent).
		WithMetadata(map[string]any{"title": title, "parent": parent})
}

func createPageError(title string, err error) *goerrors.Error {
	message := "page could not be created"
	var remote *interfaces.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		message = message + ": " + remote.Message
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, message).
		WithTextCode(TextCodeCreatePage).
		WithMetadata(map[string]any{"title": title})
}

func pageMissingError(title, space string) error {
	return goerrors.New("page found by search but not by title lookup", goerrors.CategoryNotFound).
		WithTextCode(TextCodePageMissing).
		WithMetadata(map[string]any{"title": title, "space": space})
}

func wrapStoreError(err error, message string) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, message)
}

// recoverable reports whether a store failure only concerns the document at
// hand. Authentication failures and anything that is not a store rejection
// (transport errors, cancellation) end the run.
func recoverable(err error) bool {
	if errors.Is(err, interfaces.ErrContentNotFound) {
		return true
	}
	var remote *interfaces.RemoteError
	return errors.As(err, &remote) && !remote.IsAuth()
}
