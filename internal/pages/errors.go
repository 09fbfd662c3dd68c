package pages

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidPath    = "INVALID_PATH"
	TextCodeDocumentParse  = "DOCUMENT_PARSE_FAILED"
	TextCodeDuplicateTitle = "DUPLICATE_TITLE"
)

func invalidPathError(path string, err error) error {
	var out *goerrors.Error
	if err == nil {
		out = goerrors.New("input path is neither a file nor a directory", goerrors.CategoryBadInput)
	} else {
		out = goerrors.Wrap(err, goerrors.CategoryBadInput, "input path is not readable")
	}
	return out.WithTextCode(TextCodeInvalidPath).
		WithMetadata(map[string]any{"path": path})
}

func documentParseError(path string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "document could not be parsed").
		WithTextCode(TextCodeDocumentParse).
		WithMetadata(map[string]any{"path": path})
}

func duplicateTitleError(title, path, kept string) error {
	return goerrors.New("duplicate page title", goerrors.CategoryConflict).
		WithTextCode(TextCodeDuplicateTitle).
		WithMetadata(map[string]any{
			"title": title,
			"path":  path,
			"kept":  kept,
		})
}
