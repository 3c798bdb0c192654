package extraction

import "errors"

var (
	ErrEmptyInput            = errors.New("extraction: input text is empty")
	ErrExtractionUnavailable = errors.New("extraction: language model unavailable or returned unusable output")
)
