package pdf

import "errors"

var (
	// ErrInvalidPageConfig is returned when the page geometry cannot produce a content area.
	ErrInvalidPageConfig = errors.New("invalid page configuration")
	// ErrContentTooLarge is returned when the HTML fragment exceeds the configured limit.
	ErrContentTooLarge = errors.New("HTML content too large")
	// ErrContentLoadTimeout is returned when the document does not reach network idle in time.
	ErrContentLoadTimeout = errors.New("content load timed out")
	// ErrRenderFailed covers every other rendering engine failure (launch, navigation, print).
	ErrRenderFailed = errors.New("could not render document")
)
