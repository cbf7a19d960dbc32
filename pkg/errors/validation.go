package errors

import "unicode"

// ValidateNodeID validates a node identifier from an input graph.
//
// Node ids in real datasets are fully qualified names such as
// "com.example.Foo$Bar#baz(int)", so the rules only reject what cannot be
// carried through JSON, DOT and cache keys safely:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of 1024 bytes
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > 1024 {
		return New(ErrCodeInvalidInput, "node id too long (max 1024 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id %q contains control characters", id)
		}
	}
	return nil
}

// ValidateRunID validates a batch run identifier used in URLs and file names.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "run id too long (max 64 characters)")
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return New(ErrCodeInvalidInput, "run id %q contains invalid characters", id)
		}
	}
	return nil
}
