// Package errs holds the error kinds every stage of the screening workflow reports.
// Components wrap one of the sentinels so shells can tell the failed stage apart with errors.Is.
package errs

import "errors"

var (
	// ErrAuth is returned when a video-provider access token could not be obtained.
	ErrAuth = errors.New("authorization failed")
	// ErrEvaluation is returned when the language model reply is missing or malformed.
	ErrEvaluation = errors.New("resume evaluation failed")
	// ErrNotification is returned when an email could not be delivered to the relay.
	ErrNotification = errors.New("notification failed")
	// ErrScheduling is returned when an interview meeting could not be created.
	ErrScheduling = errors.New("interview scheduling failed")
	// ErrExtraction is returned when resume text could not be extracted from the document.
	ErrExtraction = errors.New("resume extraction failed")
	// ErrConfiguration is returned when required operator configuration is missing.
	ErrConfiguration = errors.New("configuration is incomplete")
)

var kinds = []struct {
	err  error
	name string
}{
	// ErrScheduling goes before ErrAuth: a scheduling failure may wrap an auth failure.
	{ErrConfiguration, "configuration"},
	{ErrExtraction, "extraction"},
	{ErrEvaluation, "evaluation"},
	{ErrNotification, "notification"},
	{ErrScheduling, "scheduling"},
	{ErrAuth, "auth"},
}

// Kind returns a short name of the first known error kind found in err chain.
// It returns "internal" for errors that carry none of the kinds.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
