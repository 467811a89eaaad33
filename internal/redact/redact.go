package redact

// Preview returns the catalog-safe preview of a secret: the first 20
// characters followed by "..." when the value is longer than that, the
// value verbatim otherwise. This is the only form of a general secret
// that ever reaches a report.
func Preview(s string) string {
	const max = 20
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Mask redacts a secret for interactive display, keeping a short prefix
// for recognition. Very short values are masked entirely.
func Mask(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
