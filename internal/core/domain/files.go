package domain

// CleanReport summarizes a clean step.
type CleanReport struct {
	// Skipped is true when a suppression token kept the output tree.
	Skipped bool
	// Removed counts the top-level entries deleted from the output root.
	Removed int
}

// CopyOptions tunes a static copy.
type CopyOptions struct {
	// SkipUnchanged leaves destination files whose content already matches.
	SkipUnchanged bool
	// Minify minifies text assets while copying.
	Minify bool
}

// CopyReport summarizes a static copy.
type CopyReport struct {
	Copied    int
	Unchanged int
	Minified  int
}
