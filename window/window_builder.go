package window

// Option is a functional option for configuring an engineWindow.
type Option func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
func WithTitle(title string) Option {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithMaxSize sets the maximum allowed window dimensions.
func WithMaxSize(maxWidth, maxHeight int) Option {
	return func(w *engineWindow) {
		w.maxWidth = maxWidth
		w.maxHeight = maxHeight
	}
}

// WithMinSize sets the minimum allowed window dimensions.
func WithMinSize(minWidth, minHeight int) Option {
	return func(w *engineWindow) {
		w.minWidth = minWidth
		w.minHeight = minHeight
	}
}

// WithSize sets the initial window dimensions.
func WithSize(width, height int) Option {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}
