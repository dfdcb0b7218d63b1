package app

// Frontend lifecycle hooks outside the normal input path.

// VisibilityHidden is called when the window or tab is hidden. It asks
// the open session for a best-effort flush: a local draft plus one
// fire-and-forget save attempt, with no completion guarantee.
func (a *App) VisibilityHidden() {
	if session := a.activeSession(); session != nil {
		session.FlushBestEffort()
	}
}
