package app

// Playback bindings. The frontend owns the actual HTMLAudioElement and
// reports its lifecycle here; the session keeps the authoritative
// cursor and drives auto-scroll.

// TransportReady reports that the audio element finished loading.
func (a *App) TransportReady(duration float64) {
	if session := a.activeSession(); session != nil {
		session.TransportReady(duration)
	}
}

// TransportPlay reports that playback started.
func (a *App) TransportPlay() {
	if session := a.activeSession(); session != nil {
		session.TransportPlay()
	}
}

// TransportPause reports that playback paused.
func (a *App) TransportPause() {
	if session := a.activeSession(); session != nil {
		session.TransportPause()
	}
}

// TransportFinish reports that playback reached the end of the audio.
func (a *App) TransportFinish() {
	if session := a.activeSession(); session != nil {
		session.TransportFinish()
	}
}

// TransportTimeUpdate reports the audio element's current time. Used to
// correct drift between the backend cursor and the real player.
func (a *App) TransportTimeUpdate(t float64) {
	if session := a.activeSession(); session != nil {
		session.TransportTimeUpdate(t)
	}
}

// SetPlaybackRate changes the playback speed.
func (a *App) SetPlaybackRate(rate float64) {
	if session := a.activeSession(); session != nil {
		session.SetPlaybackRate(rate)
	}
}

// Seek jumps to a fraction of the recording's duration.
func (a *App) Seek(fraction float64) {
	if session := a.activeSession(); session != nil {
		session.Seek(fraction)
	}
}

// Scrub nudges the playback position by a signed number of seconds.
func (a *App) Scrub(deltaSeconds float64) {
	if session := a.activeSession(); session != nil {
		session.Scrub(deltaSeconds)
	}
}

// PlaySegment plays the given time range, pausing at its end.
func (a *App) PlaySegment(start, end float64) {
	if session := a.activeSession(); session != nil {
		session.PlaySegment(start, end)
	}
}
