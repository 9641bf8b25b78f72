package handlers

import "net/http"

// Status reports the current generation status. It reads a snapshot of the
// shared record, so a poll never blocks behind an in-flight run.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Tracker.Snapshot())
}
