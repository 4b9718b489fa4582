package router

import (
	"encoding/json"
	"net/http"
)

// apiStatus is the JSON body for GET /api/status, the plain-HTTP
// counterpart to the /ws/status push feed — used by axofuegoctl and any
// other one-shot caller that doesn't want to hold a WebSocket open.
type apiStatus struct {
	Channels        interface{} `json:"channels"`
	EmergencyActive bool        `json:"emergency_active"`
	Pattern         interface{} `json:"pattern_status,omitempty"`
}

// APIHandler builds the plain-HTTP control surface: GET /api/status and
// POST /api/fire, /api/stop with the same {action,target,duration} body
// shape as the /ws/control protocol, for callers that prefer request/response
// over a held-open socket.
func (s *Server) APIHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		status := apiStatus{
			Channels:        s.fe.StatusAll(),
			EmergencyActive: s.fe.IsEmergencyActive(),
		}
		if s.sched != nil {
			status.Pattern = s.sched.Status()
		}
		writeJSON(w, http.StatusOK, status)
	})

	mux.HandleFunc("/api/fire", s.handleAPIControl("fire"))
	mux.HandleFunc("/api/stop", s.handleAPIControl("stop"))
	mux.HandleFunc("/api/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, s.dispatchControl(controlMessage{Action: "reset"}))
	})

	return mux
}

func (s *Server) handleAPIControl(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var msg controlMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			writeJSON(w, http.StatusBadRequest, controlReply{Status: "error", Error: "invalid json"})
			return
		}
		msg.Action = action
		writeJSON(w, http.StatusOK, s.dispatchControl(msg))
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
