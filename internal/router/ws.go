// Package router implements the externally facing command surfaces (spec
// component C6): per-nozzle and broadcast WebSocket endpoints, a JSON
// control channel, push feeds for status and CPU temperature, the local
// keypad dispatcher, and the static UI file server.
package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/axofuego/axofuego/internal/fireengine"
	"github.com/axofuego/axofuego/internal/scheduler"
)

// legacyStalks preserves the original rig's named endpoints, grounded on
// burninate.py's stalk-name-to-poofer-id table.
var legacyStalks = map[string]int{
	"right-outside": 1,
	"right-middle":  2,
	"right-inside":  3,
	"left-inside":   4,
	"left-middle":   5,
	"left-outside":  6,
	"tail":          7,
}

// Server wires WebSocket endpoints to the fire-control engine and the
// pattern scheduler.
type Server struct {
	fe     *fireengine.Handle
	sched  *scheduler.Handle
	logger *zap.Logger
}

// New builds a router bound to fe and sched. sched may be nil if pattern
// playback is not wired in: status feeds then omit the pattern status, and
// control requests naming a sequence target report an error.
func New(fe *fireengine.Handle, sched *scheduler.Handle, logger *zap.Logger) *Server {
	return &Server{fe: fe, sched: sched, logger: logger}
}

// Handler builds the HTTP mux for every WebSocket route this server serves.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	for name, id := range legacyStalks {
		id := id
		mux.Handle("/ws/"+name, websocket.Handler(s.handleChannel(id)))
	}
	for id := 1; id <= s.fe.ChannelCount(); id++ {
		id := id
		mux.Handle(fmt.Sprintf("/ws/channel/%d", id), websocket.Handler(s.handleChannel(id)))
	}

	mux.Handle("/ws/all", websocket.Handler(s.handleAll))
	mux.Handle("/ws/control", websocket.Handler(s.handleControl))
	mux.Handle("/ws/status", websocket.Handler(s.handleStatus))
	mux.Handle("/ws/cputemp", websocket.Handler(s.handleCPUTemp))
	mux.Handle("/ws/sequence1", websocket.Handler(s.handleSequence(sequence1)))
	mux.Handle("/ws/sequence2", websocket.Handler(s.handleSequence(sequence2)))
	mux.Handle("/ws/sequence3", websocket.Handler(s.handleSequence(sequence3)))

	return mux
}

// handleChannel fires one channel on connect and stops it when the client
// disconnects, mirroring the original rig's per-stalk endpoints: the
// connection itself is the "trigger held down" signal.
func (s *Server) handleChannel(id int) func(*websocket.Conn) {
	return func(ws *websocket.Conn) {
		defer ws.Close()
		res, err := s.fe.Fire(id, nil)
		s.logger.Info("channel endpoint connected", zap.Int("channel", id), zap.String("result", res.String()), zap.Error(err))

		s.waitForDisconnect(ws)

		if _, err := s.fe.Stop(id); err != nil {
			s.logger.Warn("stop on disconnect failed", zap.Int("channel", id), zap.Error(err))
		}
	}
}

func (s *Server) handleAll(ws *websocket.Conn) {
	defer ws.Close()
	ids := make([]int, s.fe.ChannelCount())
	for i := range ids {
		ids[i] = i + 1
	}
	s.fe.FireMany(ids, nil)
	s.logger.Info("all endpoint connected, firing every channel")

	s.waitForDisconnect(ws)

	s.fe.StopAll()
}

// controlMessage is the wire shape for the /ws/control JSON protocol:
// {"action": "fire"|"stop"|"reset", "target": "all" | <stalk name> | <channel id>}.
// target is ignored for "reset", the only action that clears the emergency
// latch (the keypad's ESC release does not reset it).
type controlMessage struct {
	Action   string   `json:"action"`
	Target   string   `json:"target"`
	Duration *float64 `json:"duration,omitempty"`
}

type controlReply struct {
	Status string `json:"status"`
	Target string `json:"target"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleControl(ws *websocket.Conn) {
	defer func() {
		s.fe.StopAll()
		ws.Close()
	}()

	for {
		var raw json.RawMessage
		if err := websocket.JSON.Receive(ws, &raw); err != nil {
			s.logger.Info("control connection closed", zap.Error(err))
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = websocket.JSON.Send(ws, controlReply{Status: "error", Error: "invalid json"})
			continue
		}

		reply := s.dispatchControl(msg)
		if err := websocket.JSON.Send(ws, reply); err != nil {
			return
		}
	}
}

func (s *Server) dispatchControl(msg controlMessage) controlReply {
	id, ok := s.resolveTarget(msg.Target)

	var duration *time.Duration
	if msg.Duration != nil {
		d := time.Duration(*msg.Duration * float64(time.Second))
		duration = &d
	}

	switch msg.Action {
	case "fire":
		if msg.Target == "all" {
			s.fe.FireMany(s.allChannelIDs(), duration)
			return controlReply{Status: "firing", Target: "all"}
		}
		if ok {
			res, err := s.fe.Fire(id, duration)
			if err != nil {
				return controlReply{Status: "failed", Target: msg.Target, Error: err.Error()}
			}
			return controlReply{Status: res.String(), Target: msg.Target}
		}
		if strings.HasPrefix(msg.Target, "sequence") && s.sched != nil {
			return controlReply{Status: "sequence_unsupported_via_control", Target: msg.Target}
		}
	case "stop":
		if msg.Target == "all" {
			s.fe.StopAll()
			return controlReply{Status: "stopped", Target: "all"}
		}
		if ok {
			res, _ := s.fe.Stop(id)
			return controlReply{Status: res.String(), Target: msg.Target}
		}
	case "reset":
		// The only explicit emergency-reset action in the system: releasing
		// KEY_ESC on the keypad does not clear the latch, by design.
		s.fe.ResetEmergency()
		return controlReply{Status: "reset", Target: "emergency"}
	}
	return controlReply{Status: "error", Target: msg.Target, Error: "unknown action or target"}
}

func (s *Server) resolveTarget(target string) (int, bool) {
	if id, ok := legacyStalks[target]; ok {
		return id, true
	}
	if id, err := strconv.Atoi(target); err == nil {
		return id, true
	}
	return 0, false
}

func (s *Server) allChannelIDs() []int {
	ids := make([]int, s.fe.ChannelCount())
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

// statusPush is the wire shape pushed to /ws/status subscribers 10 times a
// second.
type statusPush struct {
	Type            string      `json:"type"`
	Timestamp       int64       `json:"timestamp"`
	Channels        interface{} `json:"channels"`
	EmergencyActive bool        `json:"emergency_active"`
	Pattern         interface{} `json:"pattern_status,omitempty"`
}

func (s *Server) handleStatus(ws *websocket.Conn) {
	defer ws.Close()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		push := statusPush{
			Type:            "status_update",
			Timestamp:       time.Now().Unix(),
			Channels:        s.fe.StatusAll(),
			EmergencyActive: s.fe.IsEmergencyActive(),
		}
		if s.sched != nil {
			push.Pattern = s.sched.Status()
		}
		if err := websocket.JSON.Send(ws, push); err != nil {
			return
		}
	}
}

type cpuTempPush struct {
	Celsius float64 `json:"celsius"`
}

func (s *Server) handleCPUTemp(ws *websocket.Conn) {
	defer ws.Close()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		temp, err := readCPUTempCelsius()
		if err != nil {
			s.logger.Warn("cpu temp read failed", zap.Error(err))
		} else if err := websocket.JSON.Send(ws, cpuTempPush{Celsius: temp}); err != nil {
			return
		}
		<-ticker.C
	}
}

// readCPUTempCelsius reads the first thermal zone, the standard Linux
// interface (no third-party sensor library is reachable from this corpus).
func readCPUTempCelsius() (float64, error) {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0, err
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, err
	}
	return float64(milli) / 1000.0, nil
}

// waitForDisconnect blocks until the client closes the connection, echoing
// back whatever it sends in the meantime; this router treats any read or
// write error as "client is gone."
func (s *Server) waitForDisconnect(ws *websocket.Conn) {
	buf := make([]byte, 256)
	for {
		n, err := ws.Read(buf)
		if err != nil {
			return
		}
		if _, err := ws.Write(buf[:n]); err != nil {
			return
		}
	}
}
