// Package ws exposes the motion hub: a frame loop that advances a
// timeline of animated tracks and streams their values to websocket
// clients, plus control and diagnostics sockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-motion/internal/anim"
	"github.com/coreman2200/funtimes-motion/internal/config"
	diag "github.com/coreman2200/funtimes-motion/internal/diagnostics"
	"github.com/coreman2200/funtimes-motion/internal/timeline"
)

// track pairs one animation with its hub bookkeeping.
type track struct {
	name     string
	anim     *anim.Animation[float64]
	detach   func()
	value    float64
	finished bool
}

// State owns the program, its timeline and the connected clients. All
// animation access happens under mu: the engine itself is unlocked and
// relies on the hub to serialize frame ticks against control messages.
type State struct {
	mu  sync.Mutex
	FPS int

	program config.Program
	tl      *timeline.Timeline
	tracks  []*track

	frameID   uint64
	startTime time.Time

	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
}

func NewState(fps int) *State {
	if fps <= 0 {
		fps = anim.DefaultFPS
	}
	return &State{
		FPS:         fps,
		tl:          timeline.New(),
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// LoadProgram replaces the current tracks and starts the timeline from
// zero. Each track gets a manual driver so the only tick source is the
// hub's timeline.
func (s *State) LoadProgram(p config.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tracks {
		t.detach()
		t.anim.Cancel()
	}
	s.tracks = nil
	s.tl = timeline.New()

	for _, tc := range p.Tracks {
		opts, err := tc.Options()
		if err != nil {
			s.pushDiag(diag.Diagnostic{Severity: diag.Err, Code: "PROGRAM.INVALID", Summary: "Bad track", Detail: err.Error()})
			return err
		}
		t := &track{name: tc.Name}
		drv := &anim.ManualDriver{}
		opts.Driver = drv.Factory()
		opts.OnUpdate = func(v float64) { t.value = v }
		a, err := anim.New(opts)
		if err != nil {
			s.pushDiag(diag.Diagnostic{Severity: diag.Err, Code: "PROGRAM.INVALID", Summary: "Bad track", Detail: err.Error()})
			return err
		}
		t.anim = a
		t.detach = a.AttachTimeline(s.tl)
		s.tracks = append(s.tracks, t)
	}

	s.program = p
	s.tl.Start()
	s.pushDiag(diag.Diagnostic{
		Severity: diag.Info, Code: "PROGRAM.LOADED", Summary: "Program loaded",
		Detail: p.Name, Evidence: map[string]any{"tracks": len(p.Tracks)},
	})
	return nil
}

// RunLoop advances the timeline at the configured frame rate and
// broadcasts a value frame per tick until the context is cancelled.
func (s *State) RunLoop(ctx context.Context) {
	interval := time.Second / time.Duration(s.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	dtMS := 1000.0 / float64(s.FPS)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		s.tl.Tick(dtMS)
		for _, t := range s.tracks {
			if !t.finished && t.anim.State() == anim.StateFinished {
				t.finished = true
				s.pushDiag(diag.Diagnostic{
					Severity: diag.Info, Code: "TRACK.FINISHED", Summary: "Track finished", Detail: t.name,
				})
			}
		}
		s.frameID++
		frame := s.snapshotFrame()
		s.mu.Unlock()

		s.broadcastFrame(frame)
	}
}

type valueFrame struct {
	T         int64              `json:"t"`
	FrameID   uint64             `json:"frame_id"`
	PositionS float64            `json:"position_s"`
	Values    map[string]float64 `json:"values"`
}

func (s *State) snapshotFrame() valueFrame {
	values := make(map[string]float64, len(s.tracks))
	for _, t := range s.tracks {
		values[t.name] = t.value
	}
	return valueFrame{
		T:         time.Now().UnixNano(),
		FrameID:   s.frameID,
		PositionS: s.tl.Now() / 1000,
		Values:    values,
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.sendTopology(conn)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.mu.Lock()
		s.applyControl(msg)
		s.mu.Unlock()
		s.sendTopology(conn)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := map[string]any{
		"frame_id":          s.frameID,
		"uptime_s":          time.Since(s.startTime).Seconds(),
		"fps":               s.FPS,
		"tracks":            len(s.tracks),
		"position_s":        s.tl.Now() / 1000,
		"timeline_state":    s.tl.CurrentState(),
		"active_animations": anim.ActiveCount(),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// applyControl handles one control message. Callers hold mu.
func (s *State) applyControl(msg map[string]any) {
	if cmd, ok := msg["cmd"].(string); ok {
		switch cmd {
		case "play":
			s.tl.Resume()
			s.tl.Start()
		case "pause":
			s.tl.Pause()
		case "stop":
			s.tl.Stop()
		case "restart":
			s.tl.Seek(0)
			for _, t := range s.tracks {
				t.finished = false
				t.anim.Play()
			}
			s.tl.Start()
		default:
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "CONTROL.UNKNOWN", Summary: "Unknown command",
				Evidence: map[string]any{"cmd": cmd},
			})
		}
	}
	if v, ok := msg["seek_s"].(float64); ok {
		s.tl.Seek(v * 1000)
	}
	if v, ok := msg["rate"].(float64); ok {
		s.tl.SetRate(v)
	}
}

func (s *State) sendTopology(conn *websocket.Conn) {
	s.mu.Lock()
	names := make([]string, 0, len(s.tracks))
	for _, t := range s.tracks {
		names = append(names, t.name)
	}
	top := map[string]any{
		"program": s.program.Name,
		"tracks":  names,
		"fps":     s.FPS,
		"rate":    s.tl.Rate(),
	}
	s.mu.Unlock()
	b, _ := json.Marshal(top)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func (s *State) broadcastFrame(frame valueFrame) {
	b, _ := json.Marshal(frame)
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

// pushDiag broadcasts a diagnostic. Callers hold mu.
func (s *State) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
