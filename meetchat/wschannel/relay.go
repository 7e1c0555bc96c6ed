package wschannel

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/samber/lo"

	"github.com/vovakirdan/meetchat-sdk/meetchat"
	"github.com/vovakirdan/meetchat-sdk/meetchat/internal"
)

const (
	// peerBuffer is how many frames may queue for one slow peer before
	// further frames for it are dropped.
	peerBuffer = 64

	relayWriteTimeout = 10 * time.Second
)

// Relay fans out broadcast frames to every peer joined to the same meeting,
// the sender included. It keeps no history.
type Relay struct {
	logger meetchat.Logger
	accept *websocket.AcceptOptions

	mu    sync.Mutex
	rooms map[string]map[*relayPeer]struct{}
}

type relayPeer struct {
	meeting     string
	participant string
	conn        *internal.Conn[Frame]
	send        chan Frame
	cancel      context.CancelFunc
}

// NewRelay creates an empty relay. Origin checks are disabled; put the relay
// behind whatever authentication the call platform provides.
func NewRelay() *Relay {
	return &Relay{
		logger: meetchat.NopLogger(),
		accept: &websocket.AcceptOptions{InsecureSkipVerify: true},
		rooms:  make(map[string]map[*relayPeer]struct{}),
	}
}

// SetLogger overrides logger (optional).
func (r *Relay) SetLogger(l meetchat.Logger) {
	if l == nil {
		return
	}
	r.logger = l
}

// ServeHTTP upgrades the request and serves one peer until it disconnects.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ws, err := websocket.Accept(w, req, r.accept)
	if err != nil {
		r.logger.Warn("accept failed", map[string]any{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()
	conn := internal.NewConn[Frame](ws, 0, relayWriteTimeout)

	join, err := conn.Read(ctx)
	if err != nil {
		_ = conn.CloseNow()
		return
	}
	if join.Type != frameJoin || join.Meeting == "" || join.Participant == "" {
		_ = conn.Write(ctx, Frame{Type: frameError, Error: &FrameError{Code: "bad_frame", Msg: "expected join"}})
		_ = conn.Close(websocket.StatusPolicyViolation, "expected join")
		return
	}

	peer := &relayPeer{
		meeting:     join.Meeting,
		participant: join.Participant,
		conn:        conn,
		send:        make(chan Frame, peerBuffer),
		cancel:      cancel,
	}
	// Queue the ack before joining the room so it is the first frame out.
	peer.send <- Frame{Type: frameJoined, Meeting: join.Meeting, Participant: join.Participant}
	r.add(peer)
	defer r.remove(peer)
	go peer.writeLoop(ctx)

	for {
		f, err := conn.Read(ctx)
		if err != nil {
			if !isExpectedDisconnect(ctx, err) {
				r.logger.Debug("peer read failed", map[string]any{"participant": peer.participant, "error": err.Error()})
			}
			return
		}
		if f.Type != frameBroadcast || f.Event == nil {
			r.deliver(peer, Frame{Type: frameError, Error: &FrameError{Code: "bad_frame", Msg: "expected broadcast"}})
			continue
		}
		r.fanout(peer, *f.Event)
	}
}

// Participants lists the participant ids currently joined to meeting.
func (r *Relay) Participants(meeting string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := lo.Map(lo.Keys(r.rooms[meeting]), func(p *relayPeer, _ int) string { return p.participant })
	slices.Sort(ids)
	return ids
}

// Close disconnects every peer.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		for p := range room {
			p.cancel()
		}
	}
}

func (r *Relay) add(p *relayPeer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[p.meeting]
	if !ok {
		room = make(map[*relayPeer]struct{})
		r.rooms[p.meeting] = room
	}
	room[p] = struct{}{}
	r.logger.Info("peer joined", map[string]any{"meeting": p.meeting, "participant": p.participant})
}

func (r *Relay) remove(p *relayPeer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.rooms[p.meeting]
	delete(room, p)
	if len(room) == 0 {
		delete(r.rooms, p.meeting)
	}
	r.logger.Info("peer left", map[string]any{"meeting": p.meeting, "participant": p.participant})
}

func (r *Relay) fanout(from *relayPeer, ev meetchat.Event) {
	r.mu.Lock()
	peers := lo.Keys(r.rooms[from.meeting])
	r.mu.Unlock()

	frame := Frame{Type: frameEvent, Event: &ev, From: from.participant}
	for _, p := range peers {
		r.deliver(p, frame)
	}
}

// deliver queues f for p without blocking; a full queue drops the frame.
func (r *Relay) deliver(p *relayPeer, f Frame) {
	select {
	case p.send <- f:
	default:
		r.logger.Warn("dropping frame for slow peer", map[string]any{"participant": p.participant})
	}
}

func (p *relayPeer) writeLoop(ctx context.Context) {
	for {
		select {
		case f := <-p.send:
			if err := p.conn.Write(ctx, f); err != nil {
				p.cancel()
				return
			}
		case <-ctx.Done():
			_ = p.conn.Close(websocket.StatusGoingAway, "relay closing")
			return
		}
	}
}
