package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const inboxSize = 256

var (
	ErrRoomClosed     = errors.New("room closed")
	ErrRoomFull       = errors.New("room full")
	ErrRoomInProgress = errors.New("room not in lobby")
	ErrAlreadyJoined  = errors.New("player already in room")
	ErrPlayerNotFound = errors.New("player not found")
)

//go:generate go tool mockgen -destination=mock_broadcaster_test.go -package=main . Broadcaster

// Broadcaster receives outbound events for one player
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Room runs one match. All state below the inbox is owned by the Run
// goroutine; other goroutines talk to it through commands.
type Room struct {
	ID        string
	settings  RoomSettings
	analytics *Analytics

	players []*Player // join order
	clients map[string]Broadcaster
	phase   MatchPhase
	tick    uint64

	readyTimer     *time.Ticker
	countdownTimer *time.Ticker
	simTimer       *time.Ticker
	broadcastTimer *time.Ticker
	readyLeft      int
	countLeft      int

	inbox    chan any
	quit     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once

	// Mirrors readable from any goroutine
	pubPhase   atomic.Int32
	pubPlayers atomic.Int32
	armed      atomic.Int32
}

// RoomInfo describes a room for listings
type RoomInfo struct {
	ID      string `json:"id"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
}

type joinCmd struct {
	id, name string
	client   Broadcaster
	reply    chan error
}

type leaveCmd struct {
	id    string
	reply chan leaveResult
}

type leaveResult struct {
	remaining int
	err       error
}

type readyCmd struct{ id string }

type inputCmd struct {
	id   string
	x, y float64
}

type abilityCmd struct {
	id     string
	name   string
	params AbilityParams
}

// NewRoom creates a room in the lobby phase. analytics may be nil.
func NewRoom(id string, settings RoomSettings, analytics *Analytics) *Room {
	return &Room{
		ID:        id,
		settings:  settings,
		analytics: analytics,
		clients:   make(map[string]Broadcaster),
		phase:     PhaseLobby,
		inbox:     make(chan any, inboxSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the room worker
func (r *Room) Start() {
	r.started.Store(true)
	go r.Run()
}

// Run is the room worker loop
func (r *Room) Run() {
	defer close(r.done)
	defer r.cancelAllTimers()

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.inbox:
			r.handleCommand(cmd)
		case <-tickerC(r.readyTimer):
			r.onReadyTick()
		case <-tickerC(r.countdownTimer):
			r.onCountdownTick()
		case <-tickerC(r.simTimer):
			r.step()
		case <-tickerC(r.broadcastTimer):
			r.broadcastState()
		}
	}
}

// Stop terminates the worker and cancels every timer. It returns once the
// worker has exited.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
		if r.started.Load() {
			<-r.done
		} else {
			r.cancelAllTimers()
		}
	})
}

// Info returns a point-in-time description of the room
func (r *Room) Info() RoomInfo {
	return RoomInfo{
		ID:      r.ID,
		Phase:   r.Phase().String(),
		Players: r.PlayerCount(),
	}
}

// Phase returns the last published lifecycle phase
func (r *Room) Phase() MatchPhase {
	return MatchPhase(r.pubPhase.Load())
}

// PlayerCount returns the last published membership size
func (r *Room) PlayerCount() int {
	return int(r.pubPlayers.Load())
}

// TimersArmed returns the number of live timers
func (r *Room) TimersArmed() int {
	return int(r.armed.Load())
}

// Join adds a player. It fails with ErrRoomFull or ErrRoomInProgress when
// the room cannot take new players.
func (r *Room) Join(ctx context.Context, id, name string, client Broadcaster) error {
	reply := make(chan error, 1)
	if err := r.send(ctx, joinCmd{id: id, name: name, client: client, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave removes a player and reports how many remain
func (r *Room) Leave(ctx context.Context, id string) (int, error) {
	reply := make(chan leaveResult, 1)
	if err := r.send(ctx, leaveCmd{id: id, reply: reply}); err != nil {
		return 0, err
	}
	select {
	case res := <-reply:
		return res.remaining, res.err
	case <-r.done:
		return 0, ErrRoomClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Ready marks a player ready
func (r *Room) Ready(ctx context.Context, id string) error {
	return r.send(ctx, readyCmd{id: id})
}

// Ability requests an ability activation
func (r *Room) Ability(ctx context.Context, id, name string, params AbilityParams) error {
	return r.send(ctx, abilityCmd{id: id, name: name, params: params})
}

// Input stores a movement vector. Inputs are superseded by the next one, so
// it is dropped when the inbox is full.
func (r *Room) Input(id string, x, y float64) {
	select {
	case r.inbox <- inputCmd{id: id, x: x, y: y}:
	default:
	}
}

func (r *Room) send(ctx context.Context, cmd any) error {
	select {
	case <-r.quit:
		return ErrRoomClosed
	default:
	}
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.quit:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- r.addPlayer(c.id, c.name, c.client)
	case leaveCmd:
		remaining, err := r.removePlayer(c.id)
		c.reply <- leaveResult{remaining: remaining, err: err}
	case readyCmd:
		r.setReady(c.id)
	case inputCmd:
		r.setInput(c.id, c.x, c.y)
	case abilityCmd:
		r.useAbility(c.id, c.name, c.params)
	}
}

func (r *Room) player(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) addPlayer(id, name string, client Broadcaster) error {
	if r.player(id) != nil {
		return ErrAlreadyJoined
	}
	if r.phase != PhaseLobby {
		return ErrRoomInProgress
	}
	if len(r.players) >= r.settings.Capacity {
		return ErrRoomFull
	}

	p := NewPlayer(id, name)
	r.players = append(r.players, p)
	r.clients[id] = client
	r.publish()

	Log.Infow("player joined", "room", r.ID, "player", id, "name", name, "players", len(r.players))
	r.analytics.Track(EvtPlayerJoin, r.ID, id, name)

	if client != nil {
		client.SendJSON(Envelope{T: MsgJoinedRoom, Data: JoinedRoomMsg{RoomID: r.ID, PlayerID: id}})
	}
	r.broadcastRoster()
	return nil
}

func (r *Room) removePlayer(id string) (int, error) {
	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(r.players), ErrPlayerNotFound
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.clients, id)

	Log.Infow("player left", "room", r.ID, "player", id, "phase", r.phase.String(), "players", len(r.players))
	r.analytics.Track(EvtPlayerLeave, r.ID, id, "")

	switch r.phase {
	case PhaseLobby, PhaseCountdown:
		if r.readyTimer != nil {
			r.cancelReadyCheck()
			r.broadcastMsg(Envelope{T: MsgReadyTimer, Data: CountdownCleared})
		}
		if r.phase == PhaseCountdown {
			r.abortCountdown()
		}
		r.clearReady()
	case PhaseActive:
		r.checkGameOver()
		if r.phase != PhaseActive {
			// endRound already published the lobby roster
			return len(r.players), nil
		}
	}

	if len(r.players) == 0 {
		r.cancelAllTimers()
		r.phase = PhaseLobby
	}
	r.publish()
	r.broadcastRoster()
	return len(r.players), nil
}

func (r *Room) setReady(id string) {
	p := r.player(id)
	if p == nil || r.phase != PhaseLobby {
		return
	}
	p.Ready = true
	r.broadcastRoster()
	r.evaluateReady()
}

// evaluateReady starts the countdown when everyone is ready, or the bounded
// ready-check when at least two are
func (r *Room) evaluateReady() {
	n := len(r.players)
	if n < MinPlayersToStart {
		return
	}
	ready := r.readyCount()
	if ready == n {
		r.startCountdown()
		return
	}
	if ready >= MinPlayersToStart && r.readyTimer == nil {
		r.readyLeft = ReadyCheckSeconds
		r.arm(&r.readyTimer, LobbyTick)
		r.broadcastMsg(Envelope{T: MsgReadyTimer, Data: r.readyLeft})
		Log.Debugw("ready check started", "room", r.ID, "ready", ready, "players", n)
	}
}

func (r *Room) onReadyTick() {
	if r.phase != PhaseLobby {
		r.cancelReadyCheck()
		return
	}
	r.readyLeft--
	ready := r.readyCount()
	switch {
	case ready < MinPlayersToStart:
		r.cancelReadyCheck()
		r.broadcastMsg(Envelope{T: MsgReadyTimer, Data: CountdownCleared})
	case ready == len(r.players):
		r.startCountdown()
	case r.readyLeft <= 0:
		Log.Infow("ready check expired, starting with partial readiness", "room", r.ID, "ready", ready, "players", len(r.players))
		r.startCountdown()
	default:
		r.broadcastMsg(Envelope{T: MsgReadyTimer, Data: r.readyLeft})
	}
}

func (r *Room) startCountdown() {
	r.cancelReadyCheck()
	r.phase = PhaseCountdown
	n := len(r.players)
	for i, p := range r.players {
		p.Reset()
		p.X, p.Y = r.settings.SpawnPosition(i, n)
	}
	r.countLeft = CountdownSeconds
	r.arm(&r.countdownTimer, LobbyTick)
	r.publish()

	Log.Infow("countdown started", "room", r.ID, "players", n)
	r.broadcastRoster()
	r.broadcastMsg(Envelope{T: MsgCountdown, Data: r.countLeft})
}

func (r *Room) onCountdownTick() {
	if r.phase != PhaseCountdown {
		r.disarm(&r.countdownTimer)
		return
	}
	r.countLeft--
	r.broadcastMsg(Envelope{T: MsgCountdown, Data: r.countLeft})
	if r.countLeft <= 0 {
		r.startRound()
	}
}

func (r *Room) abortCountdown() {
	r.disarm(&r.countdownTimer)
	r.phase = PhaseLobby
	r.broadcastMsg(Envelope{T: MsgCountdown, Data: CountdownCleared})
	Log.Infow("countdown aborted", "room", r.ID)
}

func (r *Room) startRound() {
	r.disarm(&r.countdownTimer)
	r.phase = PhaseActive
	r.tick = 0
	r.arm(&r.simTimer, TickDuration)
	r.arm(&r.broadcastTimer, BroadcastInterval)
	r.publish()

	Log.Infow("round started", "room", r.ID, "players", len(r.players))
	r.analytics.Track(EvtRoundStart, r.ID, "", "")
	r.broadcastMsg(Envelope{T: MsgGameStart, Data: RosterMsg{Players: r.roster()}})
}

// step runs one simulation tick. The order of the phases is fixed: a push
// must be able to carry a player out of the arena within the same tick.
func (r *Room) step() {
	if r.phase != PhaseActive {
		return
	}
	r.tick++

	for _, p := range r.players {
		p.Update()
	}

	ResolveBodies(r.players)
	for _, k := range ResolvePushes(r.players) {
		Log.Debugw("push", "room", r.ID, "pusher", k.PusherID, "target", k.TargetID)
	}

	for _, id := range CheckBounds(r.players, r.settings.ArenaRadius) {
		Log.Infow("player out", "room", r.ID, "player", id, "tick", r.tick)
		r.analytics.Track(EvtPlayerOut, r.ID, id, "")
		r.broadcastMsg(Envelope{T: MsgPlayerOut, Data: id})
	}

	for _, p := range r.players {
		if p.Alive {
			p.Tick(TickDuration)
		}
	}

	r.checkGameOver()
}

func (r *Room) checkGameOver() {
	if r.phase != PhaseActive {
		return
	}
	var survivor *Player
	alive := 0
	for _, p := range r.players {
		if p.Alive {
			alive++
			survivor = p
		}
	}
	if alive > 1 {
		return
	}
	var winner *string
	if alive == 1 {
		id := survivor.ID
		winner = &id
	}
	r.endRound(winner)
}

func (r *Room) endRound(winner *string) {
	r.phase = PhaseGameOver
	r.broadcastState()
	r.disarm(&r.simTimer)
	r.disarm(&r.broadcastTimer)

	w := ""
	if winner != nil {
		w = *winner
	}
	Log.Infow("round over", "room", r.ID, "winner", w, "ticks", r.tick)
	r.analytics.Track(EvtRoundEnd, r.ID, w, "")
	r.broadcastMsg(Envelope{T: MsgGameOver, Data: GameOverMsg{Winner: winner}})

	r.clearReady()
	r.phase = PhaseLobby
	r.publish()
	r.broadcastRoster()
}

func (r *Room) setInput(id string, x, y float64) {
	p := r.player(id)
	if p == nil || !p.Alive || r.phase != PhaseActive {
		return
	}
	p.SetInput(x, y)
}

func (r *Room) useAbility(id, name string, params AbilityParams) {
	p := r.player(id)
	if p == nil || !p.Alive || r.phase != PhaseActive {
		return
	}
	if !p.UseAbility(name, params) {
		return
	}
	def, _ := LookupAbility(name)
	r.broadcastMsg(Envelope{T: MsgAbilityUsed, Data: AbilityUsedMsg{PlayerID: id, Ability: string(def.Type)}})
}

func (r *Room) readyCount() int {
	n := 0
	for _, p := range r.players {
		if p.Ready {
			n++
		}
	}
	return n
}

func (r *Room) clearReady() {
	for _, p := range r.players {
		p.Ready = false
	}
}

func (r *Room) cancelReadyCheck() {
	r.disarm(&r.readyTimer)
	r.readyLeft = 0
}

func (r *Room) cancelAllTimers() {
	r.disarm(&r.readyTimer)
	r.disarm(&r.countdownTimer)
	r.disarm(&r.simTimer)
	r.disarm(&r.broadcastTimer)
}

// arm (re)starts a timer slot, replacing any timer already in it
func (r *Room) arm(slot **time.Ticker, d time.Duration) {
	r.disarm(slot)
	*slot = time.NewTicker(d)
	r.armed.Add(1)
}

func (r *Room) disarm(slot **time.Ticker) {
	if *slot == nil {
		return
	}
	(*slot).Stop()
	*slot = nil
	r.armed.Add(-1)
}

func tickerC(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func (r *Room) publish() {
	r.pubPhase.Store(int32(r.phase))
	r.pubPlayers.Store(int32(len(r.players)))
}

// roster copies every player's snapshot
func (r *Room) roster() []PlayerState {
	out := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p.ToState())
	}
	return out
}

func (r *Room) broadcastRoster() {
	if len(r.players) == 0 {
		return
	}
	r.broadcastMsg(Envelope{T: MsgRoomUpdated, Data: RosterMsg{Players: r.roster()}})
}

// broadcastState sends the msgpack-encoded state to every client
func (r *Room) broadcastState() {
	data, err := msgpack.Marshal(StateUpdate{
		Players:     r.roster(),
		ArenaRadius: r.settings.ArenaRadius,
		Tick:        r.tick,
	})
	if err != nil {
		Log.Errorw("encode state", "room", r.ID, "err", err)
		return
	}
	for _, p := range r.players {
		if c := r.clients[p.ID]; c != nil {
			c.SendBinary(data)
		}
	}
}

// broadcastMsg sends a message to every player in the room
func (r *Room) broadcastMsg(msg Envelope) {
	for _, p := range r.players {
		if c := r.clients[p.ID]; c != nil {
			c.SendJSON(msg)
		}
	}
}
