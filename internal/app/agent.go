// Package app wires the decision engine, game client and region table
// into the running agent.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moltyroyale/agent/internal/adapters/gameapi"
	"github.com/moltyroyale/agent/internal/adapters/mq/queue"
	"github.com/moltyroyale/agent/internal/adapters/mq/worker"
	"github.com/moltyroyale/agent/internal/adapters/repository"
	"github.com/moltyroyale/agent/internal/domain/decision"
	"github.com/moltyroyale/agent/internal/domain/dedupe"
	"github.com/moltyroyale/agent/internal/domain/model"
	"github.com/moltyroyale/agent/internal/domain/rooms"
	"github.com/moltyroyale/agent/pkg/logger"
	"github.com/moltyroyale/agent/pkg/metrics"
)

// Default agent configuration constants.
const (
	defaultTickInterval  = time.Second
	defaultTickDeadline  = 5 * time.Second
	defaultRoomRetryWait = 5 * time.Second
	defaultMatchEndWait  = 3 * time.Second

	// highTierFloor marks the rarities whose acquisition raises a
	// region's value score.
	highTierFloor = model.TierEpic
)

// GameClient is the slice of the game API the loop consumes.
type GameClient interface {
	ListRooms(ctx context.Context) ([]model.RoomSummary, error)
	JoinRoom(ctx context.Context, roomID string) (string, error)
	LeaveRoom(ctx context.Context, roomID string) error
	GetState(ctx context.Context, matchID string) (model.MatchSnapshot, error)
	SendAction(ctx context.Context, matchID string, action *model.Action) (gameapi.Ack, error)
	Balance(ctx context.Context) (float64, error)
}

// Agent runs the fetch-decide-act loop. One Agent serves one match at a
// time; several Agents may share a region store.
type Agent struct {
	client   GameClient
	selector *rooms.Selector
	resolver *decision.Resolver
	regions  repository.Store
	events   queue.Queue
	applier  *worker.Applier
	deduper  dedupe.Deduper

	tickInterval  time.Duration
	tickDeadline  time.Duration
	roomRetryWait time.Duration
	matchEndWait  time.Duration

	sessionID string
	logger    logger.Logger

	mu          sync.Mutex
	roomID      string
	matchID     string
	balance     float64
	prevKills   int
	lastAction  *model.Action
	matchCount  int
	killCount   int
	missedTicks int
}

// Option applies a configuration option to the Agent.
type Option func(*Agent)

// WithTickInterval sets the pause between decision cycles.
func WithTickInterval(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.tickInterval = d
		}
	}
}

// WithTickDeadline bounds one fetch-decide-act cycle.
func WithTickDeadline(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.tickDeadline = d
		}
	}
}

// WithRoomRetryWait sets the pause after a failed lobby scan.
func WithRoomRetryWait(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.roomRetryWait = d
		}
	}
}

// WithEventQueue sets the outcome event queue.
func WithEventQueue(q queue.Queue) Option {
	return func(a *Agent) {
		if q != nil {
			a.events = q
		}
	}
}

// WithDeduper sets the outcome event deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(a *Agent) {
		if d != nil {
			a.deduper = d
		}
	}
}

// WithRoomSelector sets the lobby room selector.
func WithRoomSelector(s *rooms.Selector) Option {
	return func(a *Agent) {
		if s != nil {
			a.selector = s
		}
	}
}

// WithLogger sets a custom logger for the agent.
func WithLogger(l logger.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Agent over its three hard dependencies: the game
// client, the priority resolver and the region store.
func New(client GameClient, resolver *decision.Resolver, regions repository.Store, opts ...Option) *Agent {
	a := &Agent{
		client:        client,
		resolver:      resolver,
		regions:       regions,
		tickInterval:  defaultTickInterval,
		tickDeadline:  defaultTickDeadline,
		roomRetryWait: defaultRoomRetryWait,
		matchEndWait:  defaultMatchEndWait,
		sessionID:     uuid.NewString(),
		logger:        logger.Get().Named("agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.selector == nil {
		a.selector = rooms.NewSelector()
	}
	if a.events == nil {
		a.events = queue.NewInMemoryQueue()
	}
	if a.deduper == nil {
		a.deduper = dedupe.NewInMemoryDeduper()
	}
	a.applier = worker.NewApplier(a.events, a.regions)
	return a
}

// Run drives the agent until ctx is canceled or a fatal error occurs.
// The stop signal is checked between ticks; an in-flight submission is
// allowed to finish.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info(ctx, "agent starting",
		logger.String("session", a.sessionID),
		logger.String("interval", a.tickInterval.String()),
	)

	go a.applier.Run(ctx)
	defer a.shutdown(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if a.currentMatch() == "" {
			if err := a.roomPhase(ctx); err != nil {
				var authErr *gameapi.AuthError
				if errors.As(err, &authErr) {
					return fmt.Errorf("room phase: %w", err)
				}
				a.logger.Warn(ctx, "room phase failed; will retry",
					logger.Error(err),
				)
				a.sleep(ctx, a.roomRetryWait)
			}
			continue
		}

		if err := a.tick(ctx); err != nil {
			// Only auth errors escape tick; everything else is absorbed
			// as a skipped tick.
			return fmt.Errorf("tick: %w", err)
		}
		a.sleep(ctx, a.tickInterval)
	}
}

// roomPhase scans the lobby, picks a room and joins it.
func (a *Agent) roomPhase(ctx context.Context) error {
	if balance, err := a.client.Balance(ctx); err == nil {
		a.mu.Lock()
		a.balance = balance
		a.mu.Unlock()
	}

	catalog, err := a.client.ListRooms(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	balance := a.balance
	a.mu.Unlock()

	room, err := a.selector.Select(ctx, catalog, balance)
	if err != nil {
		return err
	}

	matchID, err := a.client.JoinRoom(ctx, room.ID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.roomID = room.ID
	a.matchID = matchID
	a.prevKills = 0
	a.lastAction = nil
	a.matchCount++
	a.mu.Unlock()

	metrics.RecordMatchStarted()
	a.logger.Info(ctx, "joined room",
		logger.String("room", room.ID),
		logger.String("match", matchID),
	)
	return nil
}

// tick runs one fetch-decide-act cycle under the configured deadline.
// Returns non-nil only on fatal (auth) errors.
func (a *Agent) tick(ctx context.Context) error {
	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, a.tickDeadline)
	defer cancel()

	matchID := a.currentMatch()
	snap, err := a.client.GetState(tctx, matchID)
	if err != nil {
		return a.absorbTickError(ctx, "fetch", err)
	}

	a.observeSnapshot(ctx, snap)

	if a.matchOver(snap) {
		a.endMatch(ctx, snap)
		return nil
	}

	action := a.resolver.Decide(tctx, snap)

	if tctx.Err() != nil {
		// Deadline blew during decide: abandon the action, not the loop.
		a.recordMiss(ctx, "deadline")
		return nil
	}

	ack, err := a.client.SendAction(tctx, matchID, action)
	if err != nil {
		return a.absorbTickError(ctx, "submit", err)
	}

	a.observeAck(ctx, snap, action, ack)

	a.mu.Lock()
	a.lastAction = action
	a.mu.Unlock()

	metrics.RecordTick()
	metrics.RecordAction(string(action.Type))
	metrics.RecordTickDuration(float64(time.Since(start).Milliseconds()))
	return nil
}

// absorbTickError converts recoverable errors into skipped ticks and
// passes fatal ones through.
func (a *Agent) absorbTickError(ctx context.Context, stage string, err error) error {
	var authErr *gameapi.AuthError
	if errors.As(err, &authErr) {
		a.logger.Error(ctx, "credentials rejected; stopping",
			logger.String("stage", stage),
			logger.Error(err),
		)
		return err
	}

	reason := "transport"
	var parseErr *gameapi.ParseError
	if errors.As(err, &parseErr) {
		reason = "parse"
	}
	a.logger.Warn(ctx, "tick skipped",
		logger.String("stage", stage),
		logger.String("reason", reason),
		logger.Error(err),
	)
	a.recordMiss(ctx, reason)
	return nil
}

func (a *Agent) recordMiss(_ context.Context, reason string) {
	metrics.RecordTickSkipped(reason)
	a.mu.Lock()
	a.missedTicks++
	a.mu.Unlock()
}

// observeSnapshot mines a fresh snapshot for outcome events: new kills
// and zone-prone regions.
func (a *Agent) observeSnapshot(ctx context.Context, snap model.MatchSnapshot) {
	region := snap.Region()

	a.mu.Lock()
	a.balance = snap.Self.Balance
	newKills := snap.Self.Kills - a.prevKills
	if newKills > 0 {
		a.prevKills = snap.Self.Kills
		a.killCount += newKills
	}
	matchID := a.matchID
	a.mu.Unlock()

	for i := 0; i < newKills; i++ {
		metrics.RecordKill()
		a.emit(ctx, model.OutcomeEvent{
			EventID: fmt.Sprintf("%s:kill:%d", matchID, snap.Self.Kills-i),
			MatchID: matchID,
			Region:  region,
			Kind:    model.EventKill,
			TS:      time.Now().UTC(),
		})
	}
	if newKills > 0 {
		a.logger.Info(ctx, "kill confirmed",
			logger.Int("new", newKills),
			logger.Int("total", snap.Self.Kills),
			logger.String("region", region),
		)
	}

	// A region that keeps catching the agent outside the safe boundary
	// is zone-prone; dedupe keeps it one event per match and region.
	if !snap.Zone.Safe && region != "" {
		a.emit(ctx, model.OutcomeEvent{
			EventID: fmt.Sprintf("%s:zone_prone:%s", matchID, region),
			MatchID: matchID,
			Region:  region,
			Kind:    model.EventZoneProne,
			TS:      time.Now().UTC(),
		})
	}
}

// observeAck mines an action acknowledgement for outcome events.
func (a *Agent) observeAck(ctx context.Context, snap model.MatchSnapshot, action *model.Action, ack gameapi.Ack) {
	matchID := a.currentMatch()
	region := snap.Region()

	if ack.WeaponAcquired != nil {
		score := ack.WeaponAcquired.Tier
		a.logger.Info(ctx, "weapon acquired",
			logger.String("weapon", ack.WeaponAcquired.Name),
			logger.String("tier", string(score)),
		)
		if score == highTierFloor || score == model.TierLegendary {
			a.emit(ctx, model.OutcomeEvent{
				EventID: fmt.Sprintf("%s:weapon:%s", matchID, ack.WeaponAcquired.Name),
				MatchID: matchID,
				Region:  region,
				Kind:    model.EventHighTierWeapon,
				TS:      time.Now().UTC(),
			})
		}
	}

	if action.Type == model.ActionMoveToRegion {
		a.emit(ctx, model.OutcomeEvent{
			EventID:    fmt.Sprintf("%s:explore:%s:%d", matchID, action.Region, snap.Tick),
			MatchID:    matchID,
			Region:     action.Region,
			Kind:       model.EventExplore,
			ItemsFound: ack.ItemsFound,
			TS:         time.Now().UTC(),
		})
	}

	if ack.Ambushed {
		a.emit(ctx, model.OutcomeEvent{
			EventID: fmt.Sprintf("%s:ambush:%d", matchID, snap.Tick),
			MatchID: matchID,
			Region:  region,
			Kind:    model.EventAmbush,
			TS:      time.Now().UTC(),
		})
	}
}

// emit routes one outcome event through dedupe into the queue. Events
// from failed ticks never reach here, so the table stays clean.
func (a *Agent) emit(ctx context.Context, e model.OutcomeEvent) {
	if e.Region == "" {
		return
	}
	if a.deduper.SeenAndRecord(ctx, e.EventID) {
		metrics.RecordEventDuplicate()
		return
	}
	if !a.events.Enqueue(ctx, e) {
		// Backpressure: forget the ID so a later observation retries.
		a.deduper.Unrecord(ctx, e.EventID)
	}
}

// matchOver reports whether the match has concluded for this agent.
func (a *Agent) matchOver(snap model.MatchSnapshot) bool {
	switch snap.Status {
	case "finished", "ended", "game_over", "dead":
		return true
	}
	if snap.Self.HP <= 0 {
		return true
	}
	return snap.PlayersAlive > 0 && snap.PlayersAlive <= 1
}

// endMatch leaves the room and resets per-match state.
func (a *Agent) endMatch(ctx context.Context, snap model.MatchSnapshot) {
	result := "lost"
	if snap.Self.HP > 0 && snap.PlayersAlive <= 1 {
		result = "won"
	}
	metrics.RecordMatchFinished(result)

	a.mu.Lock()
	roomID := a.roomID
	kills := a.prevKills
	a.roomID = ""
	a.matchID = ""
	a.prevKills = 0
	a.lastAction = nil
	a.mu.Unlock()

	a.logger.Info(ctx, "match ended",
		logger.String("result", result),
		logger.Int("kills", kills),
		logger.Int("regionsLearned", a.regions.Count(ctx)),
	)

	if roomID != "" {
		if err := a.client.LeaveRoom(ctx, roomID); err != nil {
			a.logger.Warn(ctx, "leave room failed", logger.Error(err))
		}
	}
	a.sleep(ctx, a.matchEndWait)
}

// Stats reports session statistics for the ops endpoint.
func (a *Agent) Stats(ctx context.Context) map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return map[string]any{
		"session":     a.sessionID,
		"match":       a.matchID,
		"matches":     a.matchCount,
		"kills":       a.killCount,
		"missedTicks": a.missedTicks,
		"balance":     a.balance,
		"regions":     a.regions.Count(ctx),
		"queueDepth":  a.events.Len(ctx),
	}
}

func (a *Agent) currentMatch() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.matchID
}

// sleep waits for d or until ctx is canceled.
func (a *Agent) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// shutdown drains the event pipeline and logs the session summary.
func (a *Agent) shutdown(ctx context.Context) {
	_ = a.events.Close()
	if err := a.applier.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn(ctx, "applier shutdown", logger.Error(err))
	}

	a.mu.Lock()
	matches, kills := a.matchCount, a.killCount
	a.mu.Unlock()

	a.logger.Info(ctx, "session summary",
		logger.Int("matches", matches),
		logger.Int("kills", kills),
		logger.Int("regionsLearned", a.regions.Count(context.WithoutCancel(ctx))),
	)
}
