package bot

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/command"
	"github.com/quangdm/fleetdeck/internal/discovery"
	"github.com/quangdm/fleetdeck/internal/ref"
	"github.com/quangdm/fleetdeck/internal/session"
)

// Handler dispatches inbound boundary events into the engine's services.
type Handler struct {
	disc          *discovery.Discoverer
	cache         *discovery.Cache
	tracker       *session.Tracker
	router        *command.Router
	renderer      Renderer
	views         *Views
	defaultRegion string
	log           *zap.Logger
}

func NewHandler(
	disc *discovery.Discoverer,
	cache *discovery.Cache,
	tracker *session.Tracker,
	router *command.Router,
	renderer Renderer,
	views *Views,
	defaultRegion string,
	log *zap.Logger,
) *Handler {
	return &Handler{
		disc:          disc,
		cache:         cache,
		tracker:       tracker,
		router:        router,
		renderer:      renderer,
		views:         views,
		defaultRegion: defaultRegion,
		log:           log,
	}
}

// Subscribe attaches the handler to the event subject tree with a
// single wildcard subscription; dispatch keys off the full subject.
func (h *Handler) Subscribe(nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe(SubjectEvents, h.dispatch)
}

func (h *Handler) dispatch(msg *nats.Msg) {
	switch msg.Subject {
	case SubjectDiscover:
		h.handleDiscover(msg)
	case SubjectOpenSession:
		h.handleOpenSession(msg)
	case SubjectCloseSession:
		h.handleCloseSession(msg)
	case SubjectMutate:
		h.handleMutate(msg)
	case SubjectPaginate:
		h.handlePaginate(msg)
	default:
		h.log.Warn("unhandled event subject", zap.String("subject", msg.Subject))
	}
}

func (h *Handler) handleDiscover(msg *nats.Msg) {
	var ev DiscoverFleet
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		h.log.Warn("bad discover event", zap.Error(err))
		return
	}
	ctx := context.Background()

	if !h.router.IsAuthorized(ev.CallerID) {
		h.respond(ctx, msg, ev.SurfaceID, h.views.AccessDeniedView())
		return
	}

	page := ev.Page
	if page < 1 {
		page = 1
	}

	var view []byte
	switch ev.Scope {
	case ScopeSingleRegion:
		region := ev.Region
		if region == "" {
			region = h.defaultRegion
		}
		res := h.disc.DiscoverRegion(ctx, region)
		if res.Err != nil {
			view = h.views.ErrorView("Error: " + res.Err.Error())
		} else {
			view = h.views.PageView(res.Instances, page)
		}
	default: // all-regions
		snap := h.cache.GetOrRefresh(ctx)
		view = h.views.FleetView(snap, page)
	}

	h.respond(ctx, msg, ev.SurfaceID, view)
}

func (h *Handler) handleOpenSession(msg *nats.Msg) {
	var ev OpenBackgroundSession
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		h.log.Warn("bad open-session event", zap.Error(err))
		return
	}
	ctx := context.Background()

	if !h.router.IsAuthorized(ev.CallerID) {
		if err := h.renderer.Push(ctx, ev.SurfaceID, h.views.AccessDeniedView()); err != nil {
			h.log.Warn("access-denied render failed", zap.Error(err))
		}
		return
	}

	// Phase one: the surface shows a loading view immediately. Phase two
	// is the tracked background job.
	if err := h.renderer.Update(ctx, ev.SurfaceID, h.views.LoadingView()); err != nil {
		h.log.Warn("loading render failed", zap.Error(err))
	}

	jobID, err := h.tracker.StartJob(ev.SurfaceID, ev.SurfaceID)
	ack := SessionAck{SessionID: ev.SurfaceID, JobID: jobID}
	if err != nil {
		ack.Error = err.Error()
		if rerr := h.renderer.Update(ctx, ev.SurfaceID, h.views.ErrorView(err.Error())); rerr != nil {
			h.log.Warn("error render failed", zap.Error(rerr))
		}
	}
	if msg.Reply != "" {
		b, _ := json.Marshal(ack)
		_ = msg.Respond(b)
	}
}

func (h *Handler) handleCloseSession(msg *nats.Msg) {
	var ev CloseSession
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		h.log.Warn("bad close-session event", zap.Error(err))
		return
	}
	h.tracker.Cancel(ev.SessionID)
	h.log.Info("session closed", zap.String("session_id", ev.SessionID))
}

func (h *Handler) handleMutate(msg *nats.Msg) {
	var ev Mutate
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		h.log.Warn("bad mutate event", zap.Error(err))
		return
	}
	ctx := context.Background()

	action := ev.Action
	var instanceID, region string
	if action == "" {
		// Overflow-menu form: the action rides inside the token.
		a, id, rg, err := ref.DecodeAction(ev.Ref, h.defaultRegion)
		if err != nil {
			h.respond(ctx, msg, "", h.views.ErrorView(err.Error()))
			return
		}
		action, instanceID, region = a, id, rg
	} else {
		instanceID, region = ref.Decode(ev.Ref, h.defaultRegion)
	}

	res := h.router.Execute(ctx, command.Action(action), instanceID, region, ev.CallerID)

	var view []byte
	if res.Kind == command.KindOK && res.Detail != nil {
		view = h.views.StatusView(res.Detail)
	} else {
		view = h.views.ResultView(action, res.Message, res.Kind == command.KindOK)
	}

	if msg.Reply != "" {
		b, _ := json.Marshal(res)
		_ = msg.Respond(b)
		return
	}
	// Mutation results layer over whatever the surface shows.
	if err := h.renderer.Push(ctx, "", view); err != nil {
		h.log.Warn("result render failed", zap.Error(err))
	}
}

func (h *Handler) handlePaginate(msg *nats.Msg) {
	var ev Paginate
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		h.log.Warn("bad paginate event", zap.Error(err))
		return
	}
	ctx := context.Background()

	// Prefer the session's own snapshot so page flips don't refetch.
	snap, ok := h.tracker.CachedSnapshot(ev.SessionID)
	if !ok {
		snap = h.cache.GetOrRefresh(ctx)
	}
	view := h.views.FleetView(snap, ev.Page)
	h.respond(ctx, msg, ev.SessionID, view)
}

// respond answers a request-reply message directly, otherwise renders
// into the surface.
func (h *Handler) respond(ctx context.Context, msg *nats.Msg, surfaceID string, view []byte) {
	if msg.Reply != "" {
		_ = msg.Respond(view)
		return
	}
	if surfaceID == "" {
		return
	}
	if err := h.renderer.Update(ctx, surfaceID, view); err != nil {
		h.log.Warn("render failed", zap.String("surface_id", surfaceID), zap.Error(err))
	}
}
