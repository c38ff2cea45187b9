// Package bot is the chat-facing boundary: it consumes typed events the
// transport layer publishes on NATS, drives the discovery/session/command
// services, and emits render side effects back onto render subjects. The
// chat protocol itself (message markup, modal plumbing) lives outside.
package bot

import "encoding/json"

// Subjects of the event boundary.
const (
	SubjectEvents = "fleet.events.>"

	SubjectDiscover     = "fleet.events.discover"
	SubjectOpenSession  = "fleet.events.session.open"
	SubjectCloseSession = "fleet.events.session.close"
	SubjectMutate       = "fleet.events.mutate"
	SubjectPaginate     = "fleet.events.paginate"

	SubjectRenderUpdate = "fleet.render.update"
	SubjectRenderPush   = "fleet.render.push"
)

// Discovery scopes.
const (
	ScopeSingleRegion = "single-region"
	ScopeAllRegions   = "all-regions"
)

// DiscoverFleet asks for a paginated fleet view, synchronously (reply
// subject) or rendered into a surface.
type DiscoverFleet struct {
	Scope     string `json:"scope"`
	Region    string `json:"region,omitempty"`
	Page      int    `json:"page,omitempty"`
	CallerID  string `json:"caller_id"`
	SurfaceID string `json:"surface_id,omitempty"`
}

// OpenBackgroundSession starts an async load for a freshly opened UI
// surface. The surface id doubles as the session id for its lifetime.
type OpenBackgroundSession struct {
	CallerID  string `json:"caller_id"`
	SurfaceID string `json:"surface_id"`
}

// SessionAck acknowledges an OpenBackgroundSession request-reply.
type SessionAck struct {
	JobID     string `json:"job_id,omitempty"`
	SessionID string `json:"session_id"`
	Error     string `json:"error,omitempty"`
}

// CloseSession reports that the session's surface was dismissed.
type CloseSession struct {
	SessionID string `json:"session_id"`
}

// Mutate applies start/stop/status to the instance addressed by an
// opaque instance-ref token.
type Mutate struct {
	Action   string `json:"action"`
	Ref      string `json:"ref"`
	CallerID string `json:"caller_id"`
}

// Paginate moves an open session to another page, reusing the session's
// cached snapshot when one exists.
type Paginate struct {
	SessionID string `json:"session_id"`
	Page      int    `json:"page"`
	CallerID  string `json:"caller_id"`
}

// RenderEvent is the outbound side effect: place a view into a surface,
// either replacing it (update) or layering over it (push).
type RenderEvent struct {
	SurfaceID string          `json:"surface_id"`
	View      json.RawMessage `json:"view"`
}
