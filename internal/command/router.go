// Package command authorizes and dispatches instance mutations. Every
// action is single shot: provider errors come back verbatim as the
// operation's result, never retried.
package command

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/api"
	"github.com/quangdm/fleetdeck/internal/models"
	"github.com/quangdm/fleetdeck/internal/provider"
)

// Action is an instance-level operation.
type Action string

const (
	ActionStart  Action = "start"
	ActionStop   Action = "stop"
	ActionStatus Action = "status"
)

// Kind classifies a Result.
type Kind string

const (
	KindOK           Kind = "ok"
	KindUnauthorized Kind = "unauthorized"
	KindUsage        Kind = "usage"
	KindError        Kind = "error"
)

// Result is what the caller sees. Message is ready for display; Detail is
// set for successful status queries.
type Result struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Detail  *models.InstanceDetail `json:"detail,omitempty"`
}

// Router checks the allow-list and routes actions to the provider.
type Router struct {
	client     provider.RegionClient
	authorized map[string]struct{}
	log        *zap.Logger
}

// NewRouter builds a router with a static authorized-caller set.
func NewRouter(client provider.RegionClient, authorizedCallers []string, log *zap.Logger) *Router {
	authorized := make(map[string]struct{}, len(authorizedCallers))
	for _, c := range authorizedCallers {
		if c = strings.TrimSpace(c); c != "" {
			authorized[c] = struct{}{}
		}
	}
	return &Router{client: client, authorized: authorized, log: log}
}

// IsAuthorized reports allow-list membership. An empty allow-list
// authorizes nobody.
func (r *Router) IsAuthorized(callerID string) bool {
	_, ok := r.authorized[strings.TrimSpace(callerID)]
	return ok
}

// Execute runs one action against one instance. Unauthorized callers are
// rejected before any provider call is made.
func (r *Router) Execute(ctx context.Context, action Action, instanceID, region, callerID string) Result {
	if !r.IsAuthorized(callerID) {
		r.log.Warn("unauthorized command",
			zap.String("caller_id", callerID), zap.String("action", string(action)))
		api.Mutations.WithLabelValues(string(action), "unauthorized").Inc()
		return Result{Kind: KindUnauthorized, Message: "❌ You are not authorized to use this command."}
	}

	if !strings.HasPrefix(instanceID, "i-") {
		return Result{Kind: KindUsage, Message: fmt.Sprintf("❌ Usage: `%s i-xxxxxxxxx`", action)}
	}

	var (
		msg    string
		detail *models.InstanceDetail
		err    error
	)
	switch action {
	case ActionStart:
		msg, err = r.client.Start(ctx, region, instanceID)
	case ActionStop:
		msg, err = r.client.Stop(ctx, region, instanceID)
	case ActionStatus:
		var d models.InstanceDetail
		d, err = r.client.Describe(ctx, region, instanceID)
		if err == nil {
			detail = &d
			msg = fmt.Sprintf("Instance %s is %s", d.ID, d.State)
		}
	default:
		return Result{Kind: KindUsage, Message: fmt.Sprintf("❌ Unknown action %q", action)}
	}

	if err != nil {
		api.Mutations.WithLabelValues(string(action), "error").Inc()
		// Provider error text goes to the caller as-is; callers are
		// trusted operators.
		return Result{Kind: KindError, Message: "❌ Error: " + err.Error()}
	}

	api.Mutations.WithLabelValues(string(action), "ok").Inc()
	r.log.Info("command executed",
		zap.String("action", string(action)),
		zap.String("instance_id", instanceID),
		zap.String("region", region),
		zap.String("caller_id", callerID))
	return Result{Kind: KindOK, Message: "✅ " + msg, Detail: detail}
}
