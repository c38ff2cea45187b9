package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Renderer delivers views into UI surfaces. Update replaces the surface
// contents in place; Push layers a new view over it. Both are fire and
// forget: a failed render is logged by the caller, never retried.
type Renderer interface {
	Update(ctx context.Context, surfaceID string, view []byte) error
	Push(ctx context.Context, surfaceID string, view []byte) error
}

// Connect dials NATS with the reconnect posture the engine wants: keep
// retrying forever, log transitions.
func Connect(url string, log *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("fleetdeck"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	return nats.Connect(url, opts...)
}

// NATSRenderer publishes render events onto the render subjects, where
// the transport layer applies them to its surfaces.
type NATSRenderer struct {
	nc  *nats.Conn
	log *zap.Logger
}

func NewNATSRenderer(nc *nats.Conn, log *zap.Logger) *NATSRenderer {
	return &NATSRenderer{nc: nc, log: log}
}

func (r *NATSRenderer) Update(ctx context.Context, surfaceID string, view []byte) error {
	return r.publish(SubjectRenderUpdate, surfaceID, view)
}

func (r *NATSRenderer) Push(ctx context.Context, surfaceID string, view []byte) error {
	return r.publish(SubjectRenderPush, surfaceID, view)
}

func (r *NATSRenderer) publish(subject, surfaceID string, view []byte) error {
	if r.nc == nil || r.nc.IsClosed() {
		return fmt.Errorf("nats not connected")
	}
	payload, _ := json.Marshal(RenderEvent{SurfaceID: surfaceID, View: view})
	return r.nc.Publish(subject, payload)
}
