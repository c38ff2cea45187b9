package bot

import (
	"encoding/json"
	"time"

	"github.com/quangdm/fleetdeck/internal/models"
	"github.com/quangdm/fleetdeck/internal/paginate"
	"github.com/quangdm/fleetdeck/internal/ref"
)

// Views builds the JSON view payloads carried by render events. Payloads
// are transport-neutral; the chat layer turns them into whatever markup
// its surface needs.
type Views struct {
	PageSize      int
	DefaultRegion string
}

func NewViews(pageSize int, defaultRegion string) *Views {
	if pageSize < 1 {
		pageSize = 50
	}
	return &Views{PageSize: pageSize, DefaultRegion: defaultRegion}
}

type fleetInstance struct {
	models.Instance
	// ManageRef is the opaque token a later Mutate event hands back.
	ManageRef string `json:"manage_ref"`
}

type fleetGroup struct {
	Region    string          `json:"region"`
	Instances []fleetInstance `json:"instances"`
}

type fleetView struct {
	Type          string       `json:"type"`
	CurrentPage   int          `json:"current_page"`
	TotalPages    int          `json:"total_pages"`
	TotalItems    int          `json:"total_items"`
	HasPrev       bool         `json:"has_prev"`
	HasNext       bool         `json:"has_next"`
	FailedRegions []string     `json:"failed_regions,omitempty"`
	FetchedAt     time.Time    `json:"fetched_at"`
	Groups        []fleetGroup `json:"groups"`
}

// FleetView renders one page of a snapshot, grouped by region for
// display, each instance carrying its manage token.
func (v *Views) FleetView(snap *models.FleetSnapshot, page int) []byte {
	pv := paginate.Paginate(snap.Instances, page, v.PageSize)

	out := fleetView{
		Type:          "fleet_list",
		CurrentPage:   pv.CurrentPage,
		TotalPages:    pv.TotalPages,
		TotalItems:    pv.TotalItems,
		HasPrev:       pv.HasPrev,
		HasNext:       pv.HasNext,
		FailedRegions: snap.FailedRegions,
		FetchedAt:     snap.FetchedAt,
		Groups:        []fleetGroup{},
	}
	for _, g := range paginate.GroupByRegion(pv.Items) {
		group := fleetGroup{Region: g.Region}
		for _, inst := range g.Instances {
			group.Instances = append(group.Instances, fleetInstance{
				Instance:  inst,
				ManageRef: ref.Encode(inst.ID, inst.Region),
			})
		}
		out.Groups = append(out.Groups, group)
	}

	b, _ := json.Marshal(out)
	return b
}

// PageView renders one already-paginated slice (single-region queries).
func (v *Views) PageView(instances []models.Instance, page int) []byte {
	snap := &models.FleetSnapshot{Instances: instances, FetchedAt: time.Now().UTC()}
	return v.FleetView(snap, page)
}

// LoadingView is shown while a background load is in flight.
func (v *Views) LoadingView() []byte {
	b, _ := json.Marshal(map[string]any{
		"type":    "loading",
		"message": "⏳ Loading instances...",
	})
	return b
}

// ErrorView carries a retry affordance: replaying the originating event
// restarts the load.
func (v *Views) ErrorView(message string) []byte {
	b, _ := json.Marshal(map[string]any{
		"type":    "error",
		"message": "❌ " + message,
		"retry":   true,
	})
	return b
}

// AccessDeniedView is the fixed denial shown to unauthorized callers.
func (v *Views) AccessDeniedView() []byte {
	b, _ := json.Marshal(map[string]any{
		"type":    "access_denied",
		"message": "❌ You are not authorized to use this command.",
	})
	return b
}

// ResultView reports the outcome of a mutation.
func (v *Views) ResultView(title, message string, ok bool) []byte {
	b, _ := json.Marshal(map[string]any{
		"type":    "action_result",
		"title":   title,
		"message": message,
		"ok":      ok,
	})
	return b
}

// StatusView renders an instance's expanded status.
func (v *Views) StatusView(detail *models.InstanceDetail) []byte {
	b, _ := json.Marshal(map[string]any{
		"type":   "instance_status",
		"detail": detail,
	})
	return b
}
