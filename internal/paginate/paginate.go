// Package paginate partitions an ordered instance sequence into
// fixed-size pages. It is a pure function of its inputs: no hidden state,
// identical inputs always yield identical pages.
package paginate

import "github.com/quangdm/fleetdeck/internal/models"

// View is one page of a snapshot plus navigation metadata. It is derived
// per request and never stored.
type View struct {
	Items       []models.Instance `json:"items"`
	CurrentPage int               `json:"current_page"`
	TotalPages  int               `json:"total_pages"`
	TotalItems  int               `json:"total_items"`
	HasPrev     bool              `json:"has_prev"`
	HasNext     bool              `json:"has_next"`
}

// Paginate slices instances into the requested page. The page number is
// clamped into [1, TotalPages]; TotalPages is at least 1 even for an
// empty input.
func Paginate(instances []models.Instance, page, perPage int) View {
	if perPage < 1 {
		perPage = 1
	}

	total := len(instances)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return View{
		Items:       instances[start:end],
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasPrev:     page > 1,
		HasNext:     page < totalPages,
	}
}

// RegionGroup is a display grouping of one page's items.
type RegionGroup struct {
	Region    string            `json:"region"`
	Instances []models.Instance `json:"instances"`
}

// GroupByRegion buckets items by region in first-seen order. Presentation
// concern layered over the flat page, not part of pagination itself.
func GroupByRegion(items []models.Instance) []RegionGroup {
	var groups []RegionGroup
	index := make(map[string]int)
	for _, inst := range items {
		i, ok := index[inst.Region]
		if !ok {
			i = len(groups)
			index[inst.Region] = i
			groups = append(groups, RegionGroup{Region: inst.Region})
		}
		groups[i].Instances = append(groups[i].Instances, inst)
	}
	return groups
}
