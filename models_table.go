package main

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"
	"time"

	"keymate/modelid"
	"keymate/provider"
)

const (
	apiStatusValid     = "Valid"
	apiStatusInvalid   = "Invalid"
	apiStatusNotTested = "Not Tested"

	selectedModelMaxLen = 20
)

// ModelRow is one line of the models table
type ModelRow struct {
	Provider      string       `json:"provider"`
	ModelID       string       `json:"model_id"`
	Type          modelid.Type `json:"type"`
	ContextLength int          `json:"context_length"`
	Created       int64        `json:"created"`
	Status        string       `json:"status"`
}

// TableQuery holds the filter and sort parameters of GET /api/models
type TableQuery struct {
	Search     string `form:"search"`
	Provider   string `form:"provider"`
	Type       string `form:"type"`
	MinContext int    `form:"min_context" binding:"min=0"`
	Sort       string `form:"sort" binding:"omitempty,oneof=name type context created"`
	Order      string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// DashboardMetrics are the four headline values of the dashboard
type DashboardMetrics struct {
	TotalModels   int    `json:"total_models"`
	ProviderBadge string `json:"provider_badge"`
	APIStatus     string `json:"api_status"`
	SelectedModel string `json:"selected_model"`
}

// normalizeModels turns provider models into table rows. Missing context
// lengths are filled from the offline reference cards.
func normalizeModels(providerID string, models []provider.Model) []ModelRow {
	rows := make([]ModelRow, 0, len(models))
	for _, m := range models {
		row := ModelRow{
			Provider:      providerID,
			ModelID:       m.ID,
			Type:          modelid.Classify(m.ID),
			ContextLength: m.InputTokenLimit,
			Created:       m.Created,
			Status:        "Available",
		}
		if row.ContextLength == 0 {
			if card := modelid.Reference(m.ID); card != nil {
				row.ContextLength = card.ContextLength
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// applyTableQuery filters and sorts rows. Rows with an unknown sort value
// always go last, whatever the order.
func applyTableQuery(rows []ModelRow, q TableQuery) []ModelRow {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]ModelRow, 0, len(rows))
	for _, r := range rows {
		if search != "" && !strings.Contains(strings.ToLower(r.ModelID), search) {
			continue
		}
		if !isAll(q.Provider) && !strings.EqualFold(r.Provider, q.Provider) {
			continue
		}
		if !isAll(q.Type) && !strings.EqualFold(string(r.Type), q.Type) {
			continue
		}
		if q.MinContext > 0 && r.ContextLength < q.MinContext {
			continue
		}
		out = append(out, r)
	}

	if q.Sort == "" {
		return out
	}
	desc := q.Order == "desc"
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.Sort {
		case "context":
			return lessKnownLast(a.ContextLength == 0, b.ContextLength == 0, desc, a.ContextLength < b.ContextLength, a.ContextLength > b.ContextLength)
		case "created":
			return lessKnownLast(a.Created == 0, b.Created == 0, desc, a.Created < b.Created, a.Created > b.Created)
		case "type":
			unknownA, unknownB := a.Type == modelid.TypeUnknown, b.Type == modelid.TypeUnknown
			return lessKnownLast(unknownA, unknownB, desc, a.Type < b.Type, a.Type > b.Type)
		default:
			an, bn := strings.ToLower(a.ModelID), strings.ToLower(b.ModelID)
			return lessKnownLast(false, false, desc, an < bn, an > bn)
		}
	})
	return out
}

func lessKnownLast(unknownA, unknownB, desc, less, greater bool) bool {
	switch {
	case unknownA:
		return false
	case unknownB:
		return true
	case desc:
		return greater
	default:
		return less
	}
}

func formatCreated(created int64) string {
	if created == 0 {
		return ""
	}
	return time.Unix(created, 0).UTC().Format(time.DateOnly)
}

// exportCSV renders rows with a header line
func exportCSV(rows []ModelRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"provider", "model_id", "type", "context_length", "created", "status"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		contextLength := ""
		if r.ContextLength > 0 {
			contextLength = strconv.Itoa(r.ContextLength)
		}
		record := []string{r.Provider, r.ModelID, string(r.Type), contextLength, formatCreated(r.Created), r.Status}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func truncateModel(id string) string {
	r := []rune(id)
	if len(r) <= selectedModelMaxLen {
		return id
	}
	return string(r[:selectedModelMaxLen]) + "..."
}

// dashboardMetrics summarises a session for the header cards
func dashboardMetrics(v SessionView) DashboardMetrics {
	m := DashboardMetrics{
		TotalModels:   v.ModelCount,
		ProviderBadge: provider.Badge(v.Provider),
		APIStatus:     apiStatusNotTested,
		SelectedModel: "None",
	}
	if v.Valid != nil {
		if *v.Valid {
			m.APIStatus = apiStatusValid
		} else {
			m.APIStatus = apiStatusInvalid
		}
	}
	if v.SelectedModel != "" {
		m.SelectedModel = truncateModel(v.SelectedModel)
	}
	return m
}
