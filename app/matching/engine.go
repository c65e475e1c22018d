package matching

import (
	"log/slog"

	"github.com/mvillarin/campus-lostfound/app/categories"
	"github.com/mvillarin/campus-lostfound/app/database"
	"github.com/mvillarin/campus-lostfound/app/notification"
)

// Diagnostic explains a single decision the search-triggered matcher made,
// so the client can surface why a notification did or did not fire. The list
// travels in a response header and never affects the response body.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Outcome string `json:"outcome"`
	LostID  string `json:"lost_id,omitempty"`
	FoundID string `json:"found_id,omitempty"`
	MatchID string `json:"match_id,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// SearchQuery carries a security-desk search and the context needed to link
// results back to the lost report that prompted it.
type SearchQuery struct {
	SourceItemID string
	ReporterID   string
	Query        string
	ItemName     string
	StudentID    string
}

// Engine pairs lost reports with found items. Matching runs inline on the
// request paths that can produce new information; there is no background
// worker. Failures inside the engine are logged and absorbed: a report or a
// search must succeed even when pairing cannot.
type Engine struct {
	items    *database.ItemRepository
	matches  *database.MatchRepository
	fanout   *notification.Fanout
	registry *categories.Registry
}

func NewEngine(items *database.ItemRepository, matches *database.MatchRepository, fanout *notification.Fanout, registry *categories.Registry) *Engine {
	return &Engine{items: items, matches: matches, fanout: fanout, registry: registry}
}

// MatchReport runs after a new report is stored. It pairs the report with
// the oldest opposite-type item in the same category that is still in
// custody, records a structured match, and notifies the lost side's
// reporter. Returns the counterpart, or nil when nothing paired.
func (e *Engine) MatchReport(item *database.Item) *database.Item {
	opposite := database.ItemTypeFound
	if item.Type == database.ItemTypeFound {
		opposite = database.ItemTypeLost
	}

	counterpart, err := e.items.OldestCandidate(opposite, item.Category, item.ID)
	if err != nil {
		slog.Error("Match candidate lookup failed", "item", item.ID, "error", err)
		return nil
	}
	if counterpart == nil {
		slog.Debug("No match candidate for report", "item", item.ID, "category", item.Category)
		return nil
	}

	lost, found := item, counterpart
	if item.Type == database.ItemTypeFound {
		lost, found = counterpart, item
	}

	e.ensureMatch(lost, found, ConfidenceStructured)

	return counterpart
}

// MatchSearch runs after a security-desk search. It gathers candidate lost
// reports for the searcher, pairs them against the found results, and falls
// back to a single best-effort pairing when nothing structured fires. The
// returned diagnostics describe every decision taken.
func (e *Engine) MatchSearch(q SearchQuery, found []database.Item) []Diagnostic {
	diags := []Diagnostic{}
	filter := NewFilter(q.Query, q.ItemName, q.StudentID)

	candidates := e.gatherCandidates(q, filter, &diags)
	if len(candidates) == 0 {
		diags = append(diags, Diagnostic{Stage: "candidates", Outcome: "none"})
		return diags
	}

	notified := false
	for fi := range found {
		f := &found[fi]
		if f.Type != database.ItemTypeFound {
			continue
		}
		for ci := range candidates {
			lost := &candidates[ci]
			if !pairs(e.registry, filter, lost, f) {
				continue
			}
			d := e.ensureMatch(lost, f, ConfidenceStructured)
			diags = append(diags, d)
			if d.Outcome == "notified" || d.Outcome == "already_notified" {
				notified = true
			}
		}
	}

	if !notified && len(found) > 0 {
		d := e.fallbackMatch(candidates, found)
		diags = append(diags, d)
	}

	return diags
}

// fallbackMatch fires when structured pairing produced nothing: it pairs the
// highest-priority candidate with the earliest-created found result at the
// fallback confidence, so repeated searches always pick the same pair.
func (e *Engine) fallbackMatch(candidates, found []database.Item) Diagnostic {
	lost := &candidates[0]
	earliest := &found[0]
	for i := range found {
		if found[i].CreatedAt.Before(earliest.CreatedAt) {
			earliest = &found[i]
		}
	}
	if lost.ID == earliest.ID {
		return Diagnostic{Stage: "fallback", Outcome: "skipped", Detail: "candidate is the found item itself"}
	}

	d := e.ensureMatch(lost, earliest, ConfidenceFallback)
	d.Stage = "fallback"
	return d
}

// gatherCandidates builds the ordered lost-report candidate list. Priority:
// the explicit source item hint, then the searcher's own lost reports, then
// lost reports matching the searched name, then lost reports matching the
// searched student ID. Later stages only run while the list is still empty.
func (e *Engine) gatherCandidates(q SearchQuery, filter Filter, diags *[]Diagnostic) []database.Item {
	var candidates []database.Item
	seen := map[string]bool{}

	add := func(items ...database.Item) {
		for _, it := range items {
			if it.ID == "" || seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			candidates = append(candidates, it)
		}
	}

	if q.SourceItemID != "" {
		src, err := e.items.GetItem(q.SourceItemID)
		if err != nil {
			slog.Error("Source item lookup failed", "item", q.SourceItemID, "error", err)
		} else if src != nil {
			add(*src)
		} else if q.ReporterID != "" {
			// The hinted report may already be deleted; keep a bare hint so
			// the reporter can still be notified.
			add(database.Item{ID: q.SourceItemID, Type: database.ItemTypeLost, ReporterID: q.ReporterID})
			*diags = append(*diags, Diagnostic{Stage: "candidates", Outcome: "source_item_missing", LostID: q.SourceItemID})
		}
	}

	if q.ReporterID != "" {
		own, err := e.items.LostItemsByReporter(q.ReporterID)
		if err != nil {
			slog.Error("Reporter lost items lookup failed", "reporter", q.ReporterID, "error", err)
		} else {
			add(own...)
		}
	}

	if len(candidates) == 0 && len(filter.Name) >= 2 {
		byName, err := e.items.LostItemsByName(filter.Name)
		if err != nil {
			slog.Error("Lost items by name lookup failed", "name", filter.Name, "error", err)
		} else if len(byName) == 0 {
			*diags = append(*diags, Diagnostic{Stage: "candidates", Outcome: "name_fallback_empty", Detail: filter.Name})
		} else {
			add(byName...)
		}
	}

	if len(candidates) == 0 && len(filter.StudentID) >= 2 {
		byStudent, err := e.items.LostItemsByStudentID(filter.StudentID, compactDigits(filter.StudentID))
		if err != nil {
			slog.Error("Lost items by student ID lookup failed", "error", err)
		} else {
			add(byStudent...)
		}
	}

	return candidates
}

// matchCategory picks the category recorded on a stored match notification:
// the lost report's own category, or the found item's when the report has
// none. The "id"/"general" split is synthesized only for virtual rows.
func matchCategory(lost, found *database.Item) string {
	if lost.Category != "" {
		return lost.Category
	}
	return found.Category
}

// ensureMatch records the match and the lost reporter's notification, both
// idempotently. An existing match is reused without touching its confidence,
// and a reporter is never notified twice for the same match.
func (e *Engine) ensureMatch(lost, found *database.Item, confidence float64) Diagnostic {
	d := Diagnostic{Stage: "pair", LostID: lost.ID, FoundID: found.ID}

	// A bare hint stands in for a report that no longer exists, so no match
	// row can reference it. Notify the reporter directly instead.
	if lost.CreatedAt.IsZero() {
		if lost.ReporterID == "" {
			d.Outcome = "no_recipient"
			return d
		}
		if _, err := e.fanout.Notify(lost.ReporterID, found.ID, "", matchCategory(lost, found), database.NotificationMatchFound); err != nil {
			slog.Error("Notification fanout failed", "user", lost.ReporterID, "error", err)
			d.Outcome = "error"
			d.Detail = "notification failed"
			return d
		}
		d.Outcome = "notified"
		d.Detail = "source report missing, notified without match"
		return d
	}

	m, err := e.matches.FindExisting(lost.ID, found.ID)
	if err != nil {
		slog.Error("Match lookup failed", "lost", lost.ID, "found", found.ID, "error", err)
		d.Outcome = "error"
		d.Detail = "match lookup failed"
		return d
	}
	if m == nil {
		m, err = e.matches.Create(lost.ID, found.ID, confidence)
		if err != nil {
			slog.Error("Match insert failed", "lost", lost.ID, "found", found.ID, "error", err)
			d.Outcome = "error"
			d.Detail = "match insert failed"
			return d
		}
		slog.Info("Match recorded", "match", m.ID, "lost", lost.ID, "found", found.ID, "confidence", confidence)
	}
	d.MatchID = m.ID

	if lost.ReporterID == "" {
		d.Outcome = "no_recipient"
		return d
	}

	created, err := e.fanout.Notify(lost.ReporterID, lost.ID, m.ID, matchCategory(lost, found), database.NotificationMatchFound)
	if err != nil {
		slog.Error("Notification fanout failed", "match", m.ID, "user", lost.ReporterID, "error", err)
		d.Outcome = "error"
		d.Detail = "notification failed"
		return d
	}
	if created {
		d.Outcome = "notified"
	} else {
		d.Outcome = "already_notified"
	}
	return d
}
