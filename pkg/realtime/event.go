package realtime

// Action is the kind of change an event reports.
type Action string

const (
	ActionInsert Action = "insert"
	ActionDelete Action = "delete"
)

// Event is one change notification from the feed.
type Event struct {
	Record   map[string]any `json:"record"`
	Relation string         `json:"relation"`
	Action   Action         `json:"action"`
}

// Str returns a string field of the record, or "" when absent or not a string.
func (e Event) Str(field string) string {
	v, _ := e.Record[field].(string)
	return v
}

// Handler consumes events for one subscription.
type Handler func(Event)

// Filter optionally narrows a subscription to records whose column equals
// the given value. The zero Filter matches every record.
type Filter struct {
	Column string
	Value  string
}

// matches reports whether an event record passes the filter.
func (f Filter) matches(e Event) bool {
	if f.Column == "" {
		return true
	}
	return e.Str(f.Column) == f.Value
}

// Feed is the subscription surface features depend on.
type Feed interface {
	// Subscribe registers a handler for one relation. The returned
	// function cancels the subscription.
	Subscribe(relation string, filter Filter, h Handler) (cancel func())
}
