package state

// Origin tells consumers where a transaction came from.
type Origin uint8

const (
	// OriginUser is an ordinary edit.
	OriginUser Origin = iota
	// OriginUndo is produced by the history manager's undo.
	OriginUndo
	// OriginRedo is produced by the history manager's redo.
	OriginRedo
	// OriginReject reverts a tracked change.
	OriginReject
	// OriginRemote comes from an external source such as a collaborator.
	OriginRemote
)

// String returns a human-readable name for the origin.
func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginUndo:
		return "undo"
	case OriginRedo:
		return "redo"
	case OriginReject:
		return "reject"
	case OriginRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Meta keys with typed accessors on Transaction. SetMeta and GetMeta route
// them to the typed fields.
const (
	MetaAddToHistory     = "addToHistory"
	MetaTrackChangesUser = "trackChangesUser"
)

// meta is the typed extension record carried by a transaction.
type meta struct {
	addToHistory     *bool
	trackChangesUser string
	origin           Origin
	values           map[string]any
}

func (m *meta) set(key string, value any) {
	switch key {
	case MetaAddToHistory:
		if b, ok := value.(bool); ok {
			m.addToHistory = &b
			return
		}
	case MetaTrackChangesUser:
		if s, ok := value.(string); ok {
			m.trackChangesUser = s
			return
		}
	}
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[key] = value
}

func (m *meta) get(key string) (any, bool) {
	switch key {
	case MetaAddToHistory:
		if m.addToHistory == nil {
			return nil, false
		}
		return *m.addToHistory, true
	case MetaTrackChangesUser:
		if m.trackChangesUser == "" {
			return nil, false
		}
		return m.trackChangesUser, true
	}
	v, ok := m.values[key]
	return v, ok
}
