package log

// Attribute keys shared across packages.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldOperation  = "operation"
	FieldSession    = "session_state"
	FieldWalletID   = "carteira_id"
	FieldMonth      = "mes"
	FieldCount      = "count"
	FieldSheetsRef  = "sheets_ref"
)

const (
	ComponentApp     = "app"
	ComponentAPI     = "api"
	ComponentSession = "session"
	ComponentCache   = "cache"
	ComponentStore   = "store"
	ComponentStorage = "storage"
	ComponentSheets  = "sheets"
	ComponentCLI     = "cli"
)

const (
	OpFetch  = "fetch"
	OpReset  = "reset"
	OpLogin  = "login"
	OpLogout = "logout"
	OpExport = "export"
	OpLoad   = "load"
	OpSave   = "save"
)

// Fields accumulates key/value pairs in insertion order. Setting a key again
// overwrites its value in place.
type Fields struct {
	keys   []string
	values map[string]any
}

func NewFields() *Fields {
	return &Fields{values: map[string]any{}}
}

func (f *Fields) set(key string, value any) *Fields {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return f
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *Fields) Len() int { return len(f.keys) }

func (f *Fields) WithRequestID(id string) *Fields { return f.set(FieldRequestID, id) }

func (f *Fields) WithOperation(op string) *Fields { return f.set(FieldOperation, op) }

// WithError records err's message; a nil error is ignored.
func (f *Fields) WithError(err error) *Fields {
	if err == nil {
		return f
	}
	return f.set(FieldError, err.Error())
}

// WithHTTPRequest records an outbound call. An empty query is left out.
func (f *Fields) WithHTTPRequest(method, path, query string) *Fields {
	f.set(FieldMethod, method)
	f.set(FieldPath, path)
	if query != "" {
		f.set(FieldQuery, query)
	}
	return f
}

func (f *Fields) WithHTTPResponse(statusCode int, durationMs int64, success bool) *Fields {
	f.set(FieldStatusCode, statusCode)
	f.set(FieldDuration, durationMs)
	return f.set(FieldSuccess, success)
}

// ToSlice flattens the fields for slog, in insertion order. The component key
// is skipped since Logger adds its own.
func (f *Fields) ToSlice() []any {
	out := make([]any, 0, len(f.keys)*2)
	for _, k := range f.keys {
		if k == FieldComponent {
			continue
		}
		out = append(out, k, f.values[k])
	}
	return out
}
