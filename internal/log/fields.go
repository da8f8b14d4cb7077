package log

import "sort"

// Field names.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientID   = "client_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldKind       = "kind"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldRecords    = "records"
	FieldSeq        = "seq"
	FieldState      = "state"
	FieldStale      = "stale"
	FieldBackend    = "backend"
)

// Components.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentReport  = "report"
	ComponentFilter  = "filter"
	ComponentSource  = "source"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
	ComponentCache   = "cache"
)

// Operations.
const (
	OpFetch    = "fetch"
	OpFilter   = "filter"
	OpSnapshot = "snapshot"
	OpRefresh  = "refresh"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Error types.
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeNetwork    = "network_error"
	ErrorTypeAuth       = "auth_error"
	ErrorTypeStale      = "stale_error"
	ErrorTypeBusy       = "busy_error"
	ErrorTypeDatabase   = "database_error"
	ErrorTypeInternal   = "internal_error"
)

// Fields is a builder for structured log attributes.
type Fields map[string]any

func NewFields() Fields { return Fields{} }

func (f Fields) With(key string, value any) Fields {
	f[key] = value
	return f
}

func (f Fields) WithError(err error, errType string) Fields {
	if err != nil {
		f[FieldError] = err.Error()
		if errType != "" {
			f[FieldErrorType] = errType
		}
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithKind(kind string) Fields {
	f[FieldKind] = kind
	return f
}

// Args flattens the fields into slog key/value pairs, sorted by key.
func (f Fields) Args() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
