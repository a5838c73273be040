package adminapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
)

// maxArgDepth bounds how deep argument values are rendered in call logs.
const maxArgDepth = 5

// maxRawArgBytes truncates raw JSON arguments in call logs.
const maxRawArgBytes = 512

// argDumper renders call arguments on one line. A pointer already being
// printed renders as <shown>. Other self-referential values, such as a map
// holding itself, are only bounded by depth and render as <max> past
// maxArgDepth. Methods are never invoked so a faulty String() cannot break
// logging.
var argDumper = spew.ConfigState{
	MaxDepth:                maxArgDepth,
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// redactedJSON replaces write-only fields in raw documents.
var redactedJSON = json.RawMessage(`"` + redactedValue + `"`)

// callArgs renders lazily: handlers that drop the record never pay for it.
type callArgs struct {
	args      []any
	writeOnly []string
}

func (a callArgs) LogValue() slog.Value {
	return slog.StringValue(renderArgs(a.args, a.writeOnly...))
}

// renderArgs produces the log representation of a call's arguments. Raw
// JSON documents have the writeOnly fields masked.
func renderArgs(args []any, writeOnly ...string) string {
	parts := make([]string, 0, len(args))

	for _, arg := range args {
		if r, ok := arg.(redactor); ok {
			arg = r.redacted()
		}

		switch v := arg.(type) {
		case json.RawMessage:
			parts = append(parts, truncate(maskRaw(v, writeOnly), maxRawArgBytes))
		case url.Values:
			parts = append(parts, v.Encode())
		default:
			parts = append(parts, argDumper.Sprintf("%+v", v))
		}
	}

	return strings.Join(parts, ", ")
}

// maskRaw returns raw with the named top-level fields replaced. A document
// that is not a JSON object cannot be inspected, so with fields to mask it
// is replaced entirely.
func maskRaw(raw json.RawMessage, fields []string) string {
	if len(fields) == 0 {
		return string(raw)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return redactedValue
	}

	for _, field := range fields {
		if _, ok := doc[field]; ok {
			doc[field] = redactedJSON
		}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return redactedValue
	}

	return string(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}

// observed decorates a Resource with a structured log record around every
// call. Results and errors pass through untouched.
type observed[T any] struct {
	inner  Resource[T]
	kind   Kind
	logger *slog.Logger
}

// begin logs the call and returns a function that logs its outcome.
func (o *observed[T]) begin(ctx context.Context, op string, args ...any) func(error) {
	callID := uuid.NewString()
	start := time.Now()

	o.logger.LogAttrs(ctx, slog.LevelInfo, "admin api call",
		slog.String("resource", string(o.kind)),
		slog.String("operation", op),
		slog.String("call_id", callID),
		slog.Any("args", callArgs{args: args, writeOnly: catalog[o.kind].writeOnly}),
	)

	return func(err error) {
		if err != nil {
			o.logger.LogAttrs(ctx, slog.LevelError, "admin api call failed",
				slog.String("resource", string(o.kind)),
				slog.String("operation", op),
				slog.String("call_id", callID),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("error", err.Error()),
			)

			return
		}

		o.logger.LogAttrs(ctx, slog.LevelDebug, "admin api call completed",
			slog.String("resource", string(o.kind)),
			slog.String("operation", op),
			slog.String("call_id", callID),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}

func (o *observed[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	done := o.begin(ctx, "List", query)
	items, err := o.inner.List(ctx, query)
	done(err)

	return items, err
}

func (o *observed[T]) Get(ctx context.Context, id string) (*T, error) {
	done := o.begin(ctx, "Get", id)
	item, err := o.inner.Get(ctx, id)
	done(err)

	return item, err
}

func (o *observed[T]) Create(ctx context.Context, item T) (*T, error) {
	done := o.begin(ctx, "Create", item)
	created, err := o.inner.Create(ctx, item)
	done(err)

	return created, err
}

func (o *observed[T]) Update(ctx context.Context, id string, item T) error {
	done := o.begin(ctx, "Update", id, item)
	err := o.inner.Update(ctx, id, item)
	done(err)

	return err
}

func (o *observed[T]) Delete(ctx context.Context, id string) error {
	done := o.begin(ctx, "Delete", id)
	err := o.inner.Delete(ctx, id)
	done(err)

	return err
}
