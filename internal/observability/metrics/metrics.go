package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/beranamag/berana/internal/observability/errors"
	"github.com/beranamag/berana/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// RequestMetric captures one served HTTP request for metric emission.
type RequestMetric struct {
	Method   string
	Route    string
	Status   int
	Duration time.Duration
}

// EmitRequest emits standardised per-request metrics. The route tag is the
// mux pattern that matched, never the raw path, so tag cardinality stays
// bounded.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	route := in.Route
	if route == "" {
		route = "unmatched"
	}
	tags := map[string]string{
		"method": in.Method,
		"route":  route,
		"status": strconv.Itoa(in.Status),
	}

	sink.Count("http.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("http.request_duration", in.Duration, CloneTags(tags))
	}
}

// BroadcastMetric captures one newsletter broadcast run.
type BroadcastMetric struct {
	Result     string
	Recipients int
	Duration   time.Duration
	Err        error
}

// EmitBroadcast emits newsletter fan-out metrics.
func EmitBroadcast(sink statsd.Sink, in BroadcastMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"result": in.Result}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("newsletter.broadcast", 1, tags)
	if in.Recipients > 0 {
		sink.Gauge("newsletter.broadcast_recipients", float64(in.Recipients), CloneTags(tags))
	}
	if in.Duration > 0 {
		sink.Timing("newsletter.broadcast_duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
