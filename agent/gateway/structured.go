package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	metricsx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/metrics"
)

// DecodeJSON parses a model answer into T. If the first parse fails the
// answer is sent to repairer once and the repaired text is parsed again.
// Any remaining failure wraps ErrSchemaViolation.
func DecodeJSON[T any](ctx context.Context, raw string, repairer contractx.Repairer) (T, error) {
	out, err := parseObject[T](ctx, raw)
	if err == nil {
		return out, nil
	}
	if repairer == nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}

	log.Debug().Err(err).Msg("model answer is not valid json, attempting repair")
	repaired, rerr := repairer.Repair(ctx, raw)
	if rerr != nil {
		metricsx.RepairTotal.WithLabelValues("failed").Inc()
		return out, fmt.Errorf("%w: repair: %v", contractx.ErrSchemaViolation, rerr)
	}

	out, err = parseObject[T](ctx, repaired)
	if err != nil {
		metricsx.RepairTotal.WithLabelValues("failed").Inc()
		return out, fmt.Errorf("%w: after repair: %v", contractx.ErrSchemaViolation, err)
	}
	metricsx.RepairTotal.WithLabelValues("repaired").Inc()
	return out, nil
}

func parseObject[T any](ctx context.Context, raw string) (T, error) {
	var zero T
	obj := ExtractObject(raw)
	if obj == "" {
		return zero, fmt.Errorf("no json object in %q", truncate(raw, 80))
	}

	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})
	return parser.Parse(ctx, &schema.Message{Role: schema.Assistant, Content: obj})
}

// ExtractObject strips code fences and surrounding prose, returning the
// text from the first '{' to the last '}'.
func ExtractObject(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
