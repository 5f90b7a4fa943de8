package processor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"

	engctx "github.com/blendle/automaat/internal/engine/context"
)

// RedisCommand executes a single command against a Redis server and returns
// its reply as text.
type RedisCommand struct {
	Command   string   `json:"command"`
	Arguments []string `json:"arguments,omitempty"`
	URL       string   `json:"url"`
}

// Error kind specific to RedisCommand.
const (
	KindRedis = "Redis"
)

func (p *RedisCommand) Name() string { return "Redis Command" }

// Validate checks that URL parses as a Redis connection string.
func (p *RedisCommand) Validate() error {
	if _, err := redis.ParseURL(p.URL); err != nil {
		return wrapError(KindURL, err, "url error: %s", err)
	}
	return nil
}

// Run sends Command with Arguments to the server. A nil reply becomes nil
// output; valid UTF-8 string replies are returned as-is and invalid UTF-8
// ones as a Go-syntax quoted string; integers are formatted in decimal,
// arrays as a bracketed, comma-separated list of their items, and any other
// reply with fmt's default %v formatting.
func (p *RedisCommand) Run(ctx context.Context, _ *engctx.Context) (*string, error) {
	opts, err := redis.ParseURL(p.URL)
	if err != nil {
		return nil, wrapError(KindURL, err, "url error: %s", err)
	}

	client := redis.NewClient(opts)
	defer client.Close()

	args := make([]interface{}, 0, len(p.Arguments)+1)
	args = append(args, p.Command)
	for _, a := range p.Arguments {
		args = append(args, a)
	}

	result, err := client.Do(ctx, args...).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, wrapError(KindRedis, err, "redis error: %s", err)
	}

	return textOrNil(stringifyReply(result)), nil
}

func stringifyReply(v interface{}) string {
	switch val := v.(type) {
	case string:
		if utf8.ValidString(val) {
			return val
		}
		return fmt.Sprintf("%q", val)
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return fmt.Sprintf("%q", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringifyReply(item)
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%v", val)
	}
}
