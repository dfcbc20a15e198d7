package myratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/MarcGrol/adyencheckout/lib/mycontext"
	"github.com/MarcGrol/adyencheckout/lib/myerrors"
	"github.com/MarcGrol/adyencheckout/lib/myhttp"
	"github.com/MarcGrol/adyencheckout/lib/mylog"
)

const (
	keyPrefix       = "adyencheckout:ratelimit"
	tooManyRequests = "Too many requests"
)

type Limiter struct {
	limiter *limiter.Limiter
	logger  mylog.Logger
}

// New creates a limiter for a rate like "5-M" (five per minute). Counters are kept in redis when
// redisURL is given, so all instances share them, and in process memory otherwise.
func New(c context.Context, rate string, redisURL string) (*Limiter, func(), error) {
	parsedRate, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, func() {}, fmt.Errorf("error parsing rate %q: %s", rate, err)
	}

	if redisURL == "" {
		return &Limiter{
			limiter: limiter.New(memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: keyPrefix}), parsedRate),
			logger:  mylog.New("ratelimit"),
		}, func() {}, nil
	}

	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("error parsing redis url: %s", err)
	}
	client := redis.NewClient(options)
	cleanup := func() {
		client.Close()
	}

	err = redisotel.InstrumentTracing(client)
	if err != nil {
		return nil, cleanup, fmt.Errorf("error instrumenting redis client: %s", err)
	}

	err = client.Ping(c).Err()
	if err != nil {
		return nil, cleanup, fmt.Errorf("error connecting to redis at %s: %s", options.Addr, err)
	}

	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: keyPrefix})
	if err != nil {
		return nil, cleanup, fmt.Errorf("error creating redis limiter store: %s", err)
	}

	return &Limiter{
		limiter: limiter.New(store, parsedRate),
		logger:  mylog.New("ratelimit"),
	}, cleanup, nil
}

// Limit answers 429 once the caller identified by key exceeds the rate. A nil Limiter does not limit.
// When the counter store is unavailable the request is let through.
func (l *Limiter) Limit(key func(r *http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	if l == nil {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)

		k := key(r)
		status, err := l.limiter.Get(c, k)
		if err != nil {
			l.logger.Log(c, k, mylog.SeverityError, "Error checking rate limit for %s: %s", k, err)
			next(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(status.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(status.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(status.Reset, 10))

		if status.Reached {
			retryAfter := time.Until(time.Unix(status.Reset, 0)).Seconds()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(int(retryAfter)))
			myhttp.NewWriter(l.logger).WriteError(c, w, 1, myerrors.NewTooManyRequestsError(errors.New(tooManyRequests)))
			return
		}

		next(w, r)
	}
}
