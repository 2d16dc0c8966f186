package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/sentai/internal/models"
	"github.com/valkey-io/valkey-go"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
)

type ValkeyClient struct {
	Client valkey.Client
	opts   valkey.ClientOption
	mu     sync.Mutex
}

const VALKEY_RUNS_KEY = "sentai:completed_runs"

func valkeyOptions(addr, password string, useTLS bool) valkey.ClientOption {
	opts := valkey.ClientOption{
		InitAddress: []string{
			addr,
		},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if useTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}
	return opts
}

func connectValkey(opts valkey.ClientOption) (valkey.Client, error) {
	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return client, nil
}

// InitValkey connects once per process. Later calls return the first
// client regardless of arguments.
func InitValkey(addr, password string, useTLS bool) (*ValkeyClient, error) {
	var initErr error
	valkeyOnce.Do(func() {
		opts := valkeyOptions(addr, password, useTLS)
		client, err := connectValkey(opts)
		if err != nil {
			initErr = err
			return
		}

		slog.Info("[ValkeyClient] Successfully connected to valkey")
		valkeyInstance = &ValkeyClient{Client: client, opts: opts}
	})
	if initErr != nil {
		return nil, initErr
	}
	if valkeyInstance == nil {
		return nil, fmt.Errorf("[ValkeyClient] Valkey client is not initialized")
	}
	return valkeyInstance, nil
}

func (vc *ValkeyClient) client() valkey.Client {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.Client
}

func (vc *ValkeyClient) recreateClient() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if len(vc.opts.InitAddress) == 0 {
		return
	}

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := connectValkey(vc.opts)
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}

	vc.Client.Close()
	vc.Client = client
	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.client().Close()
	}
}

// GetScores reads a cached score vector. A miss is (zero, false, nil).
func (vc *ValkeyClient) GetScores(ctx context.Context, key string) (models.ScoreVector, bool, error) {
	var scores models.ScoreVector

	res := vc.DoWithRetry(ctx, func(b valkey.Builder) valkey.Completed {
		return b.Get().Key(key).Build()
	}, 3)
	raw, err := res.ToString()
	if valkey.IsValkeyNil(err) {
		return scores, false, nil
	}
	if err != nil {
		if isConnectionError(err) {
			vc.recreateClient()
		}
		return scores, false, fmt.Errorf("[ValkeyClient] get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return scores, false, fmt.Errorf("[ValkeyClient] decode %s: %w", key, err)
	}
	return scores, true, nil
}

func (vc *ValkeyClient) SetScores(ctx context.Context, key string, scores models.ScoreVector, ttl time.Duration) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}

	res := vc.DoWithRetry(ctx, func(b valkey.Builder) valkey.Completed {
		return b.Set().Key(key).Value(string(data)).ExSeconds(max(int64(ttl.Seconds()), 1)).Build()
	}, 3)
	if err := res.Error(); err != nil {
		if isConnectionError(err) {
			vc.recreateClient()
		}
		return fmt.Errorf("[ValkeyClient] set %s: %w", key, err)
	}
	return nil
}

// MarkRunCompleted records a finished run id for a day so redelivered
// comment batches can be skipped.
func (vc *ValkeyClient) MarkRunCompleted(ctx context.Context, runID string) error {
	responses := vc.DoMultiWithRetry(ctx, func(b valkey.Builder) []valkey.Completed {
		return []valkey.Completed{
			b.Sadd().Key(VALKEY_RUNS_KEY).Member(runID).Build(),
			b.Expire().Key(VALKEY_RUNS_KEY).Seconds(86400).Build(),
		}
	}, 3)
	for _, res := range responses {
		if err := res.Error(); err != nil {
			return err
		}
	}

	slog.Debug("[ValkeyClient] Marked run completed", slog.String("run_id", runID))
	return nil
}

func (vc *ValkeyClient) IsRunCompleted(ctx context.Context, runID string) bool {
	res := vc.DoWithRetry(ctx, func(b valkey.Builder) valkey.Completed {
		return b.Sismember().Key(VALKEY_RUNS_KEY).Member(runID).Build()
	}, 3)

	if err := res.Error(); isConnectionError(err) {
		vc.recreateClient()
	}

	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

// DoMultiWithRetry builds the commands again for every attempt; a Completed
// is recycled by the client once it has been sent.
func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, build func(valkey.Builder) []valkey.Completed, retries int) []valkey.ValkeyResult {
	return retryValkey(ctx, retries, "Do Multi", func() ([]valkey.ValkeyResult, error) {
		c := vc.client()
		results := c.DoMulti(ctx, build(c.B())...)
		for _, r := range results {
			if err := r.Error(); err != nil {
				if isConnectionError(err) {
					vc.recreateClient()
				}
				return results, err
			}
		}
		return results, nil
	})
}

// DoWithRetry retries transport failures, building the command again for
// every attempt. A nil reply is an answer, not a failure, and returns
// immediately.
func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func(valkey.Builder) valkey.Completed, retries int) valkey.ValkeyResult {
	return retryValkey(ctx, retries, "Do", func() (valkey.ValkeyResult, error) {
		c := vc.client()
		result := c.Do(ctx, build(c.B()))
		if err := result.Error(); err != nil && !valkey.IsValkeyNil(err) {
			return result, err
		}
		return result, nil
	})
}

const retryPause = 250 * time.Millisecond

// retryValkey runs attempt up to retries times and returns the last result.
func retryValkey[T any](ctx context.Context, retries int, op string, attempt func() (T, error)) T {
	var result T
	for i := 0; i < retries; i++ {
		var err error
		result, err = attempt()
		if err == nil {
			break
		}

		slog.Warn("[ValkeyClient] "+op+" failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		if i == retries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return result
		case <-time.After(retryPause):
		}
	}
	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
