package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

// GetJSONWithRetry fetches and decodes a JSON document, retrying
// transport errors and non-2xx responses with exponential backoff plus
// jitter.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, url string, hdr http.Header, dst any) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		for k, vs := range hdr {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		resp, err := c.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return json.NewDecoder(resp.Body).Decode(dst)
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = errors.New(resp.Status)
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return lastErr
		}
		sleep := time.Duration((1<<i)*100) * time.Millisecond
		sleep += time.Duration(rand.Intn(150)) * time.Millisecond
		time.Sleep(sleep)
	}
	return lastErr
}
