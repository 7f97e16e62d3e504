package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// progressReportInterval paces the submission progress output.
const progressReportInterval = 1 * time.Second

// httpClient wraps http.Client with a timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{
		client: &http.Client{Timeout: timeout},
	}
}

// get performs a GET request.
func (c *httpClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// post performs a POST request with a JSON body.
func (c *httpClient) post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitResult is the per-utterance outcome tally.
type submitResult struct {
	accepted int
	rejected int
	failed   bool
}

// submitUtterances posts utterances concurrently using a worker pool.
func submitUtterances(ctx context.Context, config *Config, utterances []utterancePayload, stats *Stats) error {
	log.Printf("📤 Submitting %d utterances with %d workers...", len(utterances), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/utterances"

	var (
		submitted int64
		accepted  int64
		rejected  int64
		failed    int64
	)

	var lastReport time.Time

	utteranceChan := make(chan utterancePayload, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for u := range utteranceChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleUtterance(ctx, client, url, u)

					atomic.AddInt64(&submitted, 1)
					atomic.AddInt64(&accepted, int64(result.accepted))
					atomic.AddInt64(&rejected, int64(result.rejected))
					if result.failed {
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= progressReportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						rej := atomic.LoadInt64(&rejected)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (accepted: %d, rejected: %d, failed: %d)",
								total, len(utterances), acc, rej, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (accepted: %d, rejected: %d, failed: %d)",
								total, len(utterances), acc, rej, fail)
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(utteranceChan)
		for _, u := range utterances {
			select {
			case <-ctx.Done():
				return
			case utteranceChan <- u:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	stats.UtterancesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EventsAccepted = int(atomic.LoadInt64(&accepted))
	stats.CandidatesRejected = int(atomic.LoadInt64(&rejected))
	stats.SubmitFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Utterance submission completed:
   Events accepted: %d
   Candidates rejected: %d
   Requests failed: %d
`, stats.EventsAccepted, stats.CandidatesRejected, stats.SubmitFailed)

	return nil
}

// submitSingleUtterance posts one utterance and tallies the response.
func submitSingleUtterance(ctx context.Context, client *httpClient, url string, u utterancePayload) submitResult {
	resp, err := client.post(ctx, url, u)
	if err != nil {
		return submitResult{failed: true}
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return submitResult{failed: true}
	}

	if resp.StatusCode != http.StatusOK {
		return submitResult{failed: true}
	}

	var result resultResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return submitResult{failed: true}
	}
	return submitResult{accepted: len(result.Accepted), rejected: len(result.Rejected)}
}
