package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// UserAgent is sent with every upstream request.
const UserAgent = "Mozilla/5.0 (compatible; stockscan/1.0)"

// maxBody caps how much of a response body is read.
const maxBody = 16 << 20

// GetJSON issues a GET request and decodes the JSON response into out.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
