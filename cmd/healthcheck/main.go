// Command healthcheck probes the local server's /health endpoint and exits
// non-zero unless it reports status "ok". It is meant for container
// HEALTHCHECK directives in images without curl.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	httphandler "github.com/ericfisherdev/whisperedthoughts/internal/adapter/driving/http"
	"github.com/ericfisherdev/whisperedthoughts/internal/config"
)

const probeTimeout = 2 * time.Second

func main() {
	srv, err := config.LoadServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	client := &http.Client{Timeout: probeTimeout}
	if err := probe(ctx, client, "http://"+srv.ProbeAddr()+"/health"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// probe fetches url and checks the health envelope it returns.
func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned status %d", resp.StatusCode)
	}

	var health httphandler.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health: %w", err)
	}
	if health.Status != "ok" {
		return errors.New("health reported " + health.Status)
	}

	return nil
}
