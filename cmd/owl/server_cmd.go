package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// newServerStatusCommand queries a running owl-server.
func newServerStatusCommand() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Query a running owl-server",
	}
	cmd.PersistentFlags().StringVar(&baseURL, "server", envOr("OWL_SERVER_URL", "http://127.0.0.1:8080"), "Server URL (ex: http://127.0.0.1:8080)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP timeout")

	for _, name := range []string{"health", "version"} {
		endpoint := name
		cmd.AddCommand(&cobra.Command{
			Use:   endpoint,
			Short: fmt.Sprintf("Print the server %s", endpoint),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client := &http.Client{Timeout: timeout}
				return fetchJSON(cmd, client, strings.TrimRight(baseURL, "/")+"/api/v1/"+endpoint)
			},
		})
	}
	return cmd
}

func fetchJSON(cmd *cobra.Command, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var pretty bytes.Buffer
	if json.Indent(&pretty, b, "", "  ") == nil {
		fmt.Fprintln(out, pretty.String())
	} else {
		fmt.Fprintln(out, strings.TrimSpace(string(b)))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server answered %s", resp.Status)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
