package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Probe configured key servers",
	Long: `Servers probes each configured key server's identity endpoint and
reports liveness, identity, and weight. The summed weight of healthy servers
must reach the configured threshold for decryption to work.`,
	Args: cobra.NoArgs,
	RunE: runServers,
}

func init() {
	rootCmd.AddCommand(serversCmd)
}

func runServers(_ *cobra.Command, _ []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	if len(cfg.KeyServers.Servers) == 0 {
		return fmt.Errorf("no key servers configured")
	}

	hc := &http.Client{Timeout: 10 * time.Second}
	healthy := 0
	for _, srv := range cfg.KeyServers.Servers {
		status := probeServer(hc, srv.URL, srv.ServerID)
		if status == "ok" {
			healthy += srv.Weight
		}
		fmt.Printf("%-24s weight=%-3d %s  %s\n", srv.ServerID, srv.Weight, srv.URL, status)
	}

	fmt.Printf("\nhealthy weight %d of threshold %d\n", healthy, cfg.KeyServers.Threshold)
	if healthy < cfg.KeyServers.Threshold {
		return fmt.Errorf("threshold unreachable: decryption would fail")
	}
	return nil
}

// probeServer checks one identity endpoint.
func probeServer(hc *http.Client, url, wantID string) string {
	resp, err := hc.Get(url + "/v1/service")
	if err != nil {
		return fmt.Sprintf("unreachable: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("unhealthy: status %d", resp.StatusCode)
	}

	var svc struct {
		ServerID string `json:"serverId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&svc); err != nil {
		return fmt.Sprintf("bad response: %v", err)
	}
	if svc.ServerID != wantID {
		return fmt.Sprintf("identity mismatch: reports %s", svc.ServerID)
	}
	return "ok"
}
