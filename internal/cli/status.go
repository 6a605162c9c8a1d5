package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/calder/toolsmith/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a toolsmith server is running",
	Long:  `Probes the health endpoint of the configured server and prints the result.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/healthz", cfg.Server.Host, cfg.Server.Port)
	client := &http.Client{Timeout: 3 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("toolsmith is not running (%s unreachable)\n", url)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("toolsmith responded with status %d\n", resp.StatusCode)
		return nil
	}

	var health struct {
		Status            string `json:"status"`
		ActiveConnections int    `json:"active_connections"`
		RegisteredTools   int    `json:"registered_tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode health response: %w", err)
	}

	fmt.Printf("toolsmith is running\n")
	fmt.Printf("  Address:     %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Status:      %s\n", health.Status)
	fmt.Printf("  Tools:       %d\n", health.RegisteredTools)
	fmt.Printf("  Connections: %d\n", health.ActiveConnections)
	return nil
}
