package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"notevault/infrastructure/config"
	"notevault/infrastructure/di"

	"go.uber.org/zap"
)

// Maintenance tool: audits the vault and optionally repairs what it finds.
// Exits non-zero when the audit reports high or critical issues, so it can
// gate deploys and scheduled health checks.
func main() {
	check := flag.Bool("check", false, "run the integrity audit and print the report")
	repair := flag.Bool("repair", false, "repair detected issues after the audit")
	asJSON := flag.Bool("json", false, "print machine-readable output")
	flag.Parse()

	if !*check && !*repair {
		*check = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	report := container.Auditor.Audit(ctx)
	if *asJSON {
		printJSON(report)
	} else {
		fmt.Printf("Audit at %s: %d issue(s), healthy=%t\n",
			report.CheckedAt.Format(time.RFC3339), len(report.Issues), report.IsHealthy())
		for _, issue := range report.Issues {
			fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Type, issue.Description)
		}
	}

	if *repair {
		result := container.Repairer.Repair(ctx)
		if *asJSON {
			printJSON(result)
		} else {
			fmt.Printf("repaired %d issue(s)\n", result.Repaired)
			for _, action := range result.Actions {
				fmt.Printf("  %s\n", action)
			}
			for _, failure := range result.Errors {
				fmt.Printf("repair error: %s\n", failure)
			}
		}
		if len(result.Errors) > 0 {
			os.Exit(1)
		}

		// Re-audit so the exit code reflects the state after repair
		report = container.Auditor.Audit(ctx)
	}

	if !report.IsHealthy() {
		container.Logger.Warn("Vault is unhealthy", zap.Int("issues", len(report.Issues)))
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
