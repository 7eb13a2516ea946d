package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/accraft8/blimsey/internal/config"
	"github.com/accraft8/blimsey/internal/providers"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("blimsey doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	// Config
	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults + env)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	// Channels
	fmt.Println()
	fmt.Println("  Channels:")
	checkChannel("Telegram", cfg.Channels.Telegram.Enabled, cfg.Channels.Telegram.Token)
	checkChannel("Discord", cfg.Channels.Discord.Enabled, cfg.Channels.Discord.Token)

	// Ollama backend
	fmt.Println()
	fmt.Println("  Ollama:")
	fmt.Printf("    %-12s %s\n", "URL:", cfg.Model.OllamaURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider := providers.NewOllamaProvider(cfg.Model.OllamaURL, cfg.Model.Name)
	models, err := provider.ListModels(ctx)
	if err != nil {
		fmt.Printf("    %-12s UNREACHABLE (%s)\n", "Status:", err)
		return
	}
	fmt.Printf("    %-12s OK (%d models)\n", "Status:", len(models))

	if ok, hasErr := provider.HasModel(ctx, cfg.Model.Name); hasErr == nil && ok {
		fmt.Printf("    %-12s %s (available)\n", "Model:", cfg.Model.Name)
	} else {
		fmt.Printf("    %-12s %s (NOT PULLED — run: ollama pull %s)\n", "Model:", cfg.Model.Name, cfg.Model.Name)
	}
	if cfg.Memory.Enabled {
		if ok, hasErr := provider.HasModel(ctx, cfg.Memory.EmbedModel); hasErr == nil && ok {
			fmt.Printf("    %-12s %s (available)\n", "Embeddings:", cfg.Memory.EmbedModel)
		} else {
			fmt.Printf("    %-12s %s (NOT PULLED — run: ollama pull %s)\n", "Embeddings:", cfg.Memory.EmbedModel, cfg.Memory.EmbedModel)
		}
	}

	// Data directory
	fmt.Println()
	fmt.Println("  Storage:")
	fmt.Printf("    %-12s %s\n", "Data dir:", cfg.DataDir)
	fmt.Printf("    %-12s %s\n", "Backend:", cfg.Store.Backend)
	if info, statErr := os.Stat(cfg.DataDir); statErr != nil {
		fmt.Printf("    %-12s will be created on first run\n", "Status:")
	} else if !info.IsDir() {
		fmt.Printf("    %-12s NOT A DIRECTORY\n", "Status:")
	} else {
		fmt.Printf("    %-12s OK\n", "Status:")
	}
}

func checkChannel(name string, enabled bool, token string) {
	switch {
	case !enabled:
		fmt.Printf("    %-12s disabled\n", name+":")
	case token == "":
		fmt.Printf("    %-12s enabled but NO TOKEN\n", name+":")
	default:
		fmt.Printf("    %-12s configured\n", name+":")
	}
}
