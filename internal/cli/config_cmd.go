// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration inspection, reset and live watching.
//
// Command: config [show|path|reset|watch]
package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/llmgate/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "path":
		return handleConfigPath(args)
	case "reset":
		return handleConfigReset(args)
	case "watch":
		return handleConfigWatch(args)
	default:
		return handleConfigShow(args)
	}
}

func handleConfigShow(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Never print credentials.
	redacted := *cfg
	redacted.Cloud.APIKey = redactSecret(cfg.Cloud.APIKey)
	redacted.Security.ModerationKey = redactSecret(cfg.Security.ModerationKey)

	if args.JSON {
		return NewJSONResponse("config", redacted).Print()
	}

	fmt.Println()
	fmt.Println(RenderConditional(TitleStyle, "Effective Configuration"))
	if err := toml.NewEncoder(os.Stdout).Encode(redacted); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Println()
	return nil
}

func handleConfigPath(args Args) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config", map[string]string{"path": path}).Print()
	}
	fmt.Println(path)
	return nil
}

func handleConfigReset(args Args) error {
	if args.ConfigVal != "confirm" {
		return errors.New("config reset requires --confirm")
	}
	if err := config.Save(config.Default()); err != nil {
		return err
	}
	path, _ := config.Path()
	if args.JSON {
		return NewJSONResponse("config", map[string]string{
			"path":   path,
			"action": "reset",
		}).Print()
	}
	fmt.Printf("%s configuration reset to defaults (%s)\n", RenderStatus("ok"), path)
	return nil
}

// handleConfigWatch tails the config file and reports each reload until
// interrupted. Useful while tuning limits on a live deployment.
func handleConfigWatch(args Args) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	w, err := config.NewWatcher(path, func(cfg *config.Config) {
		if args.JSON {
			resp := NewJSONResponse("config", map[string]any{
				"action":      "reload",
				"daily_limit": cfg.Budget.DailyLimit,
				"model":       cfg.Cloud.DefaultModel,
				"cache_ttl":   cfg.Cache.TTLSeconds,
			})
			resp.Print()
			return
		}
		fmt.Printf("%s reloaded: daily limit $%.2f, model %s, cache TTL %ds\n",
			RenderStatus("ok"), cfg.Budget.DailyLimit, cfg.Cloud.DefaultModel,
			cfg.Cache.TTLSeconds)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		return err
	}

	if !args.JSON {
		fmt.Printf("watching %s (ctrl-c to stop)\n", path)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

func redactSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-2:]
}
