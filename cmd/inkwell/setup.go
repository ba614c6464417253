package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/inkwellhq/inkwell/internal/batch"
	"github.com/inkwellhq/inkwell/internal/config"
	"github.com/inkwellhq/inkwell/internal/runctx"
	"github.com/inkwellhq/inkwell/internal/trp"
)

// startSession does the shared setup of every batch command: load and
// watch the config, prompt for credentials, log in, open the run log
// and attach everything to the context. The caller must Close the
// returned Run.
func startSession(ctx context.Context, name string) (context.Context, *batch.Run, error) {
	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	cm.WatchConfig()
	cfg := cm.Get()

	client := trp.New(trp.Config{
		BaseURL:          cfg.Platform.BaseURL,
		Timeout:          cfg.Platform.Timeout(),
		PollInterval:     cfg.Platform.PollInterval(),
		PollTimeout:      cfg.Platform.PollTimeout(),
		DownloadAttempts: uint(cfg.Platform.DownloadAttempts),
		DownloadDelay:    cfg.Platform.DownloadDelay(),
	})

	user, password, err := credentials()
	if err != nil {
		return nil, nil, err
	}
	if err := client.Login(ctx, user, password); err != nil {
		return nil, nil, err
	}

	run, err := batch.StartRun(name, outputDir)
	if err != nil {
		return nil, nil, err
	}
	run.Logger.Info("logged in", "user", user, "base_url", cfg.Platform.BaseURL)

	ctx = runctx.WithServices(ctx, &runctx.Services{
		Client: client,
		Logger: run.Logger,
		Config: cm,
		RunID:  run.ID,
	})
	return ctx, run, nil
}

// credentials returns the account name and password, prompting for
// whatever the flags did not provide. The password is always prompted
// and read without echo so it never lands in shell history.
func credentials() (string, string, error) {
	user := username
	if user == "" {
		fmt.Print("User: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read user name: %w", err)
		}
		user = strings.TrimSpace(line)
	}
	if user == "" {
		return "", "", fmt.Errorf("no user name given")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return user, string(password), nil
}
