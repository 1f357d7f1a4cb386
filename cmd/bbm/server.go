package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ybyygu/vasp-tools/internal/chem"
	"github.com/ybyygu/vasp-tools/internal/config"
	"github.com/ybyygu/vasp-tools/internal/engine"
	"github.com/ybyygu/vasp-tools/internal/logger"
	"github.com/ybyygu/vasp-tools/internal/transport"
)

// incarPath is the engine's mandatory-parameter config deck, rewritten in
// the current directory before every run. VASP only ever reads the literal
// "INCAR" file next to where it starts.
const incarPath = "INCAR"

func serverCmd() *cobra.Command {
	var program string
	var sockPath string
	var interactive bool
	var singlePoint bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "spawn the engine and serve the control-plane socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if program == "" {
				return fmt.Errorf("bbm: -x <program> is required")
			}
			if interactive == singlePoint {
				return fmt.Errorf("bbm: exactly one of --interactive or --single-point is required")
			}
			if singlePoint {
				return runSinglePoint(program)
			}
			if !cmd.Flags().Changed("socket") {
				// The adapter directory's bbm.yaml may pin a socket path;
				// an explicit -u still wins.
				if cfg, err := config.Load("."); err == nil {
					sockPath = cfg.SockPath
				}
			}
			return runInteractiveServer(program, sockPath)
		},
	}
	cmd.Flags().StringVarP(&program, "program", "x", "", "command or path to the engine program")
	cmd.Flags().StringVarP(&sockPath, "socket", "u", "vasp.sock", "path to the control-plane socket to bind")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "run the engine interactively, serving the socket")
	cmd.Flags().BoolVar(&singlePoint, "single-point", false, "run the engine once for a single-point calculation")
	return cmd
}

// runSinglePoint rewrites the config deck for TaskSinglePoint and runs the
// engine to completion directly, never touching the socket at all.
func runSinglePoint(program string) error {
	if _, err := chem.RewriteForTask(incarPath, chem.TaskSinglePoint); err != nil {
		logger.Warn("server: rewrite INCAR for single-point failed", "error", err)
	}

	cmd := exec.Command(program)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("bbm: run %s: %w", program, err)
	}
	return nil
}

// runInteractiveServer rewrites the config deck for TaskInteractive, spawns
// the engine under supervision, and serves the control-plane socket until
// interrupted.
func runInteractiveServer(program, sockPath string) error {
	if _, err := chem.RewriteForTask(incarPath, chem.TaskInteractive); err != nil {
		logger.Warn("server: rewrite INCAR for interactive mode failed", "error", err)
	}

	pidfile, err := engine.OpenPidfile(sockPath + ".pid")
	if err != nil {
		return fmt.Errorf("bbm: %w", err)
	}
	defer pidfile.Close()

	watcher, err := config.WatchDir(".")
	if err != nil {
		logger.Warn("server: adapter config watch unavailable", "error", err)
	} else {
		defer watcher.Close()
	}

	sessionID := uuid.New().String()[:8]
	sess := engine.New(program)
	if err := sess.Spawn(); err != nil {
		return fmt.Errorf("bbm: spawn engine: %w", err)
	}
	logger.Info("server: engine spawned", "session", sessionID, "program", program)

	srv := transport.NewServer(sess, sockPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("bbm: %w", err)
	}

	if poisoned, poisonErr := sess.Poisoned(); poisoned {
		return fmt.Errorf("bbm: %w: %v", errPoisoned, poisonErr)
	}
	logger.Info("server: shut down on interrupt", "session", sessionID)
	return errInterrupted
}
