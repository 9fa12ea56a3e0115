// Command usersctl manages an in-memory set of users, with every command bound from a method of [Users].
//
// Run it with -i to keep the users between commands:
//
//	usersctl -i
//	usersctl> users:create-user -a alice
//	usersctl> $use users
//	usersctl users> ls
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/saylorsolutions/cmdbind/annotation"
	"github.com/saylorsolutions/cmdbind/binder"
	"github.com/saylorsolutions/cmdbind/cli"
	"github.com/saylorsolutions/cmdbind/config"
	"github.com/saylorsolutions/cmdbind/logging"
	"github.com/saylorsolutions/cmdbind/reflection"
)

const defaultNamespace = "users"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error loading configuration:", err)
		return cli.ExitError
	}
	logger, level, closer, err := logging.New(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error setting up logging:", err)
		return cli.ExitError
	}
	defer func() {
		_ = closer.Close()
	}()
	reg, err := newRegistry(cfg, logger, level, NewUsers())
	if err != nil {
		logger.Error("Failed to bind commands", "error", err)
		return cli.ExitError
	}
	reg.Printer().Redirect(stdout)
	reg.Printer().RedirectDiagnostics(stderr)
	cli.InteractiveFlag = cfg.InteractiveFlag

	interrupts := newInterrupter(logger, os.Interrupt, syscall.SIGTERM)
	defer interrupts.stop()
	reg.SetCommandContext(interrupts.commandContext)

	ctx := context.Background()
	if reg.RespondUsage(args) {
		return cli.ExitOK
	}
	if reg.RespondInteractive(ctx, args, stdin) {
		return cli.ExitOK
	}
	return reg.Run(ctx, args)
}

// newRegistry binds the methods of users into a registry, using the configured manifest in place of the type's own annotations if there is one.
func newRegistry(cfg config.Config, logger *slog.Logger, level *slog.LevelVar, users *Users) (*cli.Registry, error) {
	var (
		source    annotation.Source
		namespace = defaultNamespace
	)
	if len(cfg.Manifest) > 0 {
		manifest, err := annotation.LoadManifestFile(cfg.Manifest)
		if err != nil {
			return nil, err
		}
		source = manifest
		if len(manifest.Namespace) > 0 {
			namespace = manifest.Namespace
		}
	}
	methods, err := reflection.Methods(users, source)
	if err != nil {
		return nil, err
	}

	reg := cli.NewRegistry("usersctl")
	reg.SetLogger(logger)
	logging.AddVerbosity(reg.Globals(), level)
	if _, err := binder.New(binder.WithLogger(logger)).Register(reg, namespace, methods...); err != nil {
		return nil, err
	}
	return reg, nil
}
