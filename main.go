// File: endemism/main.go
package main

import (
	"fmt"
	"io"
	"os"

	"endemism/pkg/config"
	"endemism/pkg/manager"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.0.1"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	registry   string
	projectDir string
	verbose    bool
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		errorMsg(root.ErrOrStderr(), "%s", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	var mgr *manager.Manager

	root := &cobra.Command{
		Use:   "endemism",
		Short: "Share local node packages between projects",
		Long: `endemism keeps a registry of node packages on this machine.

Register a package once, then install a copy of it into any project's
node_modules without publishing it anywhere.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildManager(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			mgr = m
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.registry, "registry", "", "Path to the global registry file")
	root.PersistentFlags().StringVarP(&opts.projectDir, "project-dir", "C", "", "Project to operate on (default: current directory)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every filesystem step")

	get := func() *manager.Manager { return mgr }
	root.AddCommand(
		listCmd(get),
		registerCmd(get),
		deregisterCmd(get),
		installCmd(get),
		uninstallCmd(get),
		updateCmd(get),
	)
	return root
}

func buildManager(opts *globalOptions, logOut io.Writer) (*manager.Manager, error) {
	settings, err := config.Load(opts.projectDir)
	if err != nil {
		return nil, err
	}
	if opts.registry != "" {
		settings.GlobalRegistry = config.ExpandHome(opts.registry)
		if err := settings.Validate(); err != nil {
			return nil, err
		}
	}

	logger := log.New()
	logger.SetOutput(logOut)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(log.WarnLevel)
	if settings.LogLevel != "" {
		if level, err := log.ParseLevel(settings.LogLevel); err == nil {
			logger.SetLevel(level)
		} else {
			logger.Warnf("invalid log level %s, defaulting to warn", settings.LogLevel)
		}
	}
	if opts.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	logger.WithFields(log.Fields{"registry": settings.GlobalRegistry, "project": settings.ProjectDir}).Debug("settings resolved")

	return manager.New(settings, logger), nil
}

// success prints a success message in green.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m%s\033[0m\n", fmt.Sprintf(format, args...))
}

// warn prints a warning in yellow.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m%s\033[0m\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message in red.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m%s\033[0m\n", fmt.Sprintf(format, args...))
}
