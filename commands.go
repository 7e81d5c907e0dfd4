// File: endemism/commands.go
package main

import (
	"fmt"
	"text/tabwriter"

	"endemism/pkg/manager"

	"github.com/spf13/cobra"
)

type managerFunc func() *manager.Manager

func listCmd(mgr managerFunc) *cobra.Command {
	var global, proj bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists the name and versions of the packages in a registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := manager.ScopeGlobal
			if proj {
				scope = manager.ScopeProject
			}
			listings, err := mgr().List(scope)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(listings) == 0 {
				fmt.Fprintln(out, "No packages found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, l := range listings {
				switch {
				case scope == manager.ScopeGlobal:
					fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name, l.Version, l.Path)
				case l.Orphaned:
					fmt.Fprintf(tw, "%s\t%s\tmissing from %s\n", l.Name, l.Version, mgr().Settings().ModulesDir)
				default:
					fmt.Fprintf(tw, "%s\t%s\n", l.Name, l.Version)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&global, "global", "g", true, "Lists the packages in the global registry")
	cmd.Flags().BoolVarP(&proj, "project", "p", false, "Lists the packages in the project registry")
	cmd.MarkFlagsMutuallyExclusive("global", "project")
	return cmd
}

func registerCmd(mgr managerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "register [path]",
		Short: "Registers a node package into the global registry",
		Long: `Registers the package at path (default: the current project) into the
global registry, using the name and version from its package.json.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			res, err := mgr().Register(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch res.Outcome {
			case manager.AlreadyRegistered:
				success(out, "The package is already registered!")
			case manager.Updated:
				success(out, "'%s' updated from %s to %s in the registry!", res.Name, res.Previous, res.Version)
			default:
				success(out, "'%s=%s' is successfully registered to the registry!", res.Name, res.Version)
			}
			return nil
		},
	}
}

func deregisterCmd(mgr managerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "deregister [name]",
		Short: "Removes a package from the global registry",
		Long: `Removes name (default: the current project's package) from the global
registry. Copies already installed in projects are not touched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			res, err := mgr().Deregister(name)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "'%s=%s' is removed from the registry!", res.Name, res.Version)
			return nil
		},
	}
}

func installCmd(mgr managerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "install <name[@range]>...",
		Short: "Copies registered packages into the project's node_modules",
		Example: `  endemism install my-utils
  endemism install @acme/ui@^2.0.0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := mgr().Install(args...)
			for _, res := range results {
				success(cmd.OutOrStdout(), "'%s=%s' is successfully installed!", res.Name, res.Version)
			}
			return err
		},
	}
}

func uninstallCmd(mgr managerFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <name>...",
		Aliases: []string{"remove", "rm"},
		Short:   "Removes installed packages from the project",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := mgr().Uninstall(args...)
			for _, res := range results {
				success(cmd.OutOrStdout(), "'%s=%s' is successfully uninstalled!", res.Name, res.Version)
			}
			return err
		},
	}
}

func updateCmd(mgr managerFunc) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "update [name]...",
		Short: "Refreshes installed packages from the global registry",
		Long: `Copies the registered version of each named package (default: every
package in the project registry) over the installed one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := mgr().Update(force, args...)
			out := cmd.OutOrStdout()
			for _, res := range results {
				switch res.Outcome {
				case manager.UpToDate:
					fmt.Fprintf(out, "'%s=%s' is already up to date.\n", res.Name, res.Version)
				case manager.Reinstalled:
					success(out, "'%s=%s' is reinstalled!", res.Name, res.Version)
				case manager.Downgraded:
					warn(out, "'%s' is downgraded from %s to %s.", res.Name, res.Previous, res.Version)
				default:
					success(out, "'%s' is updated from %s to %s!", res.Name, res.Previous, res.Version)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Recopy packages even when the version is unchanged")
	return cmd
}
