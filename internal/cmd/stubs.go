// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/projectsyn/commodore/internal/output"
)

const stubMessage = "this command is out of scope for this build and is not implemented"

func newStubCmd(use, short string, printName string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short + " (not implemented)",
		Long:  short + ".\n\n" + stubMessage,
		RunE: func(cmd *cobra.Command, args []string) error {
			output.Println(printName + ": " + stubMessage)
			return nil
		},
	}
}

// NewComponentCmd creates the component command group. The underlying
// scaffolding/publishing workflow is a Non-goal (spec §1); every subcommand
// is a stub.
func NewComponentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "component",
		Short: "Manage component repositories (not implemented)",
	}

	cmd.AddCommand(newStubCmd("new", "Scaffold a new component repository", "commodore component new"))
	cmd.AddCommand(newStubCmd("update", "Update a component repository's scaffolding", "commodore component update"))
	cmd.AddCommand(newStubCmd("sync", "Sync a component repository's scaffolding", "commodore component sync"))

	return cmd
}

// NewPackageCmd creates the package command group. Stubbed for the same
// reason as NewComponentCmd.
func NewPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Manage package repositories (not implemented)",
	}

	cmd.AddCommand(newStubCmd("new", "Scaffold a new package repository", "commodore package new"))
	cmd.AddCommand(newStubCmd("update", "Update a package repository's scaffolding", "commodore package update"))
	cmd.AddCommand(newStubCmd("sync", "Sync a package repository's scaffolding", "commodore package sync"))

	return cmd
}

// NewToolCmd creates the tool command group. Tool management (jsonnet
// formatters, kubectl plugins, etc.) is a Non-goal.
func NewToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Manage auxiliary tooling (not implemented)",
	}

	cmd.AddCommand(newStubCmd("install", "Install auxiliary tooling", "commodore tool install"))

	return cmd
}

// NewLoginCmd creates the login command. The OIDC device-code login flow
// is a Non-goal; API tokens are configured directly (spec §4.10).
func NewLoginCmd() *cobra.Command {
	return newStubCmd("login", "Authenticate against the Lieutenant API", "commodore login")
}
