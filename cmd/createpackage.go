package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nsavage/relocore/internal/langplugin"
	"github.com/nsavage/relocore/internal/session"
)

var (
	createPkgWorkspaceRoot  string
	createPkgKind           string
	createPkgAddToWorkspace bool
)

var createPackageCmd = &cobra.Command{
	Use:   "create-package LANGUAGE NAME TARGET_PATH",
	Short: "Scaffold a new package for LANGUAGE at TARGET_PATH",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		kind := langplugin.PackageLibrary
		if createPkgKind == "binary" {
			kind = langplugin.PackageBinary
		}

		result, err := s.CreatePackage(context.Background(), moveProjectRoot, session.CreatePackageRequest{
			Language: args[0],
			CreatePackageRequest: langplugin.CreatePackageRequest{
				Name:           args[1],
				TargetPath:     args[2],
				WorkspaceRoot:  createPkgWorkspaceRoot,
				Kind:           kind,
				AddToWorkspace: createPkgAddToWorkspace,
			},
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

func init() {
	createPackageCmd.Flags().StringVar(&moveProjectRoot, "project-root", ".", "workspace root TARGET_PATH is relative to")
	createPackageCmd.Flags().StringVar(&createPkgWorkspaceRoot, "workspace-root", "", "path to the multi-package workspace root, if any")
	createPackageCmd.Flags().StringVar(&createPkgKind, "kind", "library", "package kind: library or binary")
	createPackageCmd.Flags().BoolVar(&createPkgAddToWorkspace, "add-to-workspace", false, "register the new package as a workspace member")
	rootCmd.AddCommand(createPackageCmd)
}
