package cli

import (
	"fmt"
	"strings"

	"github.com/mousetail/mousetail/internal/config"
	"github.com/mousetail/mousetail/internal/tools"
	"github.com/spf13/cobra"
)

func newCollectionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List the Anki collections found on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return printResult(cmd.OutOrStdout(), rt.service.ListCollections(cmd.Context()))
		},
	}
}

func newCredentialsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage saved sync credentials",
		Long: `Manage the sync credentials kept in the system keyring.

Examples:
  printf '%s\n' "$PASSWORD" | mousetail credentials save --username me@example.com --password-stdin
  mousetail credentials save --username me --password-stdin --endpoint https://sync.example.com
  mousetail credentials show
  mousetail credentials delete`,
	}

	var save tools.SaveCredentialsArgs
	var passwordStdin bool
	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Save a username, password and optional sync endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !passwordStdin {
				return usageErr("password required: pass it on stdin with --password-stdin")
			}
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			args := save
			args.Password = password

			rt, err := opts.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return printResult(cmd.OutOrStdout(), rt.service.SaveCredentials(cmd.Context(), args))
		},
	}
	saveCmd.Flags().StringVar(&save.Username, "username", "", "sync username")
	saveCmd.Flags().StringVar(&save.Endpoint, "endpoint", "", "custom sync server URL (omit for AnkiWeb)")
	saveCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = saveCmd.MarkFlagRequired("username")

	var reveal bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			res := rt.service.LoadCredentials(cmd.Context())
			if res.Success && !reveal {
				res = res.With("password", "********")
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	showCmd.Flags().BoolVar(&reveal, "reveal", false, "print the password in clear text")

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return printResult(cmd.OutOrStdout(), rt.service.DeleteCredentials(cmd.Context()))
		},
	}

	cmd.AddCommand(saveCmd, showCmd, deleteCmd)
	return cmd
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var args tools.SyncArgs
	var passwordStdin, noMedia bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync a collection with AnkiWeb or a custom server",
		Long: `Sync a collection. Without --username the saved credentials are used.
The endpoint is taken from --endpoint, then the saved endpoint, then
[sync] endpoint in the config file, then AnkiWeb.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := args
			if passwordStdin {
				password, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Password = password
			}
			media := !noMedia
			req.SyncMedia = &media

			rt, err := opts.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return printResult(cmd.OutOrStdout(), rt.service.Sync(cmd.Context(), req))
		},
	}
	cmd.Flags().StringVar(&args.Username, "username", "", "sync username (default: saved)")
	cmd.Flags().StringVar(&args.Endpoint, "endpoint", "", "sync server URL")
	cmd.Flags().StringVar(&args.CollectionPath, "collection", "", "path to collection.anki2")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&noMedia, "no-media", false, "sync collection data only")
	return cmd
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the config file",
	}

	var clearEndpoint bool
	setEndpoint := &cobra.Command{
		Use:   "set-endpoint [url]",
		Short: "Set or clear the fallback sync endpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := ""
			switch {
			case clearEndpoint && len(args) > 0:
				return usageErr("pass a URL or --clear, not both")
			case !clearEndpoint && len(args) == 0:
				return usageErr("a URL or --clear is required")
			case !clearEndpoint:
				endpoint = strings.TrimSpace(args[0])
			}

			path := opts.configFile()
			if err := config.SetSyncEndpoint(path, endpoint); err != nil {
				return usageErr("%v", err)
			}
			if endpoint == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared sync endpoint in %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sync endpoint set to %s in %s\n", endpoint, path)
			return nil
		},
	}
	setEndpoint.Flags().BoolVar(&clearEndpoint, "clear", false, "remove the configured endpoint")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), opts.configFile())
		},
	}

	cmd.AddCommand(setEndpoint, pathCmd)
	return cmd
}
