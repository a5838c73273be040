package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Authenticate and display the resolved application identity",
		Long: `Exchange the configured API key pair for a session and resolve the
application it will operate on. The first application in the project with a
non-empty ID is used.`,
		Args: cobra.NoArgs,
		RunE: runWhoami,
	}
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	GroupID     string    `json:"group_id"`
	AppID       string    `json:"app_id"`
	ClientAppID string    `json:"client_app_id"`
	UserID      string    `json:"user_id"`
	Expires     time.Time `json:"session_expires"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	_, cc, client, err := connect(cmd)
	if err != nil {
		return err
	}

	out := whoamiOutput{
		GroupID:     client.GroupID(),
		AppID:       client.AppID(),
		ClientAppID: client.ClientAppID(),
		UserID:      client.UserID(),
		Expires:     client.SessionExpiry(),
	}

	cc.Logger.Debug("whoami resolved", "group_id", out.GroupID, "app_id", out.AppID)

	if cc.Flags.JSON {
		return writeJSON(cc.Stdout, out)
	}

	fmt.Fprintf(cc.Stdout, "Group:       %s\n", out.GroupID)
	fmt.Fprintf(cc.Stdout, "App:         %s\n", out.AppID)
	fmt.Fprintf(cc.Stdout, "Client app:  %s\n", out.ClientAppID)
	fmt.Fprintf(cc.Stdout, "User:        %s\n", out.UserID)
	fmt.Fprintf(cc.Stdout, "Expires:     %s\n", formatExpiry(out.Expires, time.Now()))

	return nil
}
