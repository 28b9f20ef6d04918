package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-cms/pkg/simplecms/config"
)

// NewEnvCommand creates the env command
func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables simplecms reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			help, err := config.EnvHelp()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), help)
			return nil
		},
	}
}

// NewAPIKeyCommand creates the apikey command
func NewAPIKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apikey [key]",
		Short: "Generate an admin API key and the API_KEY_SHA256 value for it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				buf := make([]byte, 32)
				if _, err := rand.Read(buf); err != nil {
					return err
				}
				key = hex.EncodeToString(buf)
			}
			sum := sha256.Sum256([]byte(key))
			fmt.Fprintf(cmd.OutOrStdout(), "API key:        %s\nAPI_KEY_SHA256: %s\n", key, hex.EncodeToString(sum[:]))
			return nil
		},
	}
}
