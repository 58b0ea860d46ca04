package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/profilesketch/sketcher/internal/config"
	"github.com/profilesketch/sketcher/internal/credential"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the saved analysis API key",
	}

	cmd.AddCommand(newKeySetCmd())
	cmd.AddCommand(newKeyShowCmd())
	cmd.AddCommand(newKeyClearCmd())

	return cmd
}

func withStore(fn func(*credential.SQLStore) error) error {
	store, err := credential.OpenSQLStore(config.Load().DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newKeySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key]",
		Short: "Save the API key, prompting for it when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				prompt := &survey.Password{Message: "Volcengine API key:"}
				if err := survey.AskOne(prompt, &token, survey.WithValidator(survey.Required)); err != nil {
					return fmt.Errorf("failed to read key: %w", err)
				}
			}

			return withStore(func(store *credential.SQLStore) error {
				if err := store.Set(cmd.Context(), token); err != nil {
					if errors.Is(err, credential.ErrInvalidCredential) {
						return fmt.Errorf("请输入有效的API密钥: %w", err)
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key saved")
				return nil
			})
		},
	}
}

func newKeyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show whether a key is saved, masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *credential.SQLStore) error {
				token, ok, err := store.Get(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "No API key saved")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), mask(token))
				return nil
			})
		},
	}
}

func newKeyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the saved key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *credential.SQLStore) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key cleared")
				return nil
			})
		},
	}
}

// mask keeps the last four characters of a key
func mask(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
