package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pratik-mahalle/lexaudit/internal/auth"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "auth",
		Short:       "Access token commands",
		Annotations: offline,
	}

	cmd.AddCommand(newAuthTokenCmd())
	cmd.AddCommand(newAuthSetTokenCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		issuer  string
		secret  string
		ttl     time.Duration
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token with the server's signing secret",
		Long: `Mint an HS256 access token signed with the server's JWT_SECRET.
The secret is read from --secret, then LEXAUDIT_JWT_SECRET, then prompted for.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auth.ValidRole(role) {
				return fmt.Errorf("unknown role %q (want viewer, auditor or admin)", role)
			}
			if secret == "" {
				secret = viper.GetString("jwt_secret")
			}
			if secret == "" {
				secret = promptPassword("Signing secret: ")
			}
			if secret == "" {
				return fmt.Errorf("a signing secret is required")
			}
			if subject == "" {
				subject = promptInput("Subject: ")
			}

			token, err := auth.MintToken(subject, role, issuer, secret, ttl)
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}

			if save {
				viper.Set("auth.token", token)
				viper.Set("auth.subject", subject)
				viper.Set("auth.role", role)
				if err := writeConfig(); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Token for %s (%s) saved to %s\n", subject, role, configPath())
				return nil
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject, e.g. a service account name")
	cmd.Flags().StringVar(&role, "role", auth.RoleAuditor, "role: viewer, auditor or admin")
	cmd.Flags().StringVar(&issuer, "issuer", "lexaudit", "token issuer")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "store the token in the CLI config instead of printing it")

	return cmd
}

func newAuthSetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token [token]",
		Short: "Store an access token issued elsewhere",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				token = promptPassword("Token: ")
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("token is empty")
			}

			viper.Set("auth.token", token)
			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Println("Token saved")
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("auth.token", "")
			viper.Set("auth.subject", "")
			viper.Set("auth.role", "")

			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Println("Logged out successfully")
			return nil
		},
	}
}

func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}
