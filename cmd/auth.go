package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sol-swap/config"
	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

var (
	authEmail    string
	authPassword string
	authWallet   string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your swap history account",
	Long: `Register, log in and manage the account used to store swap history.

The session token from login is saved to your config file as backend_token.

Examples:
  sol-swap auth register --email me@example.com --wallet <address>
  sol-swap auth login --email me@example.com
  sol-swap auth profile --wallet <address>
  sol-swap auth logout`,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		email, password := credentialsFromInput(true)
		user, err := a.backend.Register(cmd.Context(), email, password, authWallet)
		if err != nil {
			fail(err)
		}
		printUser(cmd, "Account created", user)
		fmt.Println("Run `sol-swap auth login` to start a session.")
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		email, password := credentialsFromInput(false)
		user, session, err := a.backend.Login(cmd.Context(), email, password)
		if err != nil {
			fail(err)
		}
		path, err := config.SaveBackendToken(session.AccessToken)
		if err != nil {
			printWarning("Logged in, but the token could not be saved: " + err.Error())
		} else {
			a.log.Debug("session token saved")
			fmt.Printf("Session saved to %s (expires %s)\n", path, session.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		printUser(cmd, "Logged in", user)
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		if a.backend.Token() != "" {
			if err := a.backend.Logout(cmd.Context()); err != nil {
				printWarning("Server logout failed: " + apperror.UserMessage(err))
			}
		}
		if _, err := config.SaveBackendToken(""); err != nil {
			fail(err)
		}
		printSuccess("Logged out")
	},
}

var authProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your account, or link a wallet with --wallet",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		var (
			user *types.User
			err  error
		)
		if authWallet != "" {
			user, err = a.backend.UpdateProfile(cmd.Context(), authWallet)
		} else {
			user, err = a.backend.Profile(cmd.Context())
		}
		if err != nil {
			fail(err)
		}
		printUser(cmd, "Profile", user)
	},
}

var authResetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Request a password reset email",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		email := authEmail
		if email == "" {
			email = prompt("Email: ")
		}
		msg, err := a.backend.ResetPassword(cmd.Context(), email)
		if err != nil {
			fail(err)
		}
		printSuccess(msg)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authRegisterCmd, authLoginCmd, authLogoutCmd, authProfileCmd, authResetCmd)

	for _, c := range []*cobra.Command{authRegisterCmd, authLoginCmd, authResetCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
	}
	for _, c := range []*cobra.Command{authRegisterCmd, authLoginCmd} {
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
	}
	authRegisterCmd.Flags().StringVar(&authWallet, "wallet", "", "Wallet address to link")
	authProfileCmd.Flags().StringVar(&authWallet, "wallet", "", "Link this wallet address to your account")
}

// credentialsFromInput fills email and password from flags, prompting for
// whatever is missing.
func credentialsFromInput(confirmPassword bool) (string, string) {
	email := authEmail
	if email == "" {
		email = prompt("Email: ")
	}
	password := authPassword
	if password == "" {
		password = readPassword("Password: ")
		if confirmPassword && readPassword("Confirm password: ") != password {
			fail(apperror.Validation("passwords do not match"))
		}
	}
	return strings.TrimSpace(email), password
}

func prompt(label string) string {
	fmt.Print(label)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(label string) string {
	fmt.Print(label)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fail(fmt.Errorf("failed to read password: %w", err))
	}
	return string(b)
}

func printUser(cmd *cobra.Command, title string, user *types.User) {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		printJSON(user)
		return
	}
	if user == nil {
		printSuccess(title)
		return
	}
	printSuccess(title)
	fmt.Printf("  Email:   %s\n", color.CyanString(user.Email))
	if user.WalletAddress != "" {
		fmt.Printf("  Wallet:  %s\n", user.WalletAddress)
	}
	fmt.Printf("  ID:      %s\n", color.HiBlackString(user.ID))
}
