package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stopsum/pkg/auth"
	"stopsum/pkg/ui"
)

var (
	// Auth command flags
	loginAppID  string
	logoutForce bool
)

// stdin is replaced in tests
var stdin io.Reader = os.Stdin

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Graph API app credentials",
	Long: `Manage Graph API app credentials used by 'stopsum feed'.

Credentials are stored in the system keychain when available, with an
encrypted file as fallback. STOPSUM_APP_ID and STOPSUM_APP_SECRET are always
consulted first when resolving the default app.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store app credentials",
	Long: `Store the id and secret of a Graph API app under a name.

The secret is read from the terminal without echo. When no name is given the
app is stored as "default".`,
	Example: `  # Store the default app
  stopsum auth login --app-id 1234567890

  # Store a second app under its own name
  stopsum auth login research --app-id 9876543210`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored app credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored apps",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to obtain app credentials",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowAppSetupGuide(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(guideCmd)

	loginCmd.Flags().StringVar(&loginAppID, "app-id", "", "app id (prompted when empty)")
	logoutCmd.Flags().BoolVarP(&logoutForce, "yes", "y", false, "remove without confirmation")
}

func appName(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultAppName
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(stdin)
	name := appName(args)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(out, "App '%s' already exists. Update credentials? (y/N): ", name)
		if !confirmed(reader, "y") {
			return nil
		}
	}

	appID := strings.TrimSpace(loginAppID)
	if appID == "" {
		fmt.Fprint(out, "App ID: ")
		appID, err = readLine(reader)
		if err != nil {
			return fmt.Errorf("failed to read app id: %w", err)
		}
	}

	fmt.Fprint(out, "App secret (hidden): ")
	secret, err := readSecret(reader)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read app secret: %w", err)
	}

	app := &auth.App{
		Name:      name,
		AppID:     appID,
		AppSecret: secret,
	}
	if err := manager.Store(app); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("App saved: %s", name))
	fmt.Fprintln(out, "\nExport a page feed with:")
	if name == auth.DefaultAppName {
		fmt.Fprintln(out, "  stopsum feed <page>")
	} else {
		fmt.Fprintf(out, "  stopsum feed <page> --app %s\n", name)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := appName(args)
	if !logoutForce {
		fmt.Fprintf(cmd.OutOrStdout(), "Remove app '%s'? (y/N): ", name)
		if !confirmed(bufio.NewReader(stdin), "y") {
			return nil
		}
	}

	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess("App removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	apps, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(apps) == 0 {
		fmt.Fprintln(out, "No stored apps. Use 'stopsum auth login' to add one.")
		return nil
	}

	for i, app := range apps {
		sanitized := auth.SanitizeApp(app)
		fmt.Fprintf(out, "%d. %s\n", i+1, sanitized.Name)
		fmt.Fprintf(out, "   App ID: %s\n", sanitized.AppID)
		fmt.Fprintf(out, "   Secret: %s\n", sanitized.AppSecret)
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func confirmed(reader *bufio.Reader, prefix string) bool {
	input, _ := readLine(reader)
	return strings.HasPrefix(strings.ToLower(input), prefix)
}

func readLine(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// readSecret reads without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return readLine(reader)
}
