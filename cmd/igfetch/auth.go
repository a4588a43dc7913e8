package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"igfetch/pkg/config"
	"igfetch/pkg/session"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Instagram session",
	Long: `Manage the Instagram session cookies igfetch sends with its requests.

Sessions are stored in:
  - The system keychain (when available)
  - An encrypted file with PBKDF2 key derivation
  - IGFETCH_SESSION_ID / IGFETCH_CSRF_TOKEN environment variables (read only)

Never share your session cookies!`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store session cookies copied from a browser",
	Example: `  # Interactive login
  igfetch auth login

  # Show the short cookie guide
  igfetch auth login --quick`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove a stored session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored sessions",
	RunE:  runStatus,
}

var quickGuide bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)

	authLoginCmd.Flags().BoolVar(&quickGuide, "quick", false, "show the short cookie guide")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	if quickGuide {
		session.ShowQuickExtractGuide(os.Stdout)
	} else {
		session.ShowCookieExtractionGuide(os.Stdout)
	}
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Instagram username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return errors.New("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Session for '%s' already exists. Replace it? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("sessionid cookie value (hidden): ")
	sessionID, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read session ID: %w", err)
	}
	if sessionID == "" {
		return errors.New("session ID is required")
	}
	if !strings.Contains(sessionID, "%3A") && !strings.Contains(sessionID, ":") {
		printer.Warning("That does not look like a sessionid; it usually contains %3A")
	}

	fmt.Print("csrftoken cookie value (hidden, optional): ")
	csrfToken, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read CSRF token: %w", err)
	}

	fmt.Print("ds_user_id (optional): ")
	dsUserID, _ := reader.ReadString('\n')

	s := &session.Session{
		Username:  username,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		DSUserID:  strings.TrimSpace(dsUserID),
	}
	if err := manager.Store(s); err != nil {
		return err
	}

	printer.Success("Session saved for " + username)
	printer.Plain("Try it: igfetch download https://www.instagram.com/p/<shortcode>/")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		sessions, err := manager.List()
		if err != nil {
			return err
		}
		switch len(sessions) {
		case 0:
			printer.Warning("No stored sessions")
			return nil
		case 1:
			username = sessions[0].Username
		default:
			names := make([]string, len(sessions))
			for i, s := range sessions {
				names[i] = s.Username
			}
			return fmt.Errorf("several sessions stored (%s); name the one to remove", strings.Join(names, ", "))
		}
	}

	if err := manager.Delete(username); err != nil {
		return err
	}
	printer.Success("Session removed: " + username)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	if os.Getenv(config.EnvPrefix+"SESSION_ID") != "" {
		printer.Info("Environment", config.EnvPrefix+"SESSION_ID is set and takes precedence")
	}

	sessions, err := manager.List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		printer.Warning("No stored sessions. Run 'igfetch auth login'.")
		return nil
	}

	for i, s := range sessions {
		m := session.Masked(s)
		line := fmt.Sprintf("%s  sessionid=%s", m.Username, m.SessionID)
		if m.CSRFToken != "" {
			line += "  csrftoken=" + m.CSRFToken
		}
		if !s.LastModified.IsZero() {
			line += "  saved " + s.LastModified.Format("2006-01-02 15:04")
		}
		if i == 0 {
			line += "  (default)"
		}
		printer.Plain(line)
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
