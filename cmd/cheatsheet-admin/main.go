// ABOUTME: Admin CLI for cheatsheet-server account management
// ABOUTME: Opens the SQLite store directly to create users and reset passwords

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/prashcr/cheatsheet-server/internal/auth"
	"github.com/prashcr/cheatsheet-server/internal/config"
	"github.com/prashcr/cheatsheet-server/internal/store"
)

const banner = `
      _                _       _               _             _           _
  ___| |__   ___  __ _| |_ ___| |__   ___  ___| |_       __ _  __| |_ __ ___ (_)_ __
 / __| '_ \ / _ \/ _' | __/ __| '_ \ / _ \/ _ \ __|____ / _' |/ _' | '_ ' _ \| | '_ \
| (__| | | |  __/ (_| | |_\__ \ | | |  __/  __/ ||_____| (_| | (_| | | | | | | | | | |
 \___|_| |_|\___|\__,_|\__|___/_| |_|\___|\___|\__|     \__,_|\__,_|_| |_| |_|_|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "adduser":
		err = cmdAddUser(ctx, args)
	case "passwd":
		err = cmdPasswd(ctx, args)
	case "list":
		err = cmdList(ctx)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: cheatsheet-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  adduser <username>   Create an account (prompts for password)")
	fmt.Println("  passwd <username>    Reset an account password")
	fmt.Println("  list                 List all accounts")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  CHEATSHEET_CONFIG    Config file path (default: ~/.config/cheatsheet/server.yaml)")
	fmt.Println()
	fmt.Println("The admin CLI opens the database directly; stop the server first if")
	fmt.Println("it uses the same SQLite file without WAL.")
}

// openStore loads the config and opens the SQLite store it points at.
func openStore() (*store.SQLiteStore, *config.Config, error) {
	configPath := os.Getenv("CHEATSHEET_CONFIG")
	if configPath == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, nil, fmt.Errorf("finding home directory: %w", err)
			}
			configDir = filepath.Join(homeDir, ".config")
		}
		configPath = filepath.Join(configDir, "cheatsheet", "server.yaml")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return s, cfg, nil
}

// promptPassword reads a password twice without echo and checks they match.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	fmt.Print("Repeat password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(first) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}
	return string(first), nil
}

func cmdAddUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cheatsheet-admin adduser <username>")
	}
	username := strings.TrimSpace(args[0])
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	password, err := promptPassword()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.CreateUser(ctx, username, hash); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	color.Green("Created account %q\n", username)
	return nil
}

func cmdPasswd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cheatsheet-admin passwd <username>")
	}
	username := args[0]

	s, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	// Fail before prompting if the account does not exist.
	if _, err := s.GetUser(ctx, username); err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.SetUserPassword(ctx, username, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	color.Green("Password updated for %q\n", username)
	return nil
}

func cmdList(ctx context.Context) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No accounts.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\n", u.Username, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
