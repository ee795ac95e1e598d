package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/thxtduo/duosite"
	"github.com/thxtduo/duosite/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe()
	case "admin":
		if len(os.Args) < 4 || os.Args[2] != "grant" {
			fmt.Fprintln(os.Stderr, "Usage: duosite admin grant <email>")
			os.Exit(1)
		}
		err = runGrantAdmin(os.Args[3])
	case "version":
		fmt.Printf("duosite %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe() error {
	s, err := loadSettings(viper.New(), ".")
	if err != nil {
		return err
	}
	cfg, err := s.siteConfig()
	if err != nil {
		return err
	}

	app := duosite.New(cfg, views.Default(), duosite.WithStaticDir(s.StaticDir))
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func runGrantAdmin(email string) error {
	s, err := loadSettings(viper.New(), ".")
	if err != nil {
		return err
	}
	store, err := duosite.NewStore(s.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	admin, err := store.GrantAdmin(context.Background(), email)
	if err != nil {
		if errors.Is(err, duosite.ErrNotFound) {
			return fmt.Errorf("no account registered for %s", email)
		}
		return err
	}
	fmt.Printf("%s is now an admin\n", admin.Email)
	return nil
}

func printUsage() {
	fmt.Println(`duosite - the ThxtDuo website

Usage:
  duosite <command> [arguments]

Commands:
  serve                Run the web server
  admin grant <email>  Make a registered account an admin
  version              Print the duosite version
  help                 Show this help message

Configuration is read from duosite.yml in the working directory and
from environment variables (SITE_URL, SESSION_SECRET, DATABASE_PATH,
ADMIN_EMAIL, ADMIN_PASSWORD, REDIS_URL, COMMENTS_VISIBILITY, ...).`)
}
