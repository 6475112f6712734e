package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ErlanBelekov/authkit/config"
	"github.com/ErlanBelekov/authkit/internal/apiclient"
	"github.com/ErlanBelekov/authkit/internal/auth"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/backend"
	ctxlog "github.com/ErlanBelekov/authkit/internal/log"
	"github.com/ErlanBelekov/authkit/internal/storage"
)

func main() {
	cmd := flag.String("cmd", "whoami", "Command: login|logout|whoami|refresh|get|upload|download|watch")
	email := flag.String("email", "", "Email (login)")
	password := flag.String("password", "", "Password (login)")
	path := flag.String("path", "", "API path (get, download) or local file (upload)")
	out := flag.String("out", "", "Output file (download); stdout when empty")
	mock := flag.Bool("mock", false, "Use the offline mock authenticator")
	flag.Parse()

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logs go to stderr so command output stays pipeable.
	logger := ctxlog.New(os.Stderr, cfg.IsDevelopment(), cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opened, err := backend.Open(ctx, cfg, "client")
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer opened.Close()
	store := storage.New(opened.Backend, logger)

	client := apiclient.New(apiclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout(),
		AppName: cfg.AppName,
		Tokens:  store,
		Logger:  logger,
		Debug:   cfg.IsDevelopment(),
	})

	var authenticator auth.Authenticator = auth.NewHTTPAuthenticator(client)
	if *mock {
		authenticator = auth.NewMockAuthenticator()
	}
	authStore := auth.NewStore(auth.Options{
		Authenticator: authenticator,
		Persistence:   store,
		Logger:        logger,
	})
	if err := authStore.Rehydrate(ctx); err != nil {
		log.Fatalf("restore session: %v", err)
	}

	switch *cmd {
	case "login":
		if !authStore.Login(ctx, *email, *password) {
			fail("login: %s", authStore.Error())
		}
		printJSON(authStore.User())

	case "logout":
		authStore.Logout(ctx)
		fmt.Println("logged out")

	case "whoami":
		if !authStore.IsAuthenticated() {
			fail("not logged in")
		}
		printJSON(authStore.User())

	case "refresh":
		if err := authStore.RefreshToken(ctx); err != nil {
			fail("refresh: %v", err)
		}
		fmt.Println("token refreshed")

	case "get":
		var body []byte
		if err := client.Get(ctx, *path, &body); err != nil {
			failAPI(err)
		}
		fmt.Println(string(body))

	case "upload":
		f, err := os.Open(*path)
		if err != nil {
			fail("open %s: %v", *path, err)
		}
		defer f.Close()
		var resp json.RawMessage
		err = client.Upload(ctx, apiclient.UploadRequest{
			Path:  "/files",
			Files: []apiclient.UploadFile{{Name: filepath.Base(*path), Content: f}},
			OnProgress: func(p apiclient.Progress) {
				fmt.Fprintf(os.Stderr, "\ruploading %d%%", p.Percent())
			},
		}, &resp)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			failAPI(err)
		}
		fmt.Println(string(resp))

	case "download":
		data, err := client.Download(ctx, *path)
		if err != nil {
			failAPI(err)
		}
		if *out == "" {
			_, _ = os.Stdout.Write(data)
			return
		}
		if err := os.WriteFile(*out, data, 0o600); err != nil {
			fail("write %s: %v", *out, err)
		}

	case "watch":
		refresher, err := auth.NewRefresher(authStore, logger, cfg.RefreshCron, cfg.RefreshLeeway())
		if err != nil {
			fail("%v", err)
		}
		if err := refresher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fail("watch: %v", err)
		}

	default:
		fail("unknown command %q", *cmd)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func failAPI(err error) {
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		fail("%s", apiclient.FormatForDisplay(apiErr))
	}
	fail("%v", err)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
