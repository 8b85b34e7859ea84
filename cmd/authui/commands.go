package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/MrEthical07/authui"
	"github.com/MrEthical07/authui/internal/locale"
)

func runStatus(_ context.Context, s *session, _ []string) int {
	snap := s.manager.Session()
	fmt.Fprintf(s.stdout, "state: %s\n", snap.State)
	if snap.User != nil {
		fmt.Fprintf(s.stdout, "user: %s (id %s)\n", snap.User.Email, snap.User.ID)
	}
	if claims, ok := s.manager.TokenInfo(); ok {
		now := time.Now()
		if remaining, has := claims.Remaining(now); has {
			if claims.Expired(now) {
				fmt.Fprintf(s.stdout, "token: expired %s\n", claims.ExpiresAt.Format(time.RFC3339))
			} else {
				fmt.Fprintf(s.stdout, "token: expires %s (in %s)\n", claims.ExpiresAt.Format(time.RFC3339), remaining.Round(time.Second))
			}
		}
	}
	return exitOK
}

func runLogin(ctx context.Context, s *session, args []string) int {
	email, ok := parseEmail(s, "login", args)
	if !ok {
		return exitUsage
	}
	password, err := s.prompt.secret("Password: ")
	if err != nil {
		fmt.Fprintf(s.stderr, "read password: %v\n", err)
		return exitFailure
	}

	_, err = s.manager.Login(ctx, email, password)
	return s.submitted(err)
}

func runRegister(ctx context.Context, s *session, args []string) int {
	email, ok := parseEmail(s, "register", args)
	if !ok {
		return exitUsage
	}
	password, err := s.prompt.secret("Password: ")
	if err != nil {
		fmt.Fprintf(s.stderr, "read password: %v\n", err)
		return exitFailure
	}
	confirm, err := s.prompt.secret("Confirm password: ")
	if err != nil {
		fmt.Fprintf(s.stderr, "read password: %v\n", err)
		return exitFailure
	}

	_, err = s.manager.Register(ctx, email, password, confirm)
	return s.submitted(err)
}

func runProfile(ctx context.Context, s *session, _ []string) int {
	user, err := s.manager.Profile(ctx)
	switch {
	case errors.Is(err, authui.ErrNotAuthenticated):
		fmt.Fprintln(s.stderr, locale.Text(s.locale, locale.NotSignedIn))
		return exitFailure
	case err != nil:
		fmt.Fprintln(s.stderr, err)
		return exitFailure
	}

	fmt.Fprintln(s.stdout, locale.Text(s.locale, locale.ProfileHeading))
	fmt.Fprintf(s.stdout, "%s: %s\n", locale.Text(s.locale, locale.ProfileEmail), user.Email)
	fmt.Fprintf(s.stdout, "%s: %s\n", locale.Text(s.locale, locale.ProfileID), user.ID)
	return exitOK
}

func runLogout(ctx context.Context, s *session, _ []string) int {
	if err := s.manager.Logout(ctx); err != nil {
		fmt.Fprintln(s.stderr, err)
		return exitFailure
	}
	return exitOK
}

func runConfig(w io.Writer, cfg authui.Config) int {
	fmt.Fprintf(w, "base_url: %s\n", cfg.API.BaseURL)
	fmt.Fprintf(w, "storage: %s\n", cfg.Storage.Backend)
	fmt.Fprintf(w, "locale: %s\n", cfg.LocaleTag())

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "invalid: %v\n", err)
		return exitUsage
	}
	for _, lw := range cfg.Lint() {
		fmt.Fprintf(w, "%s %s: %s\n", lw.Severity, lw.Code, lw.Message)
	}
	return exitOK
}

func parseEmail(s *session, name string, args []string) (string, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(s.stderr)
	email := fs.String("email", "", "account e-mail")
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	if *email != "" {
		return *email, true
	}
	line, err := s.prompt.line("E-mail: ")
	if err != nil {
		fmt.Fprintf(s.stderr, "read e-mail: %v\n", err)
		return "", false
	}
	return line, true
}

// submitted maps a login or register result to an exit code. Backend
// failures were already shown by the notifier; field errors were not.
func (s *session) submitted(err error) int {
	if err == nil {
		return exitOK
	}
	var verrs *authui.ValidationErrors
	if errors.As(err, &verrs) {
		for _, f := range verrs.Fields {
			fmt.Fprintf(s.stderr, "%s: %s\n", f.Field, f.Localize(s.locale))
		}
	}
	return exitFailure
}
