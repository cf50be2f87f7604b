package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tradehub/internal/models"
	"github.com/tradehub/pkg/client"
	"github.com/tradehub/pkg/tradefilter"
	"golang.org/x/term"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// readPassword is a test seam for term.ReadPassword
var readPassword = term.ReadPassword

var errUsage = errors.New("usage")

type app struct {
	client    *client.Client
	tokenPath string
	in        *bufio.Reader
	out       io.Writer
	errOut    io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tradehub-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", envOr("TRADEHUB_SERVER", "http://localhost:3001"), "TradeHub server URL")
	tokenPath := fs.String("token-file", defaultTokenPath(), "where the session token is kept")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return exitUsage
	}

	a := &app{
		tokenPath: *tokenPath,
		in:        bufio.NewReader(stdin),
		out:       stdout,
		errOut:    stderr,
	}
	token, err := a.loadToken()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	a.client = client.New(*server, client.WithToken(token))

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	var cmdErr error
	switch cmd {
	case "register":
		cmdErr = a.register(ctx, cmdArgs)
	case "login":
		cmdErr = a.login(ctx, cmdArgs)
	case "logout":
		cmdErr = a.logout(ctx)
	case "me":
		cmdErr = a.me(ctx)
	case "trades":
		cmdErr = a.trades(ctx, cmdArgs)
	case "notifications":
		cmdErr = a.notifications(ctx)
	case "read-all":
		cmdErr = a.readAll(ctx)
	case "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr)
		return exitUsage
	}

	switch {
	case cmdErr == nil:
		return exitOK
	case errors.Is(cmdErr, errUsage):
		return exitUsage
	default:
		fmt.Fprintf(stderr, "error: %v\n", cmdErr)
		return exitError
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: tradehub-cli [-server URL] [-token-file PATH] <command> [flags]

Commands:
  register [-username U] [-display-name D] [-email E]
  login [-username U]
  logout
  me
  trades [-search S] [-rarity r1,r2] [-urgent] [-sort newest|oldest|rating] [-user ID]
  notifications
  read-all
`)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tradehub", "token")
	}
	return filepath.Join(home, ".tradehub", "token")
}

func (a *app) loadToken() (string, error) {
	data, err := os.ReadFile(a.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *app) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0o700); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := os.WriteFile(a.tokenPath, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (a *app) clearToken() error {
	if err := os.Remove(a.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (a *app) requireToken() error {
	if a.client.Token() == "" {
		return errors.New("not signed in, run 'tradehub-cli login' first")
	}
	return nil
}

// prompt reads one trimmed line, accepting a final line without newline
func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) promptPassword(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func (a *app) promptMissing(value *string, label string) error {
	if *value != "" {
		return nil
	}
	v, err := a.prompt(label)
	if err != nil {
		return err
	}
	*value = v
	return nil
}

func (a *app) parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(a.errOut)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	var req client.RegisterRequest
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.DisplayName, "display-name", "", "display name")
	fs.StringVar(&req.Email, "email", "", "email address")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}

	for _, f := range []struct {
		value *string
		label string
	}{
		{&req.Username, "Username"},
		{&req.DisplayName, "Display name"},
		{&req.Email, "Email"},
	} {
		if err := a.promptMissing(f.value, f.label); err != nil {
			return err
		}
	}

	var err error
	if req.Password, err = a.promptPassword("Password"); err != nil {
		return err
	}
	if req.ConfirmPassword, err = a.promptPassword("Confirm password"); err != nil {
		return err
	}

	session, err := a.client.Register(ctx, req)
	if err != nil {
		return err
	}
	if err := a.saveToken(session.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s! You are signed in as %s.\n", session.User.DisplayName, session.User.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	var username string
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.StringVar(&username, "username", "", "username")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.promptMissing(&username, "Username"); err != nil {
		return err
	}
	password, err := a.promptPassword("Password")
	if err != nil {
		return err
	}

	session, err := a.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.saveToken(session.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", session.User.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if a.client.Token() != "" {
		var apiErr *client.APIError
		// an expired session is still cleared locally
		if err := a.client.Logout(ctx); err != nil && !errors.As(err, &apiErr) {
			return err
		}
	}
	if err := a.clearToken(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) me(ctx context.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}
	user, err := a.client.Me(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (@%s)\n", user.DisplayName, user.Username)
	fmt.Fprintf(a.out, "Email:   %s\n", user.Email)
	fmt.Fprintf(a.out, "Joined:  %s\n", user.JoinDate.Format("2006-01-02"))
	fmt.Fprintf(a.out, "Rating:  %.1f (%d reviews)\n", user.Stats.Rating, user.Stats.TotalReviews)
	fmt.Fprintf(a.out, "Trades:  %d total, %d successful\n", user.Stats.TotalTrades, user.Stats.SuccessfulTrades)
	return nil
}

func (a *app) trades(ctx context.Context, args []string) error {
	var (
		params   tradefilter.Params
		rarities string
		sortName string
		userID   string
	)
	fs := flag.NewFlagSet("trades", flag.ContinueOnError)
	fs.StringVar(&params.Search, "search", "", "match title, description or author")
	fs.StringVar(&rarities, "rarity", "", "comma separated rarities")
	fs.BoolVar(&params.UrgentOnly, "urgent", false, "only urgent trades")
	fs.StringVar(&sortName, "sort", string(tradefilter.SortNewest), "newest, oldest or rating")
	fs.StringVar(&userID, "user", "", "only trades posted by this user id")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}

	order, ok := tradefilter.ParseSort(sortName)
	if !ok {
		return fmt.Errorf("unknown sort %q", sortName)
	}
	params.Sort = order

	for _, r := range strings.Split(rarities, ",") {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		rarity := models.ItemRarity(r)
		if !rarity.Valid() {
			return fmt.Errorf("unknown rarity %q", r)
		}
		params.Rarities = append(params.Rarities, rarity)
	}

	var (
		all []models.TradePost
		err error
	)
	if userID != "" {
		all, err = a.client.ListUserTrades(ctx, userID)
	} else {
		all, err = a.client.ListTrades(ctx)
	}
	if err != nil {
		return err
	}

	shown := tradefilter.Apply(all, params)
	printTrades(a.out, shown, time.Now())

	stats := tradefilter.Stats(all)
	fmt.Fprintf(a.out, "\n%d of %d trades | %d active | %d urgent | giving value %.2f\n",
		len(shown), stats.Total, stats.Active, stats.Urgent, tradefilter.TotalGivingValue(shown))
	return nil
}

func printTrades(w io.Writer, trades []models.TradePost, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tRATING\tGIVING\tWANTING\tURGENT\tSTATUS")
	for _, t := range trades {
		urgent := ""
		if t.IsUrgent {
			urgent = "yes"
		}
		status := string(t.Status)
		if t.IsExpired(now) {
			status = "expired"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Title, t.Author.DisplayName, t.Author.Stats.Rating,
			itemNames(t.Giving), itemNames(t.Wanting), urgent, status)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func itemNames(items []models.Item) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = fmt.Sprintf("%s (%s)", item.Name, item.Rarity)
	}
	return strings.Join(names, ", ")
}

func (a *app) notifications(ctx context.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}
	list, err := a.client.ListNotifications(ctx)
	if err != nil {
		return err
	}

	unread := 0
	for _, n := range list {
		mark := "[x]"
		if !n.IsRead {
			mark = "[ ]"
			unread++
		}
		fmt.Fprintf(a.out, "%s %s  %s: %s\n", mark, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Title, n.Message)
	}
	fmt.Fprintf(a.out, "%d notifications, %d unread\n", len(list), unread)
	return nil
}

func (a *app) readAll(ctx context.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}
	if err := a.client.MarkAllRead(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All notifications marked as read.")
	return nil
}
