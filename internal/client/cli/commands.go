package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gymkeeper/internal/client/client"
	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
	"github.com/dmitrijs2005/gymkeeper/internal/client/routes"
	"github.com/dmitrijs2005/gymkeeper/internal/client/session"
	"github.com/dmitrijs2005/gymkeeper/internal/common"
)

const helpText = `Available commands:
  login                      log in with email and password
  otp                        log in with a one-time code sent by email
  register                   create a member or trainer account
  logout                     log out
  whoami                     show the current session
  profile [field=value ...]  show or update your profile (firstname, lastname, email, avatar)
  open <route>               go to a screen, e.g. open /member-dashboard
  notifications              list notifications
  read <id>                  mark a notification as read
  help                       show this help
  exit | quit                leave the program`

func (a *App) writePrompt(text string) {
	a.printer.Prompt(text)
}

func (a *App) exec(ctx context.Context, cmd string, args []string) bool {
	var err error

	switch cmd {
	case "help":
		a.printer.Println(helpText)
	case "login":
		err = a.login(ctx)
	case "otp":
		err = a.loginWithOtp(ctx)
	case "register":
		err = a.register(ctx)
	case "logout":
		err = a.session.Logout(ctx, true)
	case "whoami":
		a.whoami()
	case "profile":
		err = a.profile(ctx, args)
	case "open":
		if len(args) != 1 {
			a.printer.Println("Usage: open <route>")
			break
		}
		a.open(routes.Parse(args[0]))
	case "notifications":
		a.listNotifications()
	case "read":
		err = a.markRead(ctx, args)
	case "exit", "quit":
		a.printer.Println("Bye!")
		return true
	default:
		a.printer.Println("Unknown command: %s", cmd)
	}

	if err != nil {
		a.printer.Error("%s", describeError(err))
	}
	return false
}

func (a *App) login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.printer)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.printer)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.session.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	a.welcome(s)
	return nil
}

func (a *App) loginWithOtp(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.printer)
	if err != nil {
		return err
	}
	if err := a.session.SendOtp(ctx, email); err != nil {
		return err
	}
	a.printer.Info("If the address is registered, a code is on its way.")

	code, err := GetSimpleText(a.reader, "Enter the 6-digit code", a.printer)
	if err != nil {
		return err
	}

	s, err := a.session.LoginWithOtp(ctx, email, code)
	if err != nil {
		return err
	}
	a.welcome(s)
	return nil
}

func (a *App) register(ctx context.Context) error {
	var req models.RegisterRequest
	var err error

	if req.Firstname, err = GetSimpleText(a.reader, "Enter first name", a.printer); err != nil {
		return err
	}
	if req.Lastname, err = GetSimpleText(a.reader, "Enter last name", a.printer); err != nil {
		return err
	}
	if req.Email, err = GetSimpleText(a.reader, "Enter email", a.printer); err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.printer)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	role, err := GetTextOrDefault(a.reader, "Role (member/trainer)", "member", a.printer)
	if err != nil {
		return err
	}
	if req.Role, err = models.ParseRole(role); err != nil {
		return &client.ValidationError{Fields: map[string]string{"role": "must be member or trainer"}}
	}

	s, err := a.session.Register(ctx, req)
	if err != nil {
		return err
	}
	a.welcome(s)
	return nil
}

// welcome greets a freshly authenticated user and moves to their home.
func (a *App) welcome(s session.Session) {
	a.printer.Success("Welcome, %s!", s.User.FullName())
	a.open(routes.Root)
}

func (a *App) whoami() {
	s := a.session.Session()
	if s.Status != session.StatusAuthenticated {
		a.printer.Println("Not logged in (%s)", s.Status)
		if hint := a.session.RoleHint(context.Background()); hint != "" {
			a.printer.Println("Last role on this device: %s", hint)
		}
		return
	}

	u := s.User
	a.printer.Println("%s <%s>", u.FullName(), u.Email)
	a.printer.Println("Role: %s", u.Role)
	if u.WalletBalance != nil {
		a.printer.Println("Wallet: %.2f", *u.WalletBalance)
	}
	var screens []string
	for _, r := range a.policy.Routes(s) {
		screens = append(screens, string(r))
	}
	a.printer.Println("Screens: %s", strings.Join(screens, ", "))
}

func (a *App) profile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		s := a.session.Session()
		if s.User == nil {
			return session.ErrNotAuthenticated
		}
		u := s.User
		a.printer.Println("First name: %s", u.Firstname)
		a.printer.Println("Last name:  %s", u.Lastname)
		a.printer.Println("Email:      %s", u.Email)
		if u.Avatar != "" {
			a.printer.Println("Avatar:     %s", u.Avatar)
		}
		return nil
	}

	req, err := parseProfileArgs(args)
	if err != nil {
		return err
	}
	if _, err := a.session.UpdateProfile(ctx, req); err != nil {
		return err
	}
	a.printer.Success("Profile updated")
	return nil
}

func parseProfileArgs(args []string) (models.UpdateProfileRequest, error) {
	var req models.UpdateProfileRequest
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return req, &client.ValidationError{Message: fmt.Sprintf("expected field=value, got %q", arg)}
		}
		v := value
		switch strings.ToLower(key) {
		case "firstname":
			req.Firstname = &v
		case "lastname":
			req.Lastname = &v
		case "email":
			req.Email = &v
		case "avatar":
			req.Avatar = &v
		default:
			return req, &client.ValidationError{Fields: map[string]string{key: "is not an editable field"}}
		}
	}
	return req, nil
}

// open asks the route guard where a request for route leads and moves there.
func (a *App) open(route routes.Route) routes.Outcome {
	out := a.policy.Navigate(a.session.Session(), route)

	switch out.Decision {
	case routes.Pending:
		a.printer.Info("Still checking your session, try again in a moment.")
		return out
	case routes.RedirectLogin:
		a.printer.Warning("Please log in to open %s", route)
	case routes.RedirectHome:
		if route != routes.Root {
			a.printer.Warning("%s is not available, going to %s", route, out.Target)
		}
	}

	a.setRoute(out.Target)
	a.render(out.Target)
	return out
}

func (a *App) render(route routes.Route) {
	name := "you"
	if u := a.session.Session().User; u != nil {
		name = u.FullName()
	}

	switch route {
	case routes.Root:
		a.printer.Println("gymkeeper: book classes, follow your training, manage your gym. Type 'login' or 'register'.")
	case routes.Login:
		a.printer.Println("Log in with 'login' or 'otp'.")
	case routes.Register:
		a.printer.Println("Create an account with 'register'.")
	case routes.MemberDashboard:
		a.printer.Println("Member dashboard for %s", name)
	case routes.TrainerDashboard:
		a.printer.Println("Trainer dashboard for %s", name)
	case routes.AdminDashboard:
		a.printer.Println("Admin dashboard for %s", name)
	}
}

func (a *App) listNotifications() {
	if a.session.Session().Status != session.StatusAuthenticated {
		a.printer.Error("%s", describeError(session.ErrNotAuthenticated))
		return
	}
	ns := a.poller.Latest()
	if len(ns) == 0 {
		a.printer.Println("No notifications")
		return
	}
	for _, n := range ns {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		a.printer.Println("%s %4d  %s  %s", mark, n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
	}
}

func (a *App) markRead(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printer.Println("Usage: read <id>")
		return nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return &client.ValidationError{Fields: map[string]string{"id": "must be a number"}}
	}
	if err := a.poller.MarkRead(ctx, id); err != nil {
		return err
	}
	a.printer.Success("Marked %d as read", id)
	return nil
}

// describeError turns an operation error into a message for the user.
func describeError(err error) string {
	var ve *client.ValidationError
	switch {
	case errors.Is(err, client.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, try again later"
	case errors.Is(err, session.ErrOtpThrottled):
		return "A code was sent recently, please wait before asking again"
	case errors.Is(err, session.ErrSuperseded):
		return "Cancelled by logout"
	case errors.Is(err, session.ErrNotAuthenticated), errors.Is(err, client.ErrUnauthorized):
		return "Please log in first"
	case errors.Is(err, client.ErrForbidden):
		return "You are not allowed to do that"
	default:
		return err.Error()
	}
}
