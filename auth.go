package duosite

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuthForm is the state of the sign-in / sign-up page.
type AuthForm struct {
	Mode  string // "signin" or "signup"
	Email string
	Error string
}

func authMode(v string) string {
	if v == "signup" {
		return "signup"
	}
	return "signin"
}

// landingPath is where a freshly signed-in account goes.
func (a *App) landingPath(c echo.Context, acc Account) string {
	if a.Store.IsAdmin(c.Request().Context(), Identity{UserID: acc.ID, Email: acc.Email}) {
		return "/dashboard/"
	}
	return "/"
}

func (a *App) handleAuth(c echo.Context) error {
	id := CurrentIdentity(c)
	if id.Authenticated() {
		return c.Redirect(http.StatusSeeOther, a.landingPath(c, Account{ID: id.UserID, Email: id.Email}))
	}
	return Render(c, a.Views.Auth(a.page(c, "Sign in"), AuthForm{Mode: authMode(c.QueryParam("mode"))}))
}

func (a *App) renderAuth(c echo.Context, code int, form AuthForm) error {
	title := "Sign in"
	if form.Mode == "signup" {
		title = "Create account"
	}
	return RenderStatus(c, code, a.Views.Auth(a.page(c, title), form))
}

func (a *App) handleSignIn(c echo.Context) error {
	ip := c.RealIP()
	form := AuthForm{Mode: "signin", Email: c.FormValue("email")}
	if !a.loginLimiter.Check(ip) {
		a.Metrics.signIn("limited")
		form.Error = "Too many sign-in attempts. Try again later."
		return a.renderAuth(c, http.StatusTooManyRequests, form)
	}

	acc, err := a.Store.SignIn(c.Request().Context(), form.Email, c.FormValue("password"))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			a.loginLimiter.Record(ip)
			a.Metrics.signIn("failure")
			form.Error = "Invalid email or password."
			return a.renderAuth(c, http.StatusUnauthorized, form)
		}
		return err
	}

	a.loginLimiter.Reset(ip)
	a.Metrics.signIn("success")
	if err := setSessionAccount(c, acc); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, a.landingPath(c, acc))
}

func (a *App) handleSignUp(c echo.Context) error {
	form := AuthForm{Mode: "signup", Email: c.FormValue("email")}
	acc, err := a.Store.SignUp(c.Request().Context(), form.Email, c.FormValue("password"))
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			form.Error = ve.Error()
			return a.renderAuth(c, http.StatusBadRequest, form)
		}
		return err
	}
	if err := setSessionAccount(c, acc); err != nil {
		return err
	}
	AddNotice(c, "Welcome! Your account is ready.")
	return c.Redirect(http.StatusSeeOther, "/")
}

func handleSignOut(c echo.Context) error {
	if err := clearSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
