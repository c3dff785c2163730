package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sekai-set-on/web-portal/gateway"
	"github.com/sekai-set-on/web-portal/validation"
)

// SignInGetHandler renders the sign-in form. A browser that already holds a session goes
// straight to the dashboard.
func (s *Server) SignInGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("signin.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(w, r, "Sign in")
		if data.SignedIn && data.Error == "" {
			redirectSuccess(w, r, RouteDashboard)
			return
		}
		data.Form["identification"] = r.URL.Query().Get("identification")
		render(w, tmpl, http.StatusOK, data)
	}
}

// SignInPostHandler exchanges credentials for tokens and stores them as cookies
func (s *Server) SignInPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := validation.SignInForm{
			Identification: strings.TrimSpace(r.PostFormValue("identification")),
			Password:       r.PostFormValue("password"),
		}
		if err := form.Validate(); err != nil {
			redirectWithError(w, r, RouteSignIn, validation.Message(err))
			return
		}

		gw := s.gatewayFor(s.sessionFor(w, r))
		if _, err := gw.SignIn(r.Context(), gateway.SignInRequest{
			Identification: form.Identification,
			Password:       form.Password,
		}); err != nil {
			log.Info().Err(err).Msg("Sign in rejected")
			redirectWithError(w, r, RouteSignIn, err.Error())
			return
		}

		redirectSuccess(w, r, RouteDashboard)
	}
}

func (s *Server) SignUpGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("signup.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, tmpl, http.StatusOK, s.pageData(w, r, "Create an account"))
	}
}

// SignUpPostHandler registers the account and sends the user to enter their emailed code
func (s *Server) SignUpPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := validation.SignUpForm{
			Name:            strings.TrimSpace(r.PostFormValue("name")),
			Nickname:        strings.TrimSpace(r.PostFormValue("nickname")),
			Email:           strings.TrimSpace(r.PostFormValue("email")),
			Password:        r.PostFormValue("password"),
			ConfirmPassword: r.PostFormValue("confirmPassword"),
		}
		if err := form.Validate(); err != nil {
			redirectWithError(w, r, RouteSignUp, validation.Message(err))
			return
		}

		if _, err := s.gatewayFor(nil).SignUp(r.Context(), gateway.SignUpRequest{
			Email:    form.Email,
			Password: form.Password,
			Name:     form.Name,
			Nickname: form.Nickname,
		}); err != nil {
			redirectWithError(w, r, RouteSignUp, err.Error())
			return
		}

		redirectSuccess(w, r, withQuery(RouteVerifyEmail, "email", form.Email))
	}
}

func (s *Server) VerifyEmailGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("verify_email.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(w, r, "Verify your email")
		data.Form["email"] = r.URL.Query().Get("email")
		render(w, tmpl, http.StatusOK, data)
	}
}

func (s *Server) VerifyEmailPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := validation.VerifyEmailForm{
			Email: strings.TrimSpace(r.PostFormValue("email")),
			Code:  strings.TrimSpace(r.PostFormValue("verification_code")),
		}
		back := withQuery(RouteVerifyEmail, "email", form.Email)
		if err := form.Validate(); err != nil {
			redirectWithError(w, r, back, validation.Message(err))
			return
		}

		if _, err := s.gatewayFor(nil).VerifyEmail(r.Context(), gateway.VerifyEmailRequest{
			Email:            form.Email,
			VerificationCode: form.Code,
		}); err != nil {
			redirectWithError(w, r, back, err.Error())
			return
		}

		redirectWithNotice(w, r, RouteSignIn, "Email verified. You can sign in now.")
	}
}

// LogoutHandler forgets the session in this browser only
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agg, _ := s.aggregatorFor(w, r)
		agg.Logout()
		redirectSuccess(w, r, RouteHome)
	}
}
