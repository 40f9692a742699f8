package http

import (
	"errors"
	"net/http"

	"donations/internal/log"
	"donations/internal/session"
)

const sessionCookie = "donations_session"

// localSession stands in for a login when the gate is disabled.
var localSession = &session.Session{Username: "local", Authenticated: true}

// withSession resolves the session cookie and attaches the session to the
// request context. Requests without a valid cookie carry no session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.sessions == nil {
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), localSession)))
			return
		}
		if c, err := r.Cookie(sessionCookie); err == nil {
			if sess, ok := s.sessions.Get(c.Value); ok {
				r = r.WithContext(session.WithSession(r.Context(), sess))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func authenticated(r *http.Request) bool {
	sess := session.FromContext(r.Context())
	return sess != nil && sess.Authenticated
}

// requireAuth sends anonymous visitors to the login page. htmx requests
// get HX-Redirect so the whole page navigates instead of a partial swap.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authenticated(r) {
			next(w, r)
			return
		}
		if isHTMX(r) {
			NewHTMXResponse().Redirect("/login").Status(http.StatusUnauthorized).Write(w)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

type loginPage struct {
	Error    string
	Username string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if authenticated(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if !ParseFormOrFail(w, r) {
		return
	}
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentSession)

	username := sanitizeInput(r.PostFormValue("username"))
	sess, err := s.sessions.Login(username, r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			logger.WarnContext(r.Context(), "Rejected login", log.FieldOperation, log.OpLogin, "username", username)
		} else {
			logger.ErrorContext(r.Context(), "Login failed", log.FieldOperation, log.OpLogin, log.FieldError, err)
		}
		s.render(w, r, http.StatusUnauthorized, "login.html", loginPage{
			Error:    "Invalid username or password.",
			Username: username,
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	logger.InfoContext(r.Context(), "User logged in", log.FieldOperation, log.OpLogin, "username", sess.Username)

	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.sessions != nil {
		if c, err := r.Cookie(sessionCookie); err == nil {
			s.sessions.Logout(c.Value)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.FromContext(r.Context()).WithComponent(log.ComponentSession).
		InfoContext(r.Context(), "User logged out", log.FieldOperation, log.OpLogout)

	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
