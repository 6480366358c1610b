package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"studyhub/auth"
	"studyhub/middleware"
	"studyhub/models"
	"studyhub/store"
)

// dummyHash keeps bcrypt running on unknown-user logins so the response time
// does not reveal whether the account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || len(req.Username) > 16 {
		http.Error(w, "username must be 1-16 characters", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || len(req.Email) > 255 {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}
	// bcrypt rejects inputs over 72 bytes.
	if req.Password == "" || len(req.Password) > 72 {
		http.Error(w, "password must be 1-72 characters", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.fail(w, fmt.Errorf("hashing password: %w", err))
		return
	}

	user := models.User{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
	}
	err = s.db.QueryRowContext(r.Context(), `
		INSERT INTO users (username, name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		req.Username, req.Name, req.Email, string(hash)).Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		http.Error(w, "username or email already taken", http.StatusConflict)
		return
	}
	if err != nil {
		s.fail(w, fmt.Errorf("creating user: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFrom(r.Context()) != nil {
		http.Error(w, "Already authenticated", http.StatusBadRequest)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	user := models.User{}
	var accountType int
	err := s.db.QueryRowContext(r.Context(), `
		SELECT id, username, name, email, password, account_type, created_at, require_password_change
		FROM users
		WHERE username = $1 OR email = $1`,
		req.Login).Scan(&user.ID, &user.Username, &user.Name, &user.Email,
		&user.PasswordHash, &accountType, &user.CreatedAt, &user.RequirePasswordChange)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown user and wrong password must be indistinguishable.
		bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
		http.Error(w, "Invalid credentials", http.StatusForbidden)
		return
	}
	if err != nil {
		s.fail(w, fmt.Errorf("looking up user: %w", err))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "Invalid credentials", http.StatusForbidden)
		return
	}
	if user.AccountType, err = models.AccountTypeFromInt(accountType); err != nil {
		s.fail(w, err)
		return
	}

	// A fresh session per login; existing sessions stay valid.
	ident := auth.IdentityFromRequest(r)
	var sessionID int
	err = s.db.QueryRowContext(r.Context(), `
		INSERT INTO sessions (user_id, last_seen, last_ip, last_user_agent)
		VALUES ($1, now(), $2, $3)
		RETURNING id`,
		user.ID, ident.IP, ident.UserAgent).Scan(&sessionID)
	if err != nil {
		s.fail(w, fmt.Errorf("creating session: %w", err))
		return
	}

	token, err := s.transport.Issue(w, sessionID)
	if err != nil {
		s.fail(w, fmt.Errorf("issuing credential: %w", err))
		return
	}
	resp := map[string]any{"user": user}
	if token != "" {
		resp["token"] = token
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "Not authenticated", http.StatusBadRequest)
		return
	}
	// The credential encodes the session id and the resolver already proved
	// it belongs to a live session, so this deletes exactly the caller's own.
	if _, err := s.db.ExecContext(r.Context(), "DELETE FROM sessions WHERE id = $1", sessionID); err != nil {
		s.fail(w, fmt.Errorf("deleting session: %w", err))
		return
	}
	s.transport.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.UserFrom(r.Context()))
}

func (s *Server) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	fields, err := patchFields(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	changes := map[string]any{}
	for name, raw := range fields {
		switch name {
		case "username":
			v, err := decodeString(raw, "username", 16, false)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			changes["username"] = v
		case "name":
			v, err := decodeString(raw, "name", 255, false)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			changes["name"] = v
		case "email":
			v, err := decodeString(raw, "email", 255, false)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if _, err := mail.ParseAddress(v); err != nil {
				http.Error(w, "invalid email", http.StatusBadRequest)
				return
			}
			changes["email"] = v
		case "password":
			// 72 is the bcrypt input limit.
			v, err := decodeString(raw, "password", 72, false)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(v), bcrypt.DefaultCost)
			if err != nil {
				s.fail(w, fmt.Errorf("hashing password: %w", err))
				return
			}
			changes["password"] = string(hash)
			changes["require_password_change"] = false
		default:
			http.Error(w, fmt.Sprintf("unknown field %q", name), http.StatusBadRequest)
			return
		}
	}
	if len(changes) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	cols := make([]string, 0, len(changes))
	for col := range changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, changes[col])
	}
	args = append(args, user.ID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(assignments, ", "), len(cols)+1)

	if _, err := s.db.ExecContext(r.Context(), query, args...); err != nil {
		if isUniqueViolation(err) {
			http.Error(w, "username or email already taken", http.StatusConflict)
			return
		}
		s.fail(w, fmt.Errorf("updating user: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes the user; sessions and owned resources cascade at the
// storage layer.
func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if _, err := s.db.ExecContext(r.Context(), "DELETE FROM users WHERE id = $1", user.ID); err != nil {
		s.fail(w, fmt.Errorf("deleting account: %w", err))
		return
	}
	s.transport.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

const sessionColumns = "id, user_id, last_seen, last_ip, last_user_agent, created_at"

func scanSession(row store.Scanner) (models.Session, error) {
	var sess models.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.LastSeen, &sess.LastIP, &sess.LastUserAgent, &sess.CreatedAt)
	return sess, err
}

func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	rows, err := s.db.QueryContext(r.Context(),
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id = $1 ORDER BY id", user.ID)
	if err != nil {
		s.fail(w, fmt.Errorf("listing sessions: %w", err))
		return
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			s.fail(w, fmt.Errorf("scanning session: %w", err))
			return
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	sess, err := scanSession(s.db.QueryRowContext(r.Context(),
		"SELECT "+sessionColumns+" FROM sessions WHERE id = $1 AND user_id = $2", id, user.ID))
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, fmt.Errorf("fetching session: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession revokes one of the caller's own sessions, current or not.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	res, err := s.db.ExecContext(r.Context(),
		"DELETE FROM sessions WHERE id = $1 AND user_id = $2", id, user.ID)
	if err != nil {
		s.fail(w, fmt.Errorf("deleting session: %w", err))
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PreviewDocument is the anonymous preview surface: title and content only,
// no ownership check, available without authentication.
func (s *Server) PreviewDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	var title string
	var content []byte
	err = s.db.QueryRowContext(r.Context(),
		"SELECT title, content FROM documents WHERE id = $1", id).Scan(&title, &content)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, fmt.Errorf("fetching document: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"title": title, "content": json.RawMessage(content)})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
