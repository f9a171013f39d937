package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campus-showcase/showcase-backend/auth"
	"github.com/campus-showcase/showcase-backend/errs"
	"github.com/campus-showcase/showcase-backend/models"
)

type userHandler struct {
	responder   Responder
	logger      zerolog.Logger
	userRepo    userStore
	jwtSecret   []byte
	enforceAuth bool
}

func newUserHandler(userRepo userStore, jwtSecret []byte, enforceAuth bool) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		enforceAuth: enforceAuth,
	}
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RollNo   *int   `json:"rollNo"`
	Course   string `json:"course"`
	Year     *int   `json:"year"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	RollNo   *int    `json:"rollNo"`
	Course   *string `json:"course"`
	Year     *int    `json:"year"`
	Role     *string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Role    string `json:"role"`
	UserID  string `json:"userId"`
}

// createUser registers a new account. The password is stored as a bcrypt hash
// and never echoed back.
func (h userHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode user request body")
			h.responder.WriteError(w, errs.NewInvalidJSONError(err))
			return
		}

		if req.Password == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("password"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalError("failed to hash password"))
			return
		}

		user := models.User{
			ID:       uuid.New(),
			Name:     req.Name,
			Email:    req.Email,
			Password: string(hash),
			RollNo:   req.RollNo,
			Course:   req.Course,
			Year:     req.Year,
			Role:     req.Role,
		}
		if user.Course == "" {
			user.Course = "Unknown"
		}
		if user.Role == "" {
			user.Role = "user"
		}

		if err := h.userRepo.Add(r.Context(), &user); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "user", err))
			return
		}

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, user)
	}
}

// getAllUsers returns every user document, unfiltered and unpaginated.
func (h userHandler) getAllUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.userRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "users", err))
			return
		}
		if users == nil {
			users = []*models.User{}
		}
		h.responder.WriteJSON(w, users)
	}
}

// getUsersByCourse filters users by exact course match.
func (h userHandler) getUsersByCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := chi.URLParam(r, "course")
		if course == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing course"))
			return
		}

		users, err := h.userRepo.FindByCourse(r.Context(), course)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "users", err))
			return
		}
		if users == nil {
			users = []*models.User{}
		}
		h.responder.WriteJSON(w, users)
	}
}

// getUserByEmail looks up a single user by exact email.
func (h userHandler) getUserByEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := unescapeParam(chi.URLParam(r, "email"))
		if email == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing email"))
			return
		}

		user, err := h.userRepo.FindByEmail(r.Context(), email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("user not found"))
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

// getUser retrieves a single user by id.
func (h userHandler) getUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, apiErr := parseIDParam(r, "id")
		if apiErr != nil {
			h.responder.WriteError(w, apiErr)
			return
		}

		user, err := h.userRepo.FindByID(r.Context(), userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("user not found"))
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

// updateUser overwrites the provided fields of a user. Absent fields keep their
// stored values; a provided password is re-hashed. With auth enforcement on,
// only the account owner or an admin may update, and only admins may change roles.
func (h userHandler) updateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, apiErr := parseIDParam(r, "id")
		if apiErr != nil {
			h.responder.WriteError(w, apiErr)
			return
		}

		var req updateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode user request body")
			h.responder.WriteError(w, errs.NewInvalidJSONError(err))
			return
		}

		if h.enforceAuth {
			callerID, err := ctxGetUserID(r.Context())
			if err != nil {
				h.responder.WriteError(w, errs.NewMissingTokenError())
				return
			}
			callerRole, _ := ctxGetRole(r.Context())
			if callerID != userID.String() && callerRole != "admin" {
				h.responder.WriteError(w, errs.NewForbiddenError("not authorized to update this user"))
				return
			}
			if req.Role != nil && callerRole != "admin" {
				h.responder.WriteError(w, errs.NewForbiddenError("only admins may change roles"))
				return
			}
		}

		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if req.Password != nil {
			if *req.Password == "" {
				h.responder.WriteError(w, errs.NewInvalidFieldError("password", "must not be empty"))
				return
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				h.responder.WriteError(w, errs.NewInternalError("failed to hash password"))
				return
			}
			updates["password"] = string(hash)
		}
		if req.RollNo != nil {
			updates["roll_no"] = *req.RollNo
		}
		if req.Course != nil {
			updates["course"] = *req.Course
		}
		if req.Year != nil {
			updates["year"] = *req.Year
		}
		if req.Role != nil {
			updates["role"] = *req.Role
		}

		if len(updates) == 0 {
			user, err := h.userRepo.FindByID(r.Context(), userID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.responder.WriteError(w, errs.NewNotFoundError("user not found"))
				return
			}
			if err != nil {
				h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
				return
			}
			h.responder.WriteJSON(w, user)
			return
		}

		user, err := h.userRepo.Update(r.Context(), userID, updates)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("user not found"))
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "user", err))
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

// deleteUser removes a user by id. Deleting an absent id reports 404.
func (h userHandler) deleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, apiErr := parseIDParam(r, "id")
		if apiErr != nil {
			h.responder.WriteError(w, apiErr)
			return
		}

		err := h.userRepo.Delete(r.Context(), userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("user not found"))
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "user", err))
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "user deleted successfully",
		})
	}
}

// login authenticates by email and password and issues a one-hour token
// carrying {id, role}. Unknown email is 404; wrong password is 401.
func (h userHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewInvalidJSONError(err))
			return
		}
		if req.Email == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("email"))
			return
		}
		if req.Password == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("password"))
			return
		}

		user, err := h.userRepo.FindByEmail(r.Context(), req.Email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("user not found"))
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}

		token, err := auth.GenerateToken(user.ID.String(), user.Role, h.jwtSecret, auth.TokenValidity)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to sign login token")
			h.responder.WriteError(w, errs.NewInternalError("failed to issue token"))
			return
		}

		h.responder.WriteJSON(w, loginResponse{
			Message: "Login successful",
			Token:   token,
			Role:    user.Role,
			UserID:  user.ID.String(),
		})
	}
}

// searchUsers matches the query as a case-insensitive substring of name or
// email and returns the {id, name, email} projection. A missing query yields
// an empty list, never an error.
func (h userHandler) searchUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			h.responder.WriteJSON(w, []models.UserRef{})
			return
		}

		refs, err := h.userRepo.Search(r.Context(), query)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("search", "users", err))
			return
		}
		if refs == nil {
			refs = []models.UserRef{}
		}
		h.responder.WriteJSON(w, refs)
	}
}

// userStats returns the dashboard's active-student count.
func (h userHandler) userStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.userRepo.CountByRole(r.Context(), "user")
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("count", "users", err))
			return
		}
		h.responder.WriteJSON(w, map[string]int64{"activeStudents": count})
	}
}

// parseIDParam reads and validates a uuid path parameter.
func parseIDParam(r *http.Request, name string) (uuid.UUID, *errs.ApiErr) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewBadRequestError("missing " + name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid " + name)
	}
	return id, nil
}
