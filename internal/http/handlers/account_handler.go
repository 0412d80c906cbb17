package handlers

import (
	"errors"
	"net/http"

	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/http/middleware"
	"github.com/forsetihq/flowd/internal/http/response"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/service"
)

// AccountHandler serves the authenticated account surface, which stays
// reachable even while a credential update is owed.
type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountView struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	MaskedPhone string `json:"masked_phone,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	MustUpdate  bool   `json:"must_update_credentials"`
	HasTOTP     bool   `json:"has_authenticator"`
}

func viewOf(a *domain.Account) accountView {
	v := accountView{
		ID:          a.ID,
		Username:    a.Username,
		MaskedPhone: a.MaskedPhone(),
		IsAdmin:     a.IsAdmin,
		MustUpdate:  a.MustUpdateCredentials,
		HasTOTP:     a.TOTPSecret != "",
	}
	if a.Email != nil {
		v.Email = *a.Email
	}
	return v
}

// Get returns the caller's own profile.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromContext(r.Context())
	response.JSON(w, r, http.StatusOK, viewOf(account))
}

// BeginTOTPSetup hands out enrollment material for an account that owes an
// authenticator secret.
func (h *AccountHandler) BeginTOTPSetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	account := middleware.AccountFromContext(r.Context())
	material, err := h.accounts.BeginTOTPSetup(r.Context(), sess.ID, account.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotApplicable) {
			response.Error(w, r, http.StatusConflict, "ALREADY_CONFIGURED", "an authenticator is already registered", nil)
			return
		}
		response.InternalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, material)
}

// Update applies a credential change and, on success, releases the session
// from the must-update state.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		Proof           string `json:"proof"`
	}
	if !decode(w, r, &body) {
		return
	}
	sess := middleware.SessionFromContext(r.Context())
	account := middleware.AccountFromContext(r.Context())
	updated, err := h.accounts.UpdateCredentials(r.Context(), sess.ID, sess.ID, account.ID, service.CredentialUpdate{
		Username:        body.Username,
		Email:           body.Email,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
		Proof:           body.Proof,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHandleRequired):
			response.Error(w, r, http.StatusBadRequest, "HANDLE_REQUIRED", "handle must not be empty", nil)
		case errors.Is(err, service.ErrPasswordMismatch):
			response.Error(w, r, http.StatusBadRequest, "PASSWORD_MISMATCH", "password confirmation does not match", nil)
		case errors.Is(err, service.ErrNoChangeMade):
			response.Error(w, r, http.StatusBadRequest, "NO_CHANGE", "update must change the handle or set a new password", nil)
		case errors.Is(err, service.ErrMFASetupRequired):
			response.Error(w, r, http.StatusBadRequest, "MFA_SETUP_REQUIRED", "authenticator setup must be completed first", nil)
		case errors.Is(err, service.ErrInvalidProof):
			response.Error(w, r, http.StatusUnauthorized, "INVALID_PROOF", "authenticator proof code rejected", nil)
		case errors.Is(err, repository.ErrDuplicate):
			response.Error(w, r, http.StatusConflict, "HANDLE_TAKEN", "handle or email is already in use", nil)
		default:
			response.InternalError(w, r, err)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, viewOf(updated))
}

// Create provisions a new account. Open to anonymous callers only while the
// store is empty; afterwards it is an admin operation.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
		CountryCode string `json:"country_code"`
		IsAdmin     bool   `json:"is_admin"`
		ForceUpdate bool   `json:"force_update"`
	}
	if !decode(w, r, &body) {
		return
	}
	actor := middleware.AccountFromContext(r.Context())
	account, err := h.accounts.CreateAccount(r.Context(), actor, service.NewAccountInput{
		Username:    body.Username,
		Password:    body.Password,
		Email:       body.Email,
		PhoneNumber: body.PhoneNumber,
		CountryCode: body.CountryCode,
		IsAdmin:     body.IsAdmin,
		ForceUpdate: body.ForceUpdate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "administrator access required", nil)
		case errors.Is(err, service.ErrMissingFields):
			response.Error(w, r, http.StatusBadRequest, "MISSING_FIELDS", "username, password, phone number and country code are required", nil)
		case errors.Is(err, repository.ErrDuplicate):
			response.Error(w, r, http.StatusConflict, "DUPLICATE", "username or email is already in use", nil)
		default:
			response.InternalError(w, r, err)
		}
		return
	}
	response.JSON(w, r, http.StatusCreated, viewOf(account))
}
