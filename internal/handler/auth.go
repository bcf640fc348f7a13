package handler

import (
    "context"
    "database/sql"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/makshevelkin/MIPTORENT/internal/config"
    "github.com/makshevelkin/MIPTORENT/internal/model"
    "github.com/makshevelkin/MIPTORENT/internal/queue"
    "github.com/makshevelkin/MIPTORENT/internal/repository"
    queue_publisher "github.com/makshevelkin/MIPTORENT/internal/service"
    "github.com/makshevelkin/MIPTORENT/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Email    string `json:"email"`
    FullName string `json:"full_name"`
    Password string `json:"password"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type forgotReq struct {
    Email string `json:"email"`
}
type resetReq struct {
    Token    string `json:"token"`
    Password string `json:"password"`
}
type profileReq struct {
    Email    string `json:"email"`
    FullName string `json:"full_name"`
    Password string `json:"password"` // optional, empty means keep
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID             uint64 `json:"id"`
    Email          string `json:"email"`
    FullName       string `json:"full_name"`
    Role           string `json:"role"`
    EmailConfirmed bool   `json:"email_confirmed"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role, EmailConfirmed: u.EmailConfirmed}
}

// sendConfirmationMail enqueues the confirmation link email.  Delivery
// is fire-and-forget: a broker outage must not fail registration.
func (h *AuthHandler) sendConfirmationMail(userID uint64, email, token string) {
    link := h.Cfg.BaseURL + "/v1/auth/confirm/" + token
    _ = queue_publisher.PublishMail(context.Background(), queue.MailEvent{
        Kind:    queue.MailKindConfirmation,
        To:      email,
        Subject: "Подтверждение почты",
        Body:    fmt.Sprintf("Для подтверждения почты перейдите по ссылке: %s", link),
        UserID:  userID,
    })
}

// Register creates a user, enqueues the confirmation email and returns
// a token pair immediately so the client can keep the session. The
// account stays restricted until the link is followed: login refuses
// unconfirmed credentials and booking re-checks the flag.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.FullName = strings.TrimSpace(req.FullName)
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    confirmTok, err := utils.NewMailToken()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    uid, err := h.Users.Create(ctx, req.Email, req.FullName, req.Password, model.RoleUser, confirmTok, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    h.sendConfirmationMail(uid, req.Email, confirmTok)

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, model.RoleUser, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }

    return c.JSON(http.StatusCreated, authResp{
        User:    userPart{ID: uid, Email: req.Email, FullName: req.FullName, Role: model.RoleUser},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if !u.EmailConfirmed {
        // Re-send the link so a lost email does not lock the account
        // out forever.  A fresh token is minted only when none is
        // pending.
        token := ""
        if u.ConfirmationToken != nil {
            token = *u.ConfirmationToken
        }
        if token == "" {
            if token, err = utils.NewMailToken(); err == nil {
                _ = h.Users.SetConfirmationToken(ctx, u.ID, token)
            }
        }
        if token != "" {
            h.sendConfirmationMail(u.ID, u.Email, token)
        }
        return c.JSON(http.StatusForbidden, echo.Map{"error": "email not confirmed, confirmation link re-sent"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }

    return c.JSON(http.StatusOK, authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    })
}

// Refresh rotates the token pair: the presented refresh token is
// revoked and a new one stored in the same transaction.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    raw := strings.TrimSpace(req.RefreshToken)
    hash := utils.HashRefreshRaw(raw)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.RotateRefresh(ctx, userID, hash, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }

    return c.JSON(http.StatusOK, authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
    })
}

// RefreshAccess validates a refresh token and returns a new access token
// WITHOUT rotating the refresh token.  Useful for obtaining a fresh
// short-lived access token while reusing an existing session.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    raw := strings.TrimSpace(req.RefreshToken)
    hash := utils.HashRefreshRaw(raw)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes sessions.  Two modes: a refresh token in the body
// revokes that single session; a bare Authorization header with no body
// token revokes every session the user holds.  The JWT is parsed here
// so the route can stay outside the auth middleware; a logout with an
// expired access token but a live refresh token must still work.
func (h *AuthHandler) Logout(c echo.Context) error {
    var uid uint64
    hasBearer := false
    authHeader := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(authHeader, "Bearer ") {
        rawToken := strings.TrimPrefix(authHeader, "Bearer ")
        tok, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
            if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                return nil, echo.ErrUnauthorized
            }
            return []byte(h.Cfg.JWTSecret), nil
        })
        if err == nil && tok.Valid {
            if claims, ok := tok.Claims.(jwt.MapClaims); ok {
                switch subVal := claims["sub"].(type) {
                case float64:
                    uid = uint64(subVal)
                    hasBearer = true
                case string:
                    if parsed, err := strconv.ParseUint(subVal, 10, 64); err == nil {
                        uid = parsed
                        hasBearer = true
                    }
                }
            }
        }
    }

    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if hasBearer && refreshToken == "" {
        if uid == 0 {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    if refreshToken != "" {
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Confirm marks the account behind the emailed token as confirmed.
func (h *AuthHandler) Confirm(c echo.Context) error {
    token := strings.TrimSpace(c.Param("token"))
    if token == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.ConfirmByToken(ctx, token); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid or used confirmation link"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "confirmed"})
}

// ForgotPassword enqueues a password reset email.  The response is the
// same whether the email exists or not, so the endpoint cannot be used
// to probe for accounts.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req forgotReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    token, err := utils.NewMailToken()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
    }
    u, err := h.Users.SetResetToken(ctx, req.Email, token, time.Now().UTC().Add(time.Hour))
    if err == nil {
        link := h.Cfg.BaseURL + "/reset-password?token=" + token
        _ = queue_publisher.PublishMail(context.Background(), queue.MailEvent{
            Kind:    queue.MailKindPasswordReset,
            To:      u.Email,
            Subject: "Восстановление пароля",
            Body:    fmt.Sprintf("Для сброса пароля перейдите по ссылке: %s", link),
            UserID:  u.ID,
        })
    } else if err != sql.ErrNoRows {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// ResetPassword sets a new password for a valid reset token and revokes
// every existing session.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // Resolve the account before consuming the token so sessions can be
    // revoked afterwards.
    u, err := h.Users.GetByResetToken(ctx, strings.TrimSpace(req.Token))
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid or expired reset link"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
    }
    if err := h.Users.ResetPasswordByToken(ctx, strings.TrimSpace(req.Token), req.Password, h.Cfg.BcryptCost); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid or expired reset link"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
    }
    _ = h.Tokens.RevokeAllForUser(ctx, u.ID)
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}

// UpdateMe edits the profile.  Changing the email resets the confirmed
// flag and re-sends the confirmation link to the new address.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req profileReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.FullName = strings.TrimSpace(req.FullName)
    if req.Email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    emailChanged := req.Email != u.Email

    if err := h.Users.UpdateProfile(ctx, uid, req.FullName, req.Email); err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    if emailChanged {
        token, err := utils.NewMailToken()
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
        }
        if err := h.Users.SetConfirmationToken(ctx, uid, token); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
        }
        h.sendConfirmationMail(uid, req.Email, token)
    }
    if req.Password != "" {
        if err := h.Users.UpdatePassword(ctx, uid, req.Password, h.Cfg.BcryptCost); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
        }
    }

    u, err = h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}
