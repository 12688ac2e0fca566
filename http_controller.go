package adminauth

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-admin-auth/middleware/authware"
)

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// AuthControllerRoutes holds the route paths, override via options when the
// mount point differs.
type AuthControllerRoutes struct {
	Login           string
	Register        string
	PendingRequests string
	UpdateRequest   string
	Me              string
	SubAdmins       string
	SubAdminStatus  string
	SubAdminDelete  string
}

// AuthController serves the account endpoints: login, registration, the
// review queue, and sub admin management.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	Guard        *RouteGuard
	Provisioning *Provisioning
	Register     *RegisterPrincipalHandler
	Config       Config
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithGuard(guard *RouteGuard) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Guard = guard
		return c
	}
}

func WithConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithProvisioning(p *Provisioning) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Provisioning = p
		return c
	}
}

func WithRegisterHandler(h *RegisterPrincipalHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = h
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: RenderError,
		Routes: &AuthControllerRoutes{
			Login:           "/auth/login",
			Register:        "/auth/register",
			PendingRequests: "/auth/pending-requests",
			UpdateRequest:   "/auth/update-request-status/:id",
			Me:              "/auth/me",
			SubAdmins:       "/admin/sub-admins",
			SubAdminStatus:  "/admin/sub-admins/:id/status",
			SubAdminDelete:  "/admin/sub-admins/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Guard == nil {
		guard, err := NewRouteGuard(c.Auther, c.Config)
		if err != nil {
			panic("Failed to build route guard: " + err.Error())
		}
		c.Guard = guard
	}

	if c.Provisioning == nil {
		c.Provisioning = NewProvisioning(c.Repo)
	}

	if c.Register == nil {
		c.Register = NewRegisterPrincipalHandler(c.Repo, c.Auther)
	}

	return c
}

// RegisterAuthRoutes mounts the account endpoints. Login and register are
// public; register enforces its conditional authentication internally so the
// very first account can bootstrap the system.
func RegisterAuthRoutes(app RouteRegistrar, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	authenticated := controller.Guard.Authenticated()
	superOnly := controller.Guard.RequireSuperAdmin()

	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Get(controller.Routes.Me, controller.Me, authenticated)

	app.Get(controller.Routes.PendingRequests, controller.PendingRequests, superOnly)
	app.Patch(controller.Routes.UpdateRequest, controller.UpdateRequestStatus, superOnly)

	app.Get(controller.Routes.SubAdmins, controller.ListSubAdmins, superOnly)
	app.Patch(controller.Routes.SubAdminStatus, controller.UpdateSubAdminStatus, superOnly)
	app.Delete(controller.Routes.SubAdminDelete, controller.DeleteSubAdmin, superOnly)

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("login attempt: %s", print.MaybePrettyJSON(map[string]any{
			"email": payload.Email,
		}))
	}

	token, principal, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
		"user":  principal.Project(),
	})
}

// RegistrationCreatePayload is the registration payload. Role is accepted for
// compatibility with existing clients but the workflow decides the actual
// role.
type RegistrationCreatePayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	// best effort token extraction, the workflow decides whether one is
	// required at all
	rawToken, _ := authware.ExtractRawTokenFromContext(
		ctx,
		authware.GetExtractors(a.Config.GetTokenLookup(), a.Config.GetAuthScheme()),
	)

	var response *RegisterPrincipalResponse
	msg := RegisterPrincipalMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Secret:   payload.Password,
		Role:     payload.Role,
		RawToken: rawToken,
		OnResponse: func(r *RegisterPrincipalResponse) {
			response = r
		},
	}

	if err := a.Register.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("register error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	message := "Registration successful. Waiting for approval."
	if response.IsBootstrap {
		message = "Super admin created successfully"
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"message": message,
		"user":    response.Principal.Project(),
	})
}

func (a *AuthController) Me(ctx router.Context) error {
	principal, ok := PrincipalFromContext(ctx.Context())
	if !ok {
		return a.ErrorHandler(ctx, ErrAuthenticationFailed)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": principal.Project(),
	})
}

func (a *AuthController) PendingRequests(ctx router.Context) error {
	records, err := a.Provisioning.ListPending(ctx.Context())
	if err != nil {
		a.Logger.Error("pending requests error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, ProjectAll(records))
}

// UpdateRequestPayload carries the review decision.
type UpdateRequestPayload struct {
	RequestStatus string `form:"request_status" json:"requestStatus"`
}

// Validate will validate the payload
func (r UpdateRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.RequestStatus,
			validation.Required,
			validation.In(StatusApproved, StatusRejected),
		),
	)
}

func (a *AuthController) UpdateRequestStatus(ctx router.Context) error {
	payload := new(UpdateRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	id, err := a.paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	actor, _ := PrincipalFromContext(ctx.Context())

	record, err := a.Provisioning.ApproveOrReject(ctx.Context(), actor, id, payload.RequestStatus)
	if err != nil {
		a.Logger.Error("update request status error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Request status updated successfully",
		"user":    record.Project(),
	})
}

func (a *AuthController) ListSubAdmins(ctx router.Context) error {
	records, err := a.Provisioning.ListSubAdmins(ctx.Context())
	if err != nil {
		a.Logger.Error("list sub admins error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, ProjectAll(records))
}

// SubAdminStatusPayload sets the account kill switch.
type SubAdminStatusPayload struct {
	IsActive *bool `form:"is_active" json:"isActive"`
}

// Validate will validate the payload
func (r SubAdminStatusPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IsActive, validation.NotNil),
	)
}

func (a *AuthController) UpdateSubAdminStatus(ctx router.Context) error {
	payload := new(SubAdminStatusPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	id, err := a.paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	actor, _ := PrincipalFromContext(ctx.Context())

	record, err := a.Provisioning.SetActiveStatus(ctx.Context(), actor, id, *payload.IsActive)
	if err != nil {
		a.Logger.Error("update sub admin status error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message":  "Sub-admin status updated successfully",
		"subAdmin": record.Project(),
	})
}

func (a *AuthController) DeleteSubAdmin(ctx router.Context) error {
	id, err := a.paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	actor, _ := PrincipalFromContext(ctx.Context())

	if _, err := a.Provisioning.Delete(ctx.Context(), actor, id); err != nil {
		a.Logger.Error("delete sub admin error: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Sub-admin deleted successfully",
	})
}

func (a *AuthController) paramID(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.New("Invalid account identifier", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"id": raw})
	}
	return id, nil
}

func (a *AuthController) validationError(ctx router.Context, err error) error {
	return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
		WithCode(goerrors.CodeBadRequest))
}
