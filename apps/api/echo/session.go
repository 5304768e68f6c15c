package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/session"
	"github.com/trezcool/tutorhub/core/user"
)

type NoteResponse struct {
	Note    session.SessionNote `json:"note"`
	Warning string              `json:"warning,omitempty"`
}

type sessionApi struct {
	svc      *session.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *session.Service, userSvc *user.Service, validate *validator.Validate) {
	api := sessionApi{svc: svc, userSvc: userSvc, validate: validate}

	cg := g.Group("/calendar", jwt)
	cg.POST("/propose", api.propose, roleMiddleware(user.RoleTutor))
	cg.POST("/:id/confirm", api.confirm, roleMiddleware(user.RoleParent))
	cg.POST("/:id/reschedule", api.reschedule)
	cg.POST("/:id/attendance", api.logAttendance, roleMiddleware(user.RoleTutor))

	g.POST("/attendance/:id/sign", api.signAttendance, jwt, roleMiddleware(user.RoleParent))

	ng := g.Group("/notes", jwt)
	ng.POST("", api.createNote, roleMiddleware(user.RoleTutor))
	ng.GET("", api.queryNotes)
}

// Handlers

func (api *sessionApi) propose(ctx echo.Context) error {
	var data session.NewProposal
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProposal")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	events, err := api.svc.Propose(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "proposing calendar events")
	}
	return ctx.JSON(http.StatusCreated, events)
}

func (api *sessionApi) confirm(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.Confirm(usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "confirming calendar event")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *sessionApi) reschedule(ctx echo.Context) error {
	var data session.Window
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Window")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ev, err := api.svc.Reschedule(usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "rescheduling calendar event")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *sessionApi) logAttendance(ctx echo.Context) error {
	var data session.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lg, err := api.svc.LogAttendance(usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "logging attendance")
	}
	return ctx.JSON(http.StatusCreated, lg)
}

func (api *sessionApi) signAttendance(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	lg, err := api.svc.SignAttendance(usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "signing attendance")
	}
	return ctx.JSON(http.StatusOK, lg)
}

func (api *sessionApi) createNote(ctx echo.Context) error {
	var data session.NewNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNote")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	note, warning, err := api.svc.CreateNote(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating session note")
	}
	return ctx.JSON(http.StatusCreated, NoteResponse{Note: note, Warning: warning})
}

func (api *sessionApi) queryNotes(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	studentID := ctx.QueryParam("student_id")
	if studentID == "" {
		studentID = usr.ID
	}

	notes, err := api.svc.QueryNotes(usr, studentID)
	if err != nil {
		return errors.Wrap(err, "querying session notes")
	}
	if notes == nil {
		notes = []session.SessionNote{}
	}
	return ctx.JSON(http.StatusOK, notes)
}
