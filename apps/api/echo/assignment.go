package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/assignment"
	"github.com/trezcool/tutorhub/core/user"
)

type StatusRequest struct {
	Status assignment.Status `json:"status" validate:"required,oneof=Open Submitted Reviewed Resubmitted Finalized"`
}

func (sr *StatusRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(sr)
}

type assignmentApi struct {
	svc      *assignment.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service, userSvc *user.Service, validate *validator.Validate) {
	api := assignmentApi{svc: svc, userSvc: userSvc, validate: validate}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create, roleMiddleware(user.RoleTutor))
	ag.GET("", api.queryByStudent)
	ag.GET("/:id", api.get)
	ag.PUT("/:id/status", api.setStatus)

	sg := g.Group("/submissions", jwt)
	sg.POST("", api.submit, roleMiddleware(user.RoleStudent))
	sg.POST("/:id/review", api.review, roleMiddleware(user.RoleTutor))
	sg.POST("/:id/resubmit", api.resubmit, roleMiddleware(user.RoleStudent))

	g.GET("/students/:id/feedback", api.feedback, jwt)
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Create(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) queryByStudent(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	studentID := ctx.QueryParam("student_id")
	if studentID == "" {
		studentID = usr.ID
	}

	asgs, err := api.svc.QueryByStudent(usr, studentID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.StudentAssignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) get(ctx echo.Context) error {
	asg, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) setStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.SetStatus(ctx.Param("id"), data.Status, usr.ID)
	if err != nil {
		return errors.Wrap(err, "updating assignment status")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	var data assignment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Submit(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) review(ctx echo.Context) error {
	var data assignment.ReviewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Review(usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *assignmentApi) resubmit(ctx echo.Context) error {
	var data assignment.Resubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Resubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Resubmit(usr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "resubmitting")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) feedback(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	state, err := api.svc.Feedback(usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deriving feedback state")
	}
	return ctx.JSON(http.StatusOK, state)
}
