package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/report"
	"github.com/trezcool/tutorhub/core/user"
)

type reportApi struct {
	svc      *report.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service, userSvc *user.Service, validate *validator.Validate) {
	api := reportApi{svc: svc, userSvc: userSvc, validate: validate}

	rg := g.Group("/reports", jwt)
	rg.POST("", api.issue, roleMiddleware(user.RoleTutor))
	rg.GET("", api.queryByStudent)
	rg.GET("/:id", api.get)

	g.GET("/students/:id/digest", api.digest, jwt)
	g.POST("/encouragements", api.encourage, jwt, roleMiddleware(user.RoleParent))
}

// Handlers

func (api *reportApi) issue(ctx echo.Context) error {
	var data report.NewReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rep, err := api.svc.Issue(usr, data)
	if err != nil {
		return errors.Wrap(err, "issuing monthly report")
	}
	return ctx.JSON(http.StatusCreated, rep)
}

func (api *reportApi) get(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rep, err := api.svc.Get(usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting monthly report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) queryByStudent(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	studentID := ctx.QueryParam("student_id")
	if studentID == "" {
		studentID = usr.ID
	}

	reps, err := api.svc.QueryByStudent(usr, studentID)
	if err != nil {
		return errors.Wrap(err, "querying monthly reports")
	}
	if reps == nil {
		reps = []report.MonthlyReport{}
	}
	return ctx.JSON(http.StatusOK, reps)
}

func (api *reportApi) digest(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	digest, err := api.svc.BuildDigest(usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building digest")
	}
	return ctx.JSON(http.StatusOK, digest)
}

func (api *reportApi) encourage(ctx echo.Context) error {
	var data report.Encouragement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Encouragement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Encourage(usr, data); err != nil {
		return errors.Wrap(err, "sending encouragement")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "encouragement sent"})
}
