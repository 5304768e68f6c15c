package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/policy"
	"github.com/trezcool/tutorhub/core/user"
)

type PolicyRequest struct {
	Rules         policy.Rules `json:"rules" validate:"required"`
	EffectiveFrom time.Time    `json:"effective_from"`
}

func (pr *PolicyRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(pr)
}

type policyApi struct {
	svc      *policy.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerPolicyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *policy.Service, userSvc *user.Service, validate *validator.Validate) {
	api := policyApi{svc: svc, userSvc: userSvc, validate: validate}

	pg := g.Group("/policies", jwt)
	pg.POST("", api.create, roleMiddleware(user.RoleTutor))
	pg.POST("/exceptions", api.applyException)
}

// Handlers

func (api *policyApi) create(ctx echo.Context) error {
	var data PolicyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PolicyRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pol, err := api.svc.Create(policy.Policy{Rules: data.Rules, EffectiveFrom: data.EffectiveFrom})
	if err != nil {
		return errors.Wrap(err, "creating policy")
	}
	return ctx.JSON(http.StatusCreated, pol)
}

func (api *policyApi) applyException(ctx echo.Context) error {
	var data policy.Exception
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Exception")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	eval, err := api.svc.ApplyException(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "evaluating exception")
	}
	return ctx.JSON(http.StatusOK, eval)
}
