package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/billing"
	"github.com/trezcool/tutorhub/core/user"
)

type billingApi struct {
	svc      *billing.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *billing.Service, userSvc *user.Service, validate *validator.Validate) {
	api := billingApi{svc: svc, userSvc: userSvc, validate: validate}

	bg := g.Group("/invoices", jwt)
	bg.POST("", api.issue, roleMiddleware(user.RoleTutor))
	bg.GET("", api.query, roleMiddleware(user.RoleParent))
	bg.GET("/:id", api.get)
}

// Handlers

func (api *billingApi) issue(ctx echo.Context) error {
	var data billing.NewInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvoice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	inv, err := api.svc.Issue(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "issuing invoice")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *billingApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	invs, err := api.svc.QueryByParent(usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	if invs == nil {
		invs = []billing.Invoice{}
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (api *billingApi) get(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	inv, err := api.svc.Get(usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting invoice")
	}
	return ctx.JSON(http.StatusOK, inv)
}
