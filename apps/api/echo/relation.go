package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/user"
)

type (
	GrantRequest struct {
		Type    string `json:"type" validate:"required,oneof=S-P S-T P-T"`
		AUserID string `json:"a_user_id" validate:"required"`
		BUserID string `json:"b_user_id" validate:"required"`
	}

	ConsentRequest struct {
		Consent *bool `json:"consent" validate:"required"`
	}
)

func (gr *GrantRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(gr)
}

func (cr *ConsentRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(cr)
}

type relationApi struct {
	svc      *relation.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerRelationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *relation.Service, userSvc *user.Service, validate *validator.Validate) {
	api := relationApi{svc: svc, userSvc: userSvc, validate: validate}

	rg := g.Group("/relationships", jwt)
	rg.POST("", api.grant)
	rg.GET("", api.query)
	rg.PUT("/:id/consent", api.setConsent)
}

// Handlers

func (api *relationApi) grant(ctx echo.Context) error {
	var data GrantRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GrantRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rel, err := api.svc.Grant(usr.ID, data.AUserID, data.BUserID, data.Type)
	if err != nil {
		return errors.Wrap(err, "granting relationship")
	}
	return ctx.JSON(http.StatusCreated, rel)
}

func (api *relationApi) query(ctx echo.Context) error {
	filter := relation.QueryFilter{
		Type:    ctx.QueryParam("type"),
		AUserID: ctx.QueryParam("a_user_id"),
		BUserID: ctx.QueryParam("b_user_id"),
	}
	switch ctx.QueryParam("consent") {
	case "true":
		consented := true
		filter.Consent = &consented
	case "false":
		consented := false
		filter.Consent = &consented
	}

	rels, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "querying relationships")
	}
	if rels == nil {
		rels = []relation.Relationship{}
	}
	return ctx.JSON(http.StatusOK, rels)
}

func (api *relationApi) setConsent(ctx echo.Context) error {
	var data ConsentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConsentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rel, err := api.svc.SetConsent(usr.ID, ctx.Param("id"), *data.Consent)
	if err != nil {
		return errors.Wrap(err, "updating consent")
	}
	return ctx.JSON(http.StatusOK, rel)
}
