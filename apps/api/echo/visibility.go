package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorhub/core/user"
	"github.com/trezcool/tutorhub/core/visibility"
)

type ScopeRequest struct {
	EntityRef string `json:"entity_ref"`
	Scope     string `json:"scope"`
}

type visibilityApi struct {
	svc     *visibility.Service
	userSvc *user.Service
}

func registerVisibilityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *visibility.Service, userSvc *user.Service) {
	api := visibilityApi{svc: svc, userSvc: userSvc}

	vg := g.Group("/visibility", jwt)
	vg.PUT("", api.set, roleMiddleware(user.RoleTutor, user.RoleStudent))
	vg.GET("", api.resolve)
}

// Handlers

func (api *visibilityApi) set(ctx echo.Context) error {
	var data ScopeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScopeRequest")
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	setting, err := api.svc.Set(usr.ID, data.EntityRef, visibility.Scope(data.Scope))
	if err != nil {
		return errors.Wrap(err, "setting visibility scope")
	}
	return ctx.JSON(http.StatusOK, setting)
}

func (api *visibilityApi) resolve(ctx echo.Context) error {
	scope, err := api.svc.Resolve(ctx.QueryParam("entity_ref"))
	if err != nil {
		return errors.Wrap(err, "resolving visibility scope")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"entity_ref": ctx.QueryParam("entity_ref"), "scope": scope})
}
