package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/signup"
)

type signupApi struct {
	svc  *signup.Service
	auth *jwtAuth
}

// SignupResponse is a signup.Result along with the token of the session it opens.
type SignupResponse struct {
	signup.Result
	Token string `json:"token"`
}

func registerSignupAPI(g *echo.Group, auth *jwtAuth, svc *signup.Service) {
	api := signupApi{svc: svc, auth: auth}
	// TODO: rate limit `/signup`
	g.POST("/users/signup", api.signup)
}

func (api *signupApi) signup(ctx echo.Context) error {
	var data signup.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to signup.Request")
	}
	res, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	token, err := GenerateToken(api.auth.conf, GetUserClaims(api.auth.conf, res.User))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, SignupResponse{Result: res, Token: token})
}
