package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
)

type (
	attendanceApi struct {
		svc        *attendance.Service
		userSvc    *user.Service
		validate   *validator.Validate
		translator ut.Translator
	}

	// TokenResponse carries a display token for the session's board.
	TokenResponse struct {
		SessionID  string `json:"session_id"`
		ModuleName string `json:"module_name"`
		Date       string `json:"date"`
		Token      string `json:"token"`
		ExpiresIn  int    `json:"expires_in"` // seconds until rotation
	}

	// FaceMarkResponse pairs the recognition verdict with the record, if any.
	FaceMarkResponse struct {
		Result attendance.FaceResult `json:"result"`
		Record *attendance.Record    `json:"record,omitempty"`
	}
)

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := attendanceApi{
		svc:        opts.AttendanceSvc,
		userSvc:    opts.UserSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	ag := g.Group("/attendance", jwt)

	// teacher endpoints
	ag.POST("/token", api.issueToken, teacherMiddleware())
	ag.GET("/token/qr", api.issueTokenQR, teacherMiddleware())
	ag.POST("/mark-manual", api.markManual, teacherMiddleware())
	ag.POST("/mark-manual-batch", api.markManualBatch, teacherMiddleware())
	ag.POST("/mark-face", api.markFace, teacherMiddleware())

	// student endpoints
	ag.POST("/mark-qr", api.markQR, studentMiddleware())
	ag.GET("", api.list, studentMiddleware())
	ag.GET("/stats", api.stats, studentMiddleware())
}

func (api *attendanceApi) issueToken(ctx echo.Context) error {
	var data attendance.TokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TokenRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	res, err := api.newTokenResponse(ctx, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// issueTokenQR renders the display token as a PNG ready for projection.
func (api *attendanceApi) issueTokenQR(ctx echo.Context) error {
	data := attendance.TokenRequest{
		SessionID: ctx.QueryParam("session_id"),
		Date:      ctx.QueryParam("date"),
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	res, err := api.newTokenResponse(ctx, data)
	if err != nil {
		return err
	}

	png, err := qrcode.Encode(res.Token, qrcode.Medium, 256)
	if err != nil {
		return errors.Wrap(err, "encoding QR code")
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}

func (api *attendanceApi) newTokenResponse(ctx echo.Context, data attendance.TokenRequest) (TokenResponse, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return TokenResponse{}, errors.Wrap(err, "getting context user")
	}

	token, expiresIn, mod, err := api.svc.IssueToken(ctx.Request().Context(), usr, data)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		SessionID:  data.SessionID,
		ModuleName: mod.Name,
		Date:       data.Date,
		Token:      token,
		ExpiresIn:  expiresIn,
	}, nil
}

func (api *attendanceApi) markQR(ctx echo.Context) error {
	var data attendance.QRMarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QRMarkRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.MarkQR(ctx.Request().Context(), usr, data.Token)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) markManual(ctx echo.Context) error {
	var data attendance.ManualMarkInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManualMarkInput")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.MarkManual(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) markManualBatch(ctx echo.Context) error {
	var data attendance.BatchMarkInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchMarkInput")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.MarkManualBatch(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) markFace(ctx echo.Context) error {
	var data attendance.FaceMarkInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FaceMarkInput")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, rec, err := api.svc.MarkFace(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, FaceMarkResponse{Result: res, Record: rec})
}

func (api *attendanceApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	recs, err := api.svc.ListForStudent(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) stats(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	stats, err := api.svc.StatsForStudent(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}
