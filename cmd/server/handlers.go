package main

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/elkquiz/internal/errors"
	"github.com/ZanzyTHEbar/elkquiz/internal/security"
	"github.com/ZanzyTHEbar/elkquiz/internal/types"
)

const submitSuccessMsg = "计算成功"

// health godoc
// @Summary      Service health
// @Tags         system
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /api/health [get]
func (app *application) health(c *gin.Context) {
	snap := app.service.Snapshot()
	c.JSON(http.StatusOK, types.HealthResponse{
		Success:        true,
		Suites:         len(snap.Suites),
		DefaultSuiteID: snap.Default.ID,
		StoredResults:  app.service.StoredResults(),
		CatalogVersion: snap.Version,
		RedisEnabled:   app.redis.IsEnabled(),
	})
}

// reload godoc
// @Summary      Reload question suites from disk
// @Description  On failure the previous catalog stays active.
// @Tags         system
// @Produce      json
// @Success      200  {object}  types.ReloadResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /api/reload [post]
func (app *application) reload(c *gin.Context) {
	snap, err := app.service.Reload("api")
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.ReloadResponse{
		Success:        true,
		Suites:         len(snap.Suites),
		DefaultSuiteID: snap.Default.ID,
	})
}

// stats godoc
// @Summary      Runtime statistics
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stats [get]
func (app *application) statsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, app.stats())
}

// listSuites godoc
// @Summary      List question suites
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  types.SuitesResponse
// @Router       /api/suites [get]
func (app *application) listSuites(c *gin.Context) {
	snap := app.service.Snapshot()
	c.JSON(http.StatusOK, types.SuitesResponse{
		Success:        true,
		DefaultSuiteID: snap.Default.ID,
		Data:           snap.Summaries(),
	})
}

// adConfig godoc
// @Summary      Ad slot configuration
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  types.AdConfigResponse
// @Router       /api/ad-config [get]
func (app *application) adConfig(c *gin.Context) {
	c.JSON(http.StatusOK, types.AdConfigResponse{
		Success: true,
		Data:    app.service.Snapshot().AdConfig,
	})
}

// questions godoc
// @Summary      Questions of a suite
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Suite id"
// @Success      200  {object}  types.QuestionsResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/suites/{id}/questions [get]
func (app *application) questions(c *gin.Context) {
	suiteID, ok := suiteParam(c)
	if !ok {
		return
	}
	suite, err := app.service.Suite(suiteID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.NewQuestionsResponse(suite))
}

// metadata godoc
// @Summary      Dimension metadata of a suite
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Suite id"
// @Success      200  {object}  catalog.Metadata
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/suites/{id}/metadata [get]
func (app *application) metadata(c *gin.Context) {
	suiteID, ok := suiteParam(c)
	if !ok {
		return
	}
	suite, err := app.service.Suite(suiteID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, suite.Metadata())
}

// submit godoc
// @Summary      Score a submission
// @Description  Every question of the suite must be answered once with one of its option scores.
// @Tags         quiz
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Suite id"
// @Param        body  body      types.SubmitRequest  true  "Answers"
// @Success      200   {object}  types.Envelope
// @Failure      400   {object}  types.ErrorResponse
// @Failure      404   {object}  types.ErrorResponse
// @Failure      413   {object}  types.ErrorResponse
// @Failure      429   {object}  types.ErrorResponse
// @Router       /api/suites/{id}/submit [post]
func (app *application) submit(c *gin.Context) {
	suiteID, ok := suiteParam(c)
	if !ok {
		return
	}
	app.submitTo(c, suiteID)
}

func (app *application) submitTo(c *gin.Context, suiteID string) {
	if _, err := app.service.Suite(suiteID); err != nil {
		_ = c.Error(err)
		return
	}

	raw, err := security.ReadJSONBody(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req types.SubmitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		_ = c.Error(apperrors.NewValidationError("answers必须为数组"))
		return
	}

	ack, err := app.service.Submit(c.Request.Context(), suiteID, req.Answers)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.Envelope{
		Success: true,
		Code:    http.StatusOK,
		Msg:     submitSuccessMsg,
		Data:    ack,
	})
}

// result godoc
// @Summary      Fetch a stored result
// @Tags         quiz
// @Produce      json
// @Param        id   path      string  true  "Suite id"
// @Param        rid  path      string  true  "Result id"
// @Success      200  {object}  types.ResultResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/suites/{id}/result/{rid} [get]
func (app *application) result(c *gin.Context) {
	suiteID, ok := suiteParam(c)
	if !ok {
		return
	}
	resultID, ok := resultParam(c)
	if !ok {
		return
	}
	record, err := app.service.Result(c.Request.Context(), suiteID, resultID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.ResultResponse{Success: true, Code: http.StatusOK, Data: record})
}

// legacyQuestions godoc
// @Summary      Questions of the default suite
// @Tags         legacy
// @Produce      json
// @Success      200  {object}  types.QuestionsResponse
// @Router       /api/questions [get]
func (app *application) legacyQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, types.NewQuestionsResponse(app.service.Snapshot().Default))
}

// legacyMetadata godoc
// @Summary      Dimension metadata of the default suite
// @Tags         legacy
// @Produce      json
// @Success      200  {object}  catalog.Metadata
// @Router       /api/metadata [get]
func (app *application) legacyMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, app.service.Snapshot().Default.Metadata())
}

// legacySubmit godoc
// @Summary      Score a submission against the default suite
// @Tags         legacy
// @Accept       json
// @Produce      json
// @Param        body  body      types.SubmitRequest  true  "Answers"
// @Success      200   {object}  types.Envelope
// @Failure      400   {object}  types.ErrorResponse
// @Failure      429   {object}  types.ErrorResponse
// @Router       /api/submit [post]
func (app *application) legacySubmit(c *gin.Context) {
	app.submitTo(c, "")
}

// legacyResult godoc
// @Summary      Fetch a stored result from any suite
// @Tags         legacy
// @Produce      json
// @Param        rid  path      string  true  "Result id"
// @Success      200  {object}  types.ResultResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/result/{rid} [get]
func (app *application) legacyResult(c *gin.Context) {
	resultID, ok := resultParam(c)
	if !ok {
		return
	}
	record, err := app.service.LegacyResult(c.Request.Context(), resultID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.ResultResponse{Success: true, Code: http.StatusOK, Data: record})
}

func suiteParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := security.ValidateIdentifier(id); err != nil {
		_ = c.Error(apperrors.NewValidationError("套题ID不合法", err.Error()))
		return "", false
	}
	return id, true
}

func resultParam(c *gin.Context) (string, bool) {
	id := c.Param("rid")
	if err := security.ValidateIdentifier(id); err != nil {
		_ = c.Error(apperrors.NewValidationError("结果ID不合法", err.Error()))
		return "", false
	}
	return id, true
}
