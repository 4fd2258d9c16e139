package router

import (
	"context"
	"errors"

	"interview-agent-go/internal/api/handler"
	"interview-agent-go/internal/interview"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, interviewHandler *handler.InterviewHandler) {
	api := h.Group("/api/v1")

	api.POST("/interview/start", func(c context.Context, ctx *app.RequestContext) {
		var req handler.StartInterviewRequest
		if err := ctx.BindAndValidate(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}

		resp, err := interviewHandler.HandleStartInterview(c, &req)
		if err != nil {
			if errors.Is(err, interview.ErrModelCall) {
				ctx.JSON(consts.StatusBadGateway, utils.H{"error": "Sorry, there was a technical issue. Please try again."})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/interview/next", func(c context.Context, ctx *app.RequestContext) {
		var req handler.NextQuestionRequest
		if err := ctx.BindAndValidate(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}

		resp, err := interviewHandler.HandleNextQuestion(c, &req)
		if err != nil {
			if errors.Is(err, interview.ErrModelCall) {
				ctx.JSON(consts.StatusBadGateway, utils.H{"error": "Sorry, there was a technical issue. Please try again."})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/interview/submit", func(c context.Context, ctx *app.RequestContext) {
		var req handler.SubmitAnswerRequest
		if err := ctx.BindAndValidate(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}

		resp, err := interviewHandler.HandleSubmitAnswer(c, &req)
		if err != nil {
			// 模型调用失败时返回哨兵评估和固定提示，调用方据状态码区分
			if errors.Is(err, interview.ErrModelCall) {
				ctx.JSON(consts.StatusBadGateway, resp)
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/interview/score", func(c context.Context, ctx *app.RequestContext) {
		sessionID := ctx.Query("session_id")

		summary, err := interviewHandler.HandleSessionScore(c, sessionID)
		if err != nil {
			if errors.Is(err, interview.ErrNoEvaluations) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "no evaluations recorded for session"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, summary)
	})

	api.GET("/interview/history", func(c context.Context, ctx *app.RequestContext) {
		sessionID := ctx.Query("session_id")

		responses, err := interviewHandler.HandleSessionHistory(c, sessionID)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"session_id": sessionID, "responses": responses})
	})

	api.GET("/interview/me", func(c context.Context, ctx *app.RequestContext) {
		email := ctx.Query("email")
		if email == "" {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "email参数不能为空"})
			return
		}
		name := ctx.Query("name")

		profile, err := interviewHandler.HandleGetProfile(c, email, name)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, profile)
	})

	api.POST("/interview/ask", func(c context.Context, ctx *app.RequestContext) {
		var req handler.AskRequest
		if err := ctx.BindAndValidate(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}

		resp, err := interviewHandler.HandleAsk(c, &req)
		if err != nil {
			if errors.Is(err, interview.ErrModelCall) {
				ctx.JSON(consts.StatusBadGateway, utils.H{"error": "Sorry, there was a technical issue. Please try again."})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 添加健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
