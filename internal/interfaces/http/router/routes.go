// Package router 提供 HTTP 路由配置
package router

import (
	"mockflow-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	projectHandler *handler.ProjectHandler,
	generationHandler *handler.GenerationHandler,
	eventsHandler *handler.EventsHandler,
) {
	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", projectHandler.ListProjects)
		projects.POST("", projectHandler.CreateProject)
		projects.GET("/:pid", projectHandler.GetProject)
		projects.PATCH("/:pid", projectHandler.UpdateProject)
		projects.DELETE("/:pid", projectHandler.DeleteProject)

		// 项目下的帧
		projects.GET("/:pid/frames", projectHandler.ListFrames)

		// 项目全量生成
		projects.POST("/:pid/generate", generationHandler.Generate)

		// 项目下的任务
		projects.GET("/:pid/jobs", generationHandler.ListJobs)
	}

	// 帧管理
	frames := v1.Group("/frames")
	{
		frames.GET("/:fid", projectHandler.GetFrame)
		frames.POST("/:fid/regenerate", generationHandler.RegenerateFrame)
	}

	// 任务管理
	jobs := v1.Group("/jobs")
	{
		jobs.GET("/:jid", generationHandler.GetJob)
	}

	// 进度事件流（SSE）
	events := v1.Group("/events")
	{
		events.GET("/stream", eventsHandler.Stream)
	}
}
