package server

import (
	"net/http"
	"strconv"
	"time"

	"harbormaster/internal/logger"
	"harbormaster/internal/operations"

	"github.com/labstack/echo/v4"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.GET("/status", s.handleStatus)

	containers := api.Group("/containers")
	containers.GET("", s.handleListContainers)
	containers.GET("/:id/inspect", s.handleInspectContainer)

	projects := api.Group("/projects")
	projects.GET("", s.handleListProjects)
	projects.POST("", s.handleAddProject)
	projects.GET("/:name", s.handleGetProject)
	projects.DELETE("/:name", s.handleRemoveProject)
	projects.POST("/:name/sync", s.handleSyncProject)
	projects.POST("/:name/build", s.handleBuildProject)
	projects.POST("/:name/deploy", s.handleDeployProject)
	projects.POST("/:name/stop", s.handleStopProject)
	projects.GET("/:name/health", s.handleProjectHealth)
	projects.POST("/:name/health", s.handleUpdateProjectHealth)
	projects.GET("/:name/logs", s.handleProjectLogs)
	projects.GET("/:name/logs/stream", s.handleLogStream)
	projects.PUT("/:name/env", s.handleUpdateEnvVars)
	projects.PUT("/:name/settings", s.handleUpdateSettings)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:   "healthy",
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		Projects: len(s.ops.ListProjects()),
	})
}

func (s *Server) handleListContainers(c echo.Context) error {
	containers, err := s.ops.ListAllContainers(c.Request().Context())
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, ContainersResponse{Containers: containers, Total: len(containers)})
}

func (s *Server) handleInspectContainer(c echo.Context) error {
	state, err := s.ops.InspectContainer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) handleListProjects(c echo.Context) error {
	list := s.ops.ListProjects()
	return c.JSON(http.StatusOK, ProjectsResponse{Projects: list, Total: len(list)})
}

func (s *Server) handleAddProject(c echo.Context) error {
	var req AddProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	project, err := s.ops.AddProject(c.Request().Context(), operations.AddProjectRequest{
		Name:            req.Name,
		RepoURL:         req.RepoURL,
		Branch:          req.Branch,
		Dockerfile:      req.Dockerfile,
		ComposeFile:     req.ComposeFile,
		EnvironmentVars: req.EnvironmentVars,
	})
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusCreated, ProjectResponse{Project: project})
}

func (s *Server) handleGetProject(c echo.Context) error {
	project, err := s.ops.GetProject(c.Param("name"))
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, ProjectResponse{Project: project})
}

func (s *Server) handleRemoveProject(c echo.Context) error {
	warnings, err := s.ops.RemoveProject(c.Request().Context(), c.Param("name"))
	if err != nil {
		return handleError(err)
	}
	if len(warnings) > 0 {
		logger.FromEcho(c).WithField("warnings", warnings).Warn("Project removed with teardown warnings")
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "project removed", Warnings: warnings})
}

func (s *Server) handleSyncProject(c echo.Context) error {
	summary, err := s.ops.SyncProject(c.Request().Context(), c.Param("name"))
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, SyncResponse{
		Updated:      summary.Updated(),
		FilesChanged: summary.FilesChanged,
		Insertions:   summary.Insertions,
		Deletions:    summary.Deletions,
	})
}

func (s *Server) handleBuildProject(c echo.Context) error {
	project, err := s.ops.BuildProject(c.Request().Context(), c.Param("name"))
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, ProjectResponse{Project: project})
}

func (s *Server) handleDeployProject(c echo.Context) error {
	project, err := s.ops.DeployProject(c.Request().Context(), c.Param("name"))
	if err != nil {
		return handleError(err)
	}
	var warnings []string
	if n := len(project.DeployHistory); n > 0 {
		warnings = project.DeployHistory[n-1].Warnings
	}
	return c.JSON(http.StatusOK, ProjectResponse{Project: project, Warnings: warnings})
}

func (s *Server) handleStopProject(c echo.Context) error {
	project, err := s.ops.StopProject(c.Request().Context(), c.Param("name"))
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, ProjectResponse{Project: project})
}

func (s *Server) handleProjectHealth(c echo.Context) error {
	report, err := s.ops.GetProjectHealth(c.Request().Context(), c.Param("name"))
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleUpdateProjectHealth(c echo.Context) error {
	report, err := s.ops.UpdateProjectHealth(c.Request().Context(), c.Param("name"))
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleProjectLogs(c echo.Context) error {
	name := c.Param("name")
	tail := 0
	if raw := c.QueryParam("tail"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "tail must be a non-negative integer")
		}
		tail = parsed
	}

	logs, err := s.ops.GetProjectLogs(c.Request().Context(), name, tail)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, LogsResponse{Project: name, Containers: logs})
}

func (s *Server) handleUpdateEnvVars(c echo.Context) error {
	var req UpdateEnvVarsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	project, err := s.ops.UpdateEnvironmentVars(c.Request().Context(), c.Param("name"), req.EnvironmentVars)
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, ProjectResponse{Project: project})
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	var req UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.ops.UpdateSettings(c.Request().Context(), c.Param("name"), operations.UpdateSettingsRequest{
		ComposeFile:    req.ComposeFile,
		Dockerfile:     req.Dockerfile,
		AutoRestart:    req.AutoRestart,
		ResourceLimits: req.ResourceLimits,
		PortUpdates:    req.PortUpdates,
	})
	if err != nil {
		return handleError(err)
	}
	return c.JSON(http.StatusOK, ProjectResponse{Project: result.Project, Warnings: result.Warnings})
}
