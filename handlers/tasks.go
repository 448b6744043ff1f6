package handlers

import (
	"net/http"

	"clinicdesk/models"
	"clinicdesk/services/task"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	Service task.TaskService
}

func NewTaskHandler(svc task.TaskService) *TaskHandler {
	return &TaskHandler{Service: svc}
}

// CreateTaskHandler handles POST /api/tasks.
func (h *TaskHandler) CreateTaskHandler(c *gin.Context) {
	var in models.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		utils.RespondError(c, "Failed to create task", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListTasksHandler handles GET /api/tasks?date=&startDate=&endDate=&executor=.
func (h *TaskHandler) ListTasksHandler(c *gin.Context) {
	tasks, err := h.Service.List(c.Request.Context(), models.TaskQuery{
		Date:      c.Query("date"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Executor:  c.Query("executor"),
	})
	if err != nil {
		utils.RespondError(c, "Failed to fetch tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskHandler(c *gin.Context) {
	t, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// UpdateTaskHandler handles PUT /api/tasks/:id.
func (h *TaskHandler) UpdateTaskHandler(c *gin.Context) {
	var in models.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.Service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, "Failed to update task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// RescheduleTaskHandler handles PATCH /api/tasks/:id.
func (h *TaskHandler) RescheduleTaskHandler(c *gin.Context) {
	var in models.TaskReschedule
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.Service.Reschedule(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		utils.RespondError(c, "Failed to reschedule task", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) DeleteTaskHandler(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, "Failed to delete task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// ExecutorsHandler handles GET /api/tasks/executors.
func (h *TaskHandler) ExecutorsHandler(c *gin.Context) {
	names, err := h.Service.Executors(c.Request.Context())
	if err != nil {
		utils.RespondError(c, "Failed to fetch executors", err)
		return
	}
	c.JSON(http.StatusOK, names)
}

// DoctorNamesHandler handles GET /api/tasks/doctors.
func (h *TaskHandler) DoctorNamesHandler(c *gin.Context) {
	names, err := h.Service.DoctorNames(c.Request.Context())
	if err != nil {
		utils.RespondError(c, "Failed to fetch doctors", err)
		return
	}
	c.JSON(http.StatusOK, names)
}
