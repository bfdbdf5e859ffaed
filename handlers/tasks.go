package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/biosecret/go-tasks/models"
	"github.com/biosecret/go-tasks/tasks"
)

// TaskHandler serves the owner-scoped task routes.
type TaskHandler struct {
	svc *tasks.Service
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(svc *tasks.Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// HandleCreateTask creates a task owned by the caller.
//
//	@Summary	Create a task
//	@Tags		Tareas
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.NewTask	true	"Task"
//	@Success	201		{object}	models.Envelope
//	@Failure	401		{object}	models.Envelope
//	@Failure	404		{object}	models.Envelope
//	@Router		/tareas [post]
func (h *TaskHandler) HandleCreateTask(c *fiber.Ctx) error {
	var in models.NewTask
	if err := parseBody(c, &in); err != nil {
		return err
	}

	task, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(models.Success(task, "task created"))
}

// HandleAllTasks lists the caller's tasks.
//
//	@Summary	List own tasks
//	@Tags		Tareas
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	models.Envelope
//	@Failure	401	{object}	models.Envelope
//	@Router		/listarTareas [get]
func (h *TaskHandler) HandleAllTasks(c *fiber.Ctx) error {
	list, err := h.svc.ListByOwner(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(models.List(list))
}

// HandleUpdateTask applies a partial update to one of the caller's tasks.
//
//	@Summary	Update a task
//	@Tags		Tareas
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"Task id"
//	@Param		body	body		models.TaskPatch	true	"Fields to change"
//	@Success	200		{object}	models.Envelope
//	@Failure	400		{object}	models.Envelope
//	@Failure	404		{object}	models.Envelope
//	@Router		/editarTareas/{id} [put]
func (h *TaskHandler) HandleUpdateTask(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var patch models.TaskPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}

	task, err := h.svc.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(models.Success(task, "task updated"))
}

// HandleDeleteTask removes one of the caller's tasks. The request body is ignored.
//
//	@Summary	Delete a task
//	@Tags		Tareas
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		int	true	"Task id"
//	@Success	200	{object}	models.Envelope
//	@Failure	404	{object}	models.Envelope
//	@Router		/eliminarTareas/{id} [delete]
func (h *TaskHandler) HandleDeleteTask(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	res, err := h.svc.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(models.Success(res, "task deleted"))
}

// PublicTaskHandler serves the unscoped single-task read.
type PublicTaskHandler struct {
	reader *tasks.PublicReader
}

// NewPublicTaskHandler creates a PublicTaskHandler.
func NewPublicTaskHandler(reader *tasks.PublicReader) *PublicTaskHandler {
	return &PublicTaskHandler{reader: reader}
}

// HandleGetOneTask returns any task by id, whoever owns it.
//
//	@Summary	Get a task by id
//	@Tags		Tareas
//	@Produce	json
//	@Param		id	path		int	true	"Task id"
//	@Success	200	{object}	models.Envelope
//	@Failure	400	{object}	models.Envelope
//	@Failure	404	{object}	models.Envelope
//	@Router		/listarTareas/{id} [get]
func (h *PublicTaskHandler) HandleGetOneTask(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	task, err := h.reader.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(models.Success(task, ""))
}

// HandleHealthCheck reports liveness.
func HandleHealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.Success(fiber.Map{"status": "ok"}, ""))
}
