// Package api implements the thin HTTP surface (§6): task and job CRUD
// plus a health endpoint, wired with gin and gin-contrib/cors the way the
// teacher wires its registry service.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/blendle/automaat/internal/apierr"
	"github.com/blendle/automaat/internal/store"
	"github.com/blendle/automaat/internal/task"
)

// Config holds the details needed to construct a Server.
type Config struct {
	Bind      string
	Version   string
	ReleaseID string
}

// Server is the Automaat HTTP API.
type Server struct {
	config Config
	store  *store.Store
	engine *gin.Engine
}

// NewServer wires routes onto a gin.Engine backed by s.
func NewServer(config Config, s *store.Store) *Server {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		AllowCredentials: false,
	}))

	srv := &Server{config: config, store: s, engine: r}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/actuator/health", s.handleHealth)
	s.engine.GET("/actuator/health/liveness", s.handleHealth)
	s.engine.GET("/actuator/health/readiness", s.handleHealth)

	s.engine.POST("/tasks", s.handleCreateTask)
	s.engine.GET("/tasks", s.handleSearchTasks)
	s.engine.GET("/tasks/:id", s.handleGetTask)

	s.engine.POST("/jobs", s.handleCreateJob)
	s.engine.GET("/jobs", s.handleListJobs)
	s.engine.GET("/jobs/:id", s.handleGetJob)
}

// Start runs the HTTP server until the process is killed.
func (s *Server) Start() error {
	log.Printf("[server] listening on %s", s.config.Bind)
	return s.engine.Run(s.config.Bind)
}

type healthStatus string

const (
	healthPass healthStatus = "pass"
	healthFail healthStatus = "fail"
)

func (s *Server) handleHealth(c *gin.Context) {
	status := healthPass
	code := http.StatusOK

	if err := s.store.Pool().Ping(c.Request.Context()); err != nil {
		status = healthFail
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"version":   s.config.Version,
		"releaseId": s.config.ReleaseID,
	})
}

type stepInput struct {
	Name                  string          `json:"name" binding:"required"`
	Description           *string         `json:"description"`
	Processor             json.RawMessage `json:"processor" binding:"required"`
	Position              int32           `json:"position"`
	AdvertisedVariableKey *string         `json:"advertised_variable_key"`
}

type variableConstraintInput struct {
	Selection []string `json:"selection"`
}

type variableInput struct {
	Key          string                  `json:"key" binding:"required"`
	Description  *string                 `json:"description"`
	DefaultValue *string                 `json:"default_value"`
	ExampleValue *string                 `json:"example_value"`
	Constraints  variableConstraintInput `json:"constraints"`
}

type createTaskInput struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Variables   []variableInput `json:"variables"`
	Steps       []stepInput     `json:"steps"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var in createTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := &task.Task{
		Name:        in.Name,
		Description: in.Description,
	}
	for _, v := range in.Variables {
		t.Variables = append(t.Variables, task.Variable{
			Key:                 v.Key,
			Description:         v.Description,
			DefaultValue:        v.DefaultValue,
			ExampleValue:        v.ExampleValue,
			SelectionConstraint: v.Constraints.Selection,
		})
	}
	for _, st := range in.Steps {
		t.Steps = append(t.Steps, task.Step{
			Name:                  st.Name,
			Description:           st.Description,
			Processor:             st.Processor,
			Position:              st.Position,
			AdvertisedVariableKey: st.AdvertisedVariableKey,
		})
	}

	created, err := s.store.CreateTask(c.Request.Context(), t)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleSearchTasks(c *gin.Context) {
	tasks, err := s.store.SearchTasks(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		respondStoreErr(c, "task", id, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type jobValueInput struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

type createJobInput struct {
	TaskID int32           `json:"task_id" binding:"required"`
	Values []jobValueInput `json:"values"`
}

func (s *Server) handleCreateJob(c *gin.Context) {
	var in createJobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	values := make([]task.VariableValue, len(in.Values))
	for i, v := range in.Values {
		values[i] = task.VariableValue{Key: v.Key, Value: v.Value}
	}

	j, err := task.Instantiate(c.Request.Context(), s.store, in.TaskID, values)
	if err != nil {
		respondInstantiateErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, j)
}

func (s *Server) handleListJobs(c *gin.Context) {
	jobs, err := s.store.ListJobs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (s *Server) handleGetJob(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	j, err := s.store.GetJob(c.Request.Context(), id)
	if err != nil {
		respondStoreErr(c, "job", id, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func parseID(raw string) (int32, error) {
	var id int32
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func respondStoreErr(c *gin.Context, resource string, id int32, err error) {
	if err == store.ErrNotFound {
		notFound := &apierr.NotFoundError{Resource: resource, ID: id}
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func respondInstantiateErr(c *gin.Context, err error) {
	switch err.(type) {
	case *apierr.MissingValuesError, *apierr.ConstraintMismatchError:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
