package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zephyrtronium/uncertainty"
)

func (srv *Server) routes(r *gin.Engine) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", srv.createSession)
		sessions.GET("/:id", srv.getSession)
		sessions.DELETE("/:id", srv.deleteSession)
		sessions.POST("/:id/variables", srv.addVariable)
		sessions.DELETE("/:id/variables/:index", srv.deleteVariable)
		sessions.PUT("/:id/function", srv.setFunction)
		sessions.POST("/:id/validate/name", srv.validateName)
		sessions.POST("/:id/validate/number", srv.validateNumber)
		sessions.POST("/:id/evaluate", srv.evaluate)
	}
}

// AddVariableRequest is the body of POST /sessions/:id/variables.
type AddVariableRequest struct {
	Name        string  `json:"name" binding:"required,symbol"`
	Value       float64 `json:"value" binding:"finite"`
	Uncertainty float64 `json:"uncertainty" binding:"finite,gte=0"`
}

// FunctionRequest is the body of PUT /sessions/:id/function.
type FunctionRequest struct {
	Expression string `json:"expression"`
}

// TextRequest is the body of the validation endpoints.
type TextRequest struct {
	Text string `json:"text"`
}

// Snapshot describes a session.
type Snapshot struct {
	ID            string                 `json:"id"`
	State         string                 `json:"state"`
	Function      string                 `json:"function"`
	FunctionValid bool                   `json:"function_valid"`
	Uncertainty   string                 `json:"uncertainty"`
	Variables     []uncertainty.Variable `json:"variables"`
	Last          *OutcomeResponse       `json:"last"`
}

// OutcomeResponse is the JSON form of an uncertainty.Outcome. A numeric field
// is null when its evaluation failed, and the matching error field says why.
type OutcomeResponse struct {
	Function         string                 `json:"function"`
	Uncertainty      string                 `json:"uncertainty_function"`
	Params           []uncertainty.Variable `json:"params"`
	Value            *float64               `json:"value"`
	UncertaintyValue *float64               `json:"uncertainty"`
	ValueError       string                 `json:"value_error,omitempty"`
	UncertaintyError string                 `json:"uncertainty_error,omitempty"`
	Result           string                 `json:"result"`
	Missing          []string               `json:"missing,omitempty"`
}

func outcomeResponse(out uncertainty.Outcome) *OutcomeResponse {
	r := &OutcomeResponse{
		Function:    out.Function,
		Uncertainty: out.UncertaintyText,
		Params:      out.Params,
		Result:      out.Result.String(),
		Missing:     out.Missing,
	}
	if r.Params == nil {
		r.Params = []uncertainty.Variable{}
	}
	if err := out.Result.ValueErr; err != nil {
		r.ValueError = err.Error()
	} else {
		v := out.Result.Value
		r.Value = &v
	}
	if err := out.Result.UncertaintyErr; err != nil {
		r.UncertaintyError = err.Error()
	} else {
		u := out.Result.Uncertainty
		r.UncertaintyValue = &u
	}
	return r
}

func snapshot(id uuid.UUID, s *uncertainty.Session) Snapshot {
	snap := Snapshot{
		ID:            id.String(),
		State:         s.State().String(),
		Function:      s.Function(),
		FunctionValid: s.FunctionValid(),
		Uncertainty:   s.UncertaintyExpression(),
		Variables:     s.Variables(),
	}
	if snap.Variables == nil {
		snap.Variables = []uncertainty.Variable{}
	}
	if out, ok := s.Last(); ok {
		snap.Last = outcomeResponse(out)
	}
	return snap
}

// errorResponse maps an error to a status code and a kind.
func errorResponse(err error) (int, gin.H) {
	status, kind := http.StatusInternalServerError, "internal"
	var (
		pe *uncertainty.ParseError
		ne *uncertainty.InvalidNameError
		ce *uncertainty.NameConflictError
		nu *uncertainty.InvalidNumberError
		ie *uncertainty.IndexError
		de *uncertainty.DifferentiationError
		ee *uncertainty.EvaluationError
		ve validator.ValidationErrors
	)
	h := gin.H{}
	switch {
	case errors.Is(err, ErrSessionNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, uncertainty.ErrNoFunction):
		status, kind = http.StatusConflict, "no_function"
	case errors.As(err, &ce):
		status, kind = http.StatusConflict, "name_conflict"
	case errors.As(err, &ie):
		status, kind = http.StatusNotFound, "index"
	case errors.As(err, &pe):
		status, kind = http.StatusUnprocessableEntity, "parse"
		h["position"] = pe.Pos()
	case errors.As(err, &ne):
		status, kind = http.StatusUnprocessableEntity, "invalid_name"
	case errors.As(err, &nu):
		status, kind = http.StatusUnprocessableEntity, "invalid_number"
	case errors.As(err, &de):
		status, kind = http.StatusUnprocessableEntity, "differentiation"
	case errors.As(err, &ee):
		status, kind = http.StatusUnprocessableEntity, "evaluation"
	case errors.As(err, &ve):
		status, kind = http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, errBadRequest):
		status, kind = http.StatusBadRequest, "bad_request"
	}
	h["kind"] = kind
	h["error"] = err.Error()
	return status, h
}

var errBadRequest = errors.New("bad request")

func (srv *Server) fail(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		srv.log.WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

// bind decodes the request body. Malformed bodies are bad requests; bodies
// that decode but fail validation keep their validation errors.
func bind(c *gin.Context, v any) error {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return err
	}
	return errors.Wrap(errBadRequest, err.Error())
}

func sessionID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.WithMessagef(ErrSessionNotFound, "invalid id %q", c.Param("id"))
	}
	return id, nil
}

// withSession runs f against the session named in the path.
func (srv *Server) withSession(c *gin.Context, f func(id uuid.UUID, s *uncertainty.Session) error) {
	id, err := sessionID(c)
	if err != nil {
		srv.fail(c, err)
		return
	}
	err = srv.store.With(id, func(s *uncertainty.Session) error { return f(id, s) })
	if err != nil {
		srv.fail(c, err)
	}
}

func (srv *Server) createSession(c *gin.Context) {
	id := srv.store.Create()
	c.JSON(http.StatusCreated, gin.H{"id": id.String()})
}

func (srv *Server) getSession(c *gin.Context) {
	srv.withSession(c, func(id uuid.UUID, s *uncertainty.Session) error {
		c.JSON(http.StatusOK, snapshot(id, s))
		return nil
	})
}

func (srv *Server) deleteSession(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		srv.fail(c, err)
		return
	}
	if err := srv.store.Delete(id); err != nil {
		srv.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (srv *Server) addVariable(c *gin.Context) {
	var req AddVariableRequest
	if err := bind(c, &req); err != nil {
		srv.fail(c, err)
		return
	}
	srv.withSession(c, func(id uuid.UUID, s *uncertainty.Session) error {
		if err := s.AddVariable(req.Name, req.Value, req.Uncertainty); err != nil {
			return err
		}
		c.JSON(http.StatusCreated, snapshot(id, s))
		return nil
	})
}

func (srv *Server) deleteVariable(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		srv.fail(c, errors.Wrapf(errBadRequest, "invalid index %q", c.Param("index")))
		return
	}
	srv.withSession(c, func(id uuid.UUID, s *uncertainty.Session) error {
		if err := s.DeleteVariable(index); err != nil {
			return err
		}
		c.JSON(http.StatusOK, snapshot(id, s))
		return nil
	})
}

func (srv *Server) setFunction(c *gin.Context) {
	var req FunctionRequest
	if err := bind(c, &req); err != nil {
		srv.fail(c, err)
		return
	}
	srv.withSession(c, func(id uuid.UUID, s *uncertainty.Session) error {
		if err := s.SetFunction(req.Expression); err != nil {
			status, body := errorResponse(err)
			if status >= http.StatusInternalServerError {
				return err
			}
			body["valid"] = false
			body["function"] = s.Function()
			c.JSON(status, body)
			return nil
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "function": s.Function()})
		return nil
	})
}

func (srv *Server) validateName(c *gin.Context) {
	var req TextRequest
	if err := bind(c, &req); err != nil {
		srv.fail(c, err)
		return
	}
	srv.withSession(c, func(id uuid.UUID, s *uncertainty.Session) error {
		if err := s.ValidateVariableName(req.Text); err != nil {
			_, body := errorResponse(err)
			body["valid"] = false
			c.JSON(http.StatusOK, body)
			return nil
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
		return nil
	})
}

func (srv *Server) validateNumber(c *gin.Context) {
	var req TextRequest
	if err := bind(c, &req); err != nil {
		srv.fail(c, err)
		return
	}
	srv.withSession(c, func(id uuid.UUID, s *uncertainty.Session) error {
		x, err := s.ValidateNumber(req.Text)
		if err != nil {
			_, body := errorResponse(err)
			body["valid"] = false
			c.JSON(http.StatusOK, body)
			return nil
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "value": x})
		return nil
	})
}

func (srv *Server) evaluate(c *gin.Context) {
	srv.withSession(c, func(id uuid.UUID, s *uncertainty.Session) error {
		out, err := s.DeriveAndEvaluate()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, outcomeResponse(out))
		return nil
	})
}
