// Package api exposes a trained model over HTTP: encoding, prediction
// and model metadata. The server reads the model but never trains it, so
// handlers can run concurrently.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/seqvec/helix/internal/hdc"
	"github.com/seqvec/helix/internal/logger"
)

type Server struct {
	model *hdc.Model
	log   logger.Logger
}

func NewServer(model *hdc.Model, log logger.Logger) *Server {
	return &Server{model: model, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/encode", s.handleEncode)
	e.POST("/v1/predict", s.handlePredict)
	e.POST("/v1/predict_proba", s.handlePredictProba)
	e.GET("/v1/model", s.handleModel)
}

func (s *Server) handleEncode(c *echo.Context) error {
	req, err := decodeJSON[EncodeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Sequences) == 0 {
		return writeBadRequest(c, "sequences is required and must not be empty")
	}

	vectors := make([][]float32, len(req.Sequences))
	if req.Binary {
		for i, seq := range req.Sequences {
			vectors[i] = s.model.EncodeBinary(seq)
		}
	} else {
		x := s.model.EncodeBatch(req.Sequences)
		for i := range vectors {
			row := make([]float32, x.C)
			copy(row, x.Row(i))
			vectors[i] = row
		}
	}

	return c.JSON(http.StatusOK, EncodeResponse{
		Dimension: s.model.Dim(),
		Vectors:   vectors,
	})
}

func (s *Server) handlePredict(c *echo.Context) error {
	req, err := decodeJSON[PredictRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Sequences) == 0 {
		return writeBadRequest(c, "sequences is required and must not be empty")
	}

	labels, err := s.model.Predict(req.Sequences)
	if err != nil {
		return s.writeModelError(c, err)
	}
	return c.JSON(http.StatusOK, PredictResponse{Labels: labels})
}

func (s *Server) handlePredictProba(c *echo.Context) error {
	req, err := decodeJSON[PredictRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Sequences) == 0 {
		return writeBadRequest(c, "sequences is required and must not be empty")
	}

	probs, err := s.model.PredictProba(req.Sequences)
	if err != nil {
		return s.writeModelError(c, err)
	}

	out := make([][]float32, probs.R)
	for i := range out {
		row := make([]float32, probs.C)
		copy(row, probs.Row(i))
		out[i] = row
	}
	return c.JSON(http.StatusOK, PredictProbaResponse{
		Classes:       probs.C,
		Probabilities: out,
	})
}

func (s *Server) handleModel(c *echo.Context) error {
	info := ModelInfo{
		KmerLength: s.model.KmerLength(),
		Dimension:  s.model.Dim(),
		Fitted:     s.model.Fitted(),
	}
	if info.Fitted {
		info.Classes = s.model.Config().NumClasses
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) writeModelError(c *echo.Context, err error) error {
	if errors.Is(err, hdc.ErrNotFitted) {
		return writeError(c, http.StatusConflict, "model_not_fitted", "model has no classifier; fine-tune or load one first")
	}
	s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
	return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
}
