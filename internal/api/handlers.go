package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"configurator/internal/service"
)

// errorBody is rendered under "detail" for every failed request.
type errorBody struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type errorResponse struct {
	Detail errorBody `json:"detail"`
}

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pong": true})
}

func (s *Server) getConfigs(c *gin.Context) {
	req, err := s.parseRequest(c)
	if err != nil {
		renderError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	resp, err := s.collector.Collect(c.Request.Context(), req)
	if err != nil {
		var svcErr *service.Error
		if !errors.As(err, &svcErr) {
			svcErr = service.Unexpected(req.Exchange, err)
		}
		_ = c.Error(err)
		renderError(c, svcErr.Status, svcErr.Title, svcErr.Detail)
		return
	}

	c.IndentedJSON(http.StatusOK, resp)
}

func (s *Server) parseRequest(c *gin.Context) (service.Request, error) {
	req := service.Request{
		Exchange:        c.Param("exchange"),
		Instance:        c.Param("instance"),
		OnlyNew:         true,
		RoutesMaxLength: s.config.DefaultRoutesMaxLength,
	}

	var err error
	if req.OnlyNew, err = boolQuery(c, "only_new", req.OnlyNew); err != nil {
		return req, err
	}
	if req.LimitsByOrderBook, err = boolQuery(c, "limits_by_order_book", false); err != nil {
		return req, err
	}

	if v, ok := c.GetQuery("routes_max_length"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("routes_max_length must be an integer, got %q", v)
		}
		if n < 1 || n > s.config.RoutesMaxLengthLimit {
			return req, fmt.Errorf("routes_max_length must be between 1 and %d, got %d", s.config.RoutesMaxLengthLimit, n)
		}
		req.RoutesMaxLength = n
	}

	return req, nil
}

func boolQuery(c *gin.Context, key string, def bool) (bool, error) {
	v, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func renderError(c *gin.Context, status int, title, detail string) {
	c.IndentedJSON(status, errorResponse{Detail: errorBody{Title: title, Detail: detail}})
}
