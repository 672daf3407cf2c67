package stub

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type report struct {
	ID           int64   `json:"id"`
	ReportPeriod string  `json:"reportPeriod"`
	ReportDate   string  `json:"reportDate"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	TotalDays    int     `json:"totalDays"`
	OverallScore float64 `json:"overallScore"`
	AvgCalories  float64 `json:"avgCalories"`
	UseAI        bool    `json:"useAI"`
}

type generateRequest struct {
	ReportPeriod string `json:"reportPeriod"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	UseAI        bool   `json:"useAI"`
}

type pageRequest struct {
	ReportPeriod string `json:"reportPeriod"`
	PageNum      int    `json:"pageNum"`
	PageSize     int    `json:"pageSize"`
}

func (s *Server) generateReport(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request body"))
		return
	}
	start, err1 := time.Parse(dateLayout, req.StartDate)
	end, err2 := time.Parse(dateLayout, req.EndDate)
	if req.ReportPeriod == "" || err1 != nil || err2 != nil || end.Before(start) {
		c.JSON(http.StatusOK, failure(http.StatusBadRequest, "reportPeriod, startDate and endDate are required"))
		return
	}

	s.mu.Lock()
	r := &report{
		ID:           s.id(),
		ReportPeriod: req.ReportPeriod,
		ReportDate:   time.Now().Format(dateLayout),
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		TotalDays:    int(end.Sub(start).Hours()/24) + 1,
		OverallScore: 82.5,
		AvgCalories:  1850,
		UseAI:        req.UseAI,
	}
	s.reports[r.ID] = r
	s.mu.Unlock()

	c.JSON(http.StatusOK, success(http.StatusOK, r.ID))
}

func (s *Server) listReports(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request body"))
		return
	}
	s.mu.Lock()
	out := make([]*report, 0, len(s.reports))
	for _, r := range s.reports {
		if req.ReportPeriod == "" || r.ReportPeriod == req.ReportPeriod {
			cp := *r
			out = append(out, &cp)
		}
	}
	s.mu.Unlock()
	// Newest first, like the backend.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	c.JSON(http.StatusOK, success(http.StatusOK, page(out, req.PageNum, req.PageSize)))
}

func (s *Server) getReport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid report id"))
		return
	}
	s.mu.Lock()
	r, found := s.reports[id]
	var cp report
	if found {
		cp = *r
	}
	s.mu.Unlock()
	if !found {
		c.JSON(http.StatusOK, failure(http.StatusNotFound, "report not found"))
		return
	}
	c.JSON(http.StatusOK, success(http.StatusOK, cp))
}

func (s *Server) deleteReport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid report id"))
		return
	}
	s.mu.Lock()
	_, found := s.reports[id]
	delete(s.reports, id)
	s.mu.Unlock()
	if !found {
		c.JSON(http.StatusOK, failure(http.StatusNotFound, "report not found"))
		return
	}
	c.JSON(http.StatusOK, success(http.StatusOK, true))
}

// page slices items by 1-based pageNum; non-positive values mean the first page of 10.
func page[T any](items []T, pageNum, pageSize int) []T {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	from := (pageNum - 1) * pageSize
	if from >= len(items) {
		return []T{}
	}
	to := from + pageSize
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}
