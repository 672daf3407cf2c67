package stub

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type weightRecord struct {
	ID          int64    `json:"id"`
	Weight      float64  `json:"weight"`
	BodyFatRate *float64 `json:"bodyFatRate"`
	RecordTime  string   `json:"recordTime"`
	RecordDate  string   `json:"recordDate"`
}

// addWeightRequest accepts both the field names of the smoke scripts and the
// backend DTO (bodyFatRate, recordDate).
type addWeightRequest struct {
	Weight      *float64 `json:"weight"`
	BodyFat     *float64 `json:"bodyFat"`
	BodyFatRate *float64 `json:"bodyFatRate"`
	RecordTime  string   `json:"recordTime"`
	RecordDate  string   `json:"recordDate"`
}

func (s *Server) sortedWeights() []*weightRecord {
	out := make([]*weightRecord, 0, len(s.weights))
	for _, w := range s.weights {
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) latestWeight(c *gin.Context) {
	s.mu.Lock()
	all := s.sortedWeights()
	s.mu.Unlock()
	if len(all) == 0 {
		c.JSON(http.StatusOK, success(http.StatusOK, nil))
		return
	}
	c.JSON(http.StatusOK, success(http.StatusOK, all[0]))
}

func (s *Server) addWeight(c *gin.Context) {
	var req addWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request body"))
		return
	}
	if req.Weight == nil || *req.Weight <= 0 {
		c.JSON(http.StatusOK, failure(http.StatusBadRequest, "weight is required"))
		return
	}
	rec := &weightRecord{Weight: *req.Weight, RecordTime: req.RecordTime, RecordDate: req.RecordDate}
	rec.BodyFatRate = req.BodyFatRate
	if rec.BodyFatRate == nil {
		rec.BodyFatRate = req.BodyFat
	}
	now := time.Now()
	if rec.RecordDate == "" {
		rec.RecordDate = now.Format(dateLayout)
	}
	if rec.RecordTime == "" {
		rec.RecordTime = now.Format("2006-01-02T15:04:05")
	}

	s.mu.Lock()
	rec.ID = s.id()
	s.weights[rec.ID] = rec
	s.mu.Unlock()

	c.JSON(http.StatusOK, success(http.StatusOK, rec.ID))
}

func (s *Server) listWeights(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request body"))
		return
	}
	s.mu.Lock()
	all := s.sortedWeights()
	s.mu.Unlock()
	c.JSON(http.StatusOK, success(http.StatusOK, page(all, req.PageNum, req.PageSize)))
}

// weightStatistics answers with the backend's statistics VO. Fields the stub
// cannot derive (BMI, target, health goal) stay null.
func (s *Server) weightStatistics(c *gin.Context) {
	s.mu.Lock()
	all := s.sortedWeights()
	s.mu.Unlock()

	stats := gin.H{
		"currentWeight":    nil,
		"currentBmi":       nil,
		"bmiStatus":        nil,
		"targetWeight":     nil,
		"weightToTarget":   nil,
		"last7DaysChange":  nil,
		"last30DaysChange": nil,
		"totalChange":      nil,
		"totalRecords":     len(all),
		"healthGoal":       nil,
	}
	if len(all) > 0 {
		// all is newest first
		stats["currentWeight"] = all[0].Weight
		stats["totalChange"] = all[0].Weight - all[len(all)-1].Weight
	}
	c.JSON(http.StatusOK, success(http.StatusOK, stats))
}

func (s *Server) deleteWeight(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid record id"))
		return
	}
	s.mu.Lock()
	_, found := s.weights[id]
	delete(s.weights, id)
	s.mu.Unlock()
	if !found {
		c.JSON(http.StatusOK, failure(http.StatusNotFound, "record not found"))
		return
	}
	c.JSON(http.StatusOK, success(http.StatusOK, true))
}
