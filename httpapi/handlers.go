package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bsid.es/despertador"
	"bsid.es/despertador/ical"
)

// alarmRequest is the create/update payload. Pointer fields distinguish
// "absent" from the zero value so updates don't silently reset toggles.
type alarmRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	TriggerTime  time.Time  `json:"triggerTime" binding:"required"`
	RepeatType   string     `json:"repeatType"`
	RepeatValue  int        `json:"repeatValue"`
	SoundEnabled *bool      `json:"soundEnabled"`
	IsActive     *bool      `json:"isActive"`
}

func (r *alarmRequest) apply(a *despertador.Alarm) {
	a.Title = r.Title
	a.Description = r.Description
	a.TriggerTime = r.TriggerTime
	if r.RepeatType != "" {
		a.Repeat = despertador.RepeatType(r.RepeatType)
	}
	a.RepeatValue = r.RepeatValue
	if r.SoundEnabled != nil {
		a.SoundEnabled = *r.SoundEnabled
	}
	if r.IsActive != nil {
		a.Active = *r.IsActive
	}
}

func (s *Server) health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status":  "ok",
		"pending": len(s.sched.PendingIDs()),
	})
}

func (s *Server) listAlarms(c *gin.Context) {
	alarms, err := s.store.Alarms(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, alarms)
}

func (s *Server) getAlarm(c *gin.Context) {
	alarm, err := s.store.Alarm(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, alarm)
}

func (s *Server) createAlarm(c *gin.Context) {
	var req alarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	alarm := despertador.Alarm{
		ID:           uuid.NewString(),
		Repeat:       despertador.RepeatNone,
		SoundEnabled: true,
		Active:       true,
	}
	req.apply(&alarm)

	if err := s.store.CreateAlarm(c.Request.Context(), &alarm); err != nil {
		failErr(c, err)
		return
	}
	s.reconcile(c.Request.Context())
	ok(c, http.StatusCreated, alarm)
}

func (s *Server) updateAlarm(c *gin.Context) {
	var req alarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	alarm, err := s.store.Alarm(ctx, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	req.apply(&alarm)

	if err := s.store.UpdateAlarm(ctx, &alarm); err != nil {
		failErr(c, err)
		return
	}
	s.reconcile(ctx)
	ok(c, http.StatusOK, alarm)
}

func (s *Server) deleteAlarm(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := s.store.DeleteAlarm(ctx, id); err != nil {
		failErr(c, err)
		return
	}
	s.sched.Cancel(id)
	s.reconcile(ctx)
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleAlarm(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	alarm, err := s.store.Alarm(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	if err := s.store.SetAlarmActive(ctx, id, !alarm.Active); err != nil {
		failErr(c, err)
		return
	}
	s.reconcile(ctx)
	alarm, err = s.store.Alarm(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, alarm)
}

func (s *Server) snoozeAlarm(c *gin.Context) {
	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	d := s.defaultSnooze
	if req.Minutes > 0 {
		d = time.Duration(req.Minutes) * time.Minute
	}

	ctx := c.Request.Context()
	snoozed, err := despertador.Snooze(ctx, s.store, s.sched, c.Param("id"), d, s.now())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, snoozed)
}

func (s *Server) occurrences(c *gin.Context) {
	count := 5
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}
	if count > 100 {
		count = 100
	}

	alarm, err := s.store.Alarm(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"id":          alarm.ID,
		"occurrences": despertador.Occurrences(alarm, s.now(), count),
	})
}

func (s *Server) exportICS(c *gin.Context) {
	alarms, err := s.store.Alarms(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ical.Encode(alarms)))
}
