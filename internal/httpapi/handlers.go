package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/service"
)

func pathInt(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return v, true
}

// listProjects handles GET /api/projects. ?creator= or ?sponsor= filters by
// party; otherwise the newest-first page selected by ?limit=&offset= is returned.
func (a *API) listProjects(c *gin.Context) {
	ctx := c.Request.Context()
	now := a.now()

	for _, party := range []struct {
		param string
		query func(context.Context, domain.Identity) ([]int64, error)
	}{
		{"creator", a.projects.GetProjectsByCreator},
		{"sponsor", a.projects.GetProjectsBySponsor},
	} {
		raw := c.Query(party.param)
		if raw == "" {
			continue
		}
		id, err := domain.ParseIdentity(raw)
		if err != nil {
			badRequest(c, fmt.Sprintf("%s: %v", party.param, err))
			return
		}
		ids, err := party.query(ctx, id)
		if err != nil {
			a.fail(c, err)
			return
		}
		projects := make([]projectResponse, 0, len(ids))
		for _, pid := range ids {
			p, err := a.projects.GetProject(ctx, pid)
			if err != nil {
				a.fail(c, err)
				return
			}
			projects = append(projects, toProjectResponse(p, now))
		}
		c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects)})
		return
	}

	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	page, err := a.projects.ListProjects(ctx, service.Page{Limit: limit, Offset: offset})
	if err != nil {
		a.fail(c, err)
		return
	}
	projects := make([]projectResponse, len(page.Projects))
	for i, p := range page.Projects {
		projects[i] = toProjectResponse(p, now)
	}
	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"total":    page.Total,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

func (a *API) getProject(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	p, err := a.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(p, a.now()))
}

func (a *API) getMilestones(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	ms, err := a.projects.GetMilestones(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": toMilestoneResponses(ms, a.now())})
}

func (a *API) statsOverview(c *gin.Context) {
	s, err := a.projects.GetStats(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{
		TotalProjects:  s.TotalProjects,
		ActiveProjects: s.ActiveProjects,
		TotalDeposited: s.TotalDeposited,
		TotalReleased:  s.TotalReleased,
		TotalRefunded:  s.TotalRefunded,
		EscrowBalance:  s.EscrowBalance,
	})
}

func (a *API) getAccount(c *gin.Context) {
	addr, err := domain.ParseIdentity(c.Param("address"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	acct, err := a.accounts.GetAccount(c.Request.Context(), addr)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":       acct.Address,
		"balance":       acct.Balance,
		"rejects_funds": acct.RejectsFunds,
	})
}

func (a *API) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	id, err := a.projects.CreateProject(c.Request.Context(), callerFrom(c), service.CreateProjectInput{
		Name:                  req.Name,
		Description:           req.Description,
		Sponsor:               req.Sponsor,
		MilestoneDescriptions: req.MilestoneDescriptions,
		MilestoneAmounts:      req.MilestoneAmounts,
		MilestoneDueDates:     req.MilestoneDueDates,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (a *API) deposit(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := a.projects.DepositFunds(c.Request.Context(), callerFrom(c), id, req.Amount); err != nil {
		a.fail(c, err)
		return
	}
	a.respondProject(c, id)
}

func (a *API) withdraw(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	refunded, err := a.projects.EmergencyWithdraw(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "refunded": refunded})
}

func (a *API) completeMilestone(c *gin.Context) {
	a.milestoneAction(c, a.projects.CompleteMilestone)
}

func (a *API) approveMilestone(c *gin.Context) {
	a.milestoneAction(c, a.projects.ApproveMilestone)
}

func (a *API) milestoneAction(c *gin.Context, action func(context.Context, domain.Identity, int64, int) error) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}
	if err := action(c.Request.Context(), callerFrom(c), id, int(index)); err != nil {
		a.fail(c, err)
		return
	}
	a.respondProject(c, id)
}

// respondProject returns the project after a successful mutation.
func (a *API) respondProject(c *gin.Context, id int64) {
	p, err := a.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(p, a.now()))
}
