package middlewares

import (
	"fmt"
	"net/http"

	"civicsetu-be/logger"
	"civicsetu-be/models"
	"civicsetu-be/utils"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
)

// Objects and actions checked by RequirePermission.
const (
	ObjReport     = "report"
	ObjDashboard  = "dashboard"
	ObjUser       = "user"
	ObjDepartment = "department"
	ObjStaff      = "staff"

	ActCreate       = "create"
	ActRead         = "read"
	ActWrite        = "write"
	ActDelete       = "delete"
	ActUpdateStatus = "update_status"
	ActAssign       = "assign"
	ActReopen       = "reopen"
	ActReadInternal = "read_internal"
	ActEditAny      = "edit_any"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Each role inherits everything granted to the role before it.
var rolePolicies = [][]string{
	{string(models.RoleCitizen), ObjReport, ActCreate},

	{string(models.RoleStaff), ObjReport, ActUpdateStatus},
	{string(models.RoleStaff), ObjReport, ActReadInternal},

	{string(models.RoleSupervisor), ObjReport, ActAssign},
	{string(models.RoleSupervisor), ObjReport, ActReopen},
	{string(models.RoleSupervisor), ObjReport, ActEditAny},
	{string(models.RoleSupervisor), ObjDashboard, ActRead},
	{string(models.RoleSupervisor), ObjUser, ActRead},
	{string(models.RoleSupervisor), ObjDepartment, ActRead},

	{string(models.RoleAdmin), ObjReport, ActDelete},
	{string(models.RoleAdmin), ObjUser, ActWrite},
	{string(models.RoleAdmin), ObjDepartment, ActWrite},
	{string(models.RoleAdmin), ObjStaff, ActCreate},
}

var roleInheritance = [][]string{
	{string(models.RoleStaff), string(models.RoleCitizen)},
	{string(models.RoleSupervisor), string(models.RoleStaff)},
	{string(models.RoleAdmin), string(models.RoleSupervisor)},
}

// NewEnforcer builds the in-memory role policy.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	for _, p := range rolePolicies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("add policy %v: %w", p, err)
		}
	}
	for _, g := range roleInheritance {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("add role %v: %w", g, err)
		}
	}
	return e, nil
}

// Authorizer answers whether a role may perform an action.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

func NewAuthorizer(e *casbin.Enforcer) *Authorizer {
	return &Authorizer{enforcer: e}
}

func (a *Authorizer) Can(role, obj, act string) bool {
	if role == "" {
		return false
	}
	ok, err := a.enforcer.Enforce(role, obj, act)
	if err != nil {
		logger.WithComponent("rbac").Error("permission check failed", "error", err, "role", role, "obj", obj, "act", act)
		return false
	}
	return ok
}

// RequirePermission must run after AuthMiddleware.
func (a *Authorizer) RequirePermission(obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := CurrentUser(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
			return
		}
		if !a.Can(role, obj, act) {
			logger.WithComponent("rbac").Warn("permission denied", "user_id", userID, "role", role, "obj", obj, "act", act)
			utils.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}
