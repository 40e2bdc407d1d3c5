package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	"github.com/davicafu/stacsearch/pkg/utils"
)

// Cabeceras que el gateway rellena tras autenticar al usuario.
const (
	HeaderUser   = "X-Resto-User"
	HeaderGroups = "X-Resto-Groups"

	callerKey = "caller"
)

// CallerMiddleware resuelve la identidad del llamante desde las cabeceras.
// Sin cabecera de usuario el llamante es anónimo.
func CallerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := parseCaller(c.GetHeader(HeaderUser), c.GetHeader(HeaderGroups))
		if err != nil {
			utils.SendSearchError(c, err)
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func parseCaller(user, groups string) (searchDomain.Caller, error) {
	if user == "" {
		return searchDomain.Anonymous(), nil
	}

	id, err := strconv.ParseInt(user, 10, 64)
	if err != nil || id < 1 {
		return searchDomain.Caller{}, searchDomain.InvalidParameter(HeaderUser, "invalid user id %q", user)
	}
	caller := searchDomain.Caller{UserID: id, Authenticated: true}

	for _, g := range strings.Split(groups, ",") {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		gid, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return searchDomain.Caller{}, searchDomain.InvalidParameter(HeaderGroups, "invalid group %q", g)
		}
		caller.Groups = append(caller.Groups, gid)
	}
	if len(caller.Groups) == 0 {
		caller.Groups = []int64{searchDomain.GroupDefault}
	}
	return caller, nil
}

func callerFrom(c *gin.Context) searchDomain.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(searchDomain.Caller); ok {
			return caller
		}
	}
	return searchDomain.Anonymous()
}
