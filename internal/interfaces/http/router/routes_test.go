package router

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var routerAnnotation = regexp.MustCompile(`(?m)^// @Router\s+(\S+) \[(\w+)\]$`)
var pathParam = regexp.MustCompile(`\{(\w+)\}`)

// documentedRoutes collects "METHOD /path" for every @Router annotation of the handlers
func documentedRoutes(t *testing.T) map[string]bool {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "handler", "*.go"))
	require.NoError(t, err)

	routes := make(map[string]bool)
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		src, err := os.ReadFile(f)
		require.NoError(t, err)
		for _, m := range routerAnnotation.FindAllStringSubmatch(string(src), -1) {
			path := pathParam.ReplaceAllString(m[1], ":$1")
			routes[strings.ToUpper(m[2])+" "+path] = true
		}
	}
	return routes
}

func TestGroups_EveryRouteIsDocumented(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	for _, g := range Groups(RoutesConfig{Logger: zap.NewNop()}) {
		r.Register(g)
	}
	r.Setup()

	documented := documentedRoutes(t)
	require.NotEmpty(t, documented)

	mounted := make(map[string]bool)
	for _, route := range engine.Routes() {
		key := route.Method + " " + strings.TrimPrefix(route.Path, r.BasePath())
		mounted[key] = true
		assert.True(t, documented[key], "route %s has no @Router annotation", key)
	}
	for key := range documented {
		assert.True(t, mounted[key], "annotation %s matches no mounted route", key)
	}
}
