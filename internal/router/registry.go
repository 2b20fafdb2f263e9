package router

import "github.com/gin-gonic/gin"

// Registry collects feature modules and mounts them under /api once
// startup has built the service graph.
type Registry struct {
	api     *gin.RouterGroup
	modules []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{api: engine.Group("/api")}
}

func (r *Registry) Add(mods ...Module) {
	r.modules = append(r.modules, mods...)
}

func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		m.Register(r.api)
	}
}
