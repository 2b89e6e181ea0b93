//go:build !swagger

package api

import "github.com/gin-gonic/gin"

// registerSwaggerRoutes 非 swagger 构建时不注册
func registerSwaggerRoutes(*gin.Engine) {}
